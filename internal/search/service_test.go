package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nyumbatz/internal/cache"
	"nyumbatz/internal/property"
)

type fakeSource struct {
	props   []property.Property
	getByID int
}

func (f *fakeSource) All(ctx context.Context) ([]property.Property, error) {
	return f.props, nil
}

func (f *fakeSource) GetByID(ctx context.Context, id string) (*property.Property, error) {
	f.getByID++
	for _, p := range f.props {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *fakeSource) {
	t.Helper()
	src := &fakeSource{props: []property.Property{
		{ID: "p1", Title: "Modern House", City: "Mbeya", Amenities: []string{"Parking"}, Lat: -8.9094, Lng: 33.4608, Price: 450000},
		{ID: "p2", Title: "Modern Apartment", City: "Dodoma", Amenities: []string{"Wifi"}, Lat: -6.1630, Lng: 35.7516, Price: 300000},
		{ID: "p3", Title: "Beach Villa", City: "Zanzibar", Amenities: []string{"Pool", "Parking"}, Lat: -6.1659, Lng: 39.2026, Price: 900000},
	}}
	mlc, err := cache.NewMultiLevel(cache.Config{L1Capacity: 16, DefaultTTL: time.Minute}, cache.NewMemStore(0), cache.NewMemStore(0))
	require.NoError(t, err)
	svc := New(src, mlc, Options{ResultTTL: time.Minute})
	require.NoError(t, svc.Rebuild(context.Background()))
	return svc, src
}

func TestQueryByText(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Do(context.Background(), Query{Text: "modern"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := map[string]bool{}
	for _, r := range got {
		ids[r.ID] = true
	}
	require.True(t, ids["p1"] && ids["p2"])

	got, err = svc.Do(context.Background(), Query{Text: "modern house"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p1", got[0].ID)

	got, err = svc.Do(context.Background(), Query{Text: "xyzzy"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestQueryBySpatial(t *testing.T) {
	svc, _ := newTestService(t)

	// 多多马坐标 5km 内只有 p2
	got, err := svc.Do(context.Background(), Query{Lat: -6.1630, Lng: 35.7516, HasLoc: true, RadiusKm: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p2", got[0].ID)
}

func TestQueryTextAndSpatialIntersect(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Do(context.Background(), Query{Text: "modern", Lat: -6.1630, Lng: 35.7516, HasLoc: true, RadiusKm: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p2", got[0].ID)

	// parking 在坐标附近无房源
	got, err = svc.Do(context.Background(), Query{Text: "parking", Lat: -6.1630, Lng: 35.7516, HasLoc: true, RadiusKm: 5})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestQueryResultsCached(t *testing.T) {
	svc, _ := newTestService(t)
	q := Query{Text: "modern"}
	first, err := svc.Do(context.Background(), q)
	require.NoError(t, err)
	second, err := svc.Do(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Greater(t, svc.CacheStats().L2Count, 0)
}

func TestGetShortCircuitsUnknownID(t *testing.T) {
	svc, src := newTestService(t)

	p, err := svc.Get(context.Background(), "never-indexed")
	require.NoError(t, err)
	require.Nil(t, p)
	require.Equal(t, 0, src.getByID)

	p, err = svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "Modern House", p.Title)
	require.Equal(t, 1, src.getByID)

	// 第二次读取命中缓存，不再回源
	p, err = svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, 1, src.getByID)
}

func TestSuggest(t *testing.T) {
	svc, _ := newTestService(t)
	got := svc.Suggest("mod", 10)
	require.Contains(t, got, "modern")
	require.Empty(t, svc.Suggest("m", 10))
}

func TestRebuildSwapsIndex(t *testing.T) {
	svc, src := newTestService(t)
	src.props = append(src.props, property.Property{ID: "p4", Title: "Garden Cottage", City: "Arusha", Lat: -3.3869, Lng: 36.6830})
	require.NoError(t, svc.Rebuild(context.Background()))

	got, err := svc.Do(context.Background(), Query{Text: "garden"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p4", got[0].ID)
}
