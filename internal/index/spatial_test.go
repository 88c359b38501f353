package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpatialAddFindRemove(t *testing.T) {
	s := NewSpatialIndex(0)
	s.Add("a", 0, 0)

	got := s.FindNearby(0, 0, 0.5)
	require.Contains(t, got, "a")

	s.Remove("a", 0, 0)
	got = s.FindNearby(0, 0, 0.5)
	require.NotContains(t, got, "a")
	require.Equal(t, 0, s.Len())
}

func TestSpatialNeighborhoodIsSuperset(t *testing.T) {
	s := NewSpatialIndex(0.01)
	// 达市中心附近两个点：相距约 1.5km
	s.Add("center", -6.8160, 39.2803)
	s.Add("near", -6.8290, 39.2850)
	s.Add("far", -6.9000, 39.4000)

	got := s.FindNearby(-6.8160, 39.2803, 2)
	require.Contains(t, got, "center")
	require.Contains(t, got, "near")
	require.NotContains(t, got, "far")
}

func TestSpatialRemoveRequiresSameCoords(t *testing.T) {
	s := NewSpatialIndex(0.01)
	s.Add("a", 10.005, 10.005)
	// 错误坐标的删除不生效：索引不追踪实体位置
	s.Remove("a", 20, 20)
	require.Contains(t, s.FindNearby(10.005, 10.005, 0.5), "a")
}

func TestSpatialEmptyIndex(t *testing.T) {
	s := NewSpatialIndex(0.01)
	require.Empty(t, s.FindNearby(1, 1, 100))
	s.Remove("ghost", 1, 1)
	require.Equal(t, 0, s.Len())
}

func TestSpatialBucketDeletedWhenEmpty(t *testing.T) {
	s := NewSpatialIndex(0.01)
	s.Add("a", 5, 5)
	s.Add("b", 5, 5)
	require.Equal(t, 1, s.Len())
	s.Remove("a", 5, 5)
	require.Equal(t, 1, s.Len())
	s.Remove("b", 5, 5)
	require.Equal(t, 0, s.Len())
}
