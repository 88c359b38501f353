package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreQuota(t *testing.T) {
	s := NewMemStore(10)
	require.NoError(t, s.Set("a", "1234"))
	require.NoError(t, s.Set("b", "123"))
	require.ErrorIs(t, s.Set("c", "12345678"), ErrQuotaExceeded)

	// 覆盖写按差额计量
	require.NoError(t, s.Set("a", "12345"))
	s.Remove("a")
	require.NoError(t, s.Set("c", "1234"))
}

func TestMemStoreBasics(t *testing.T) {
	s := NewMemStore(0)
	_, ok := s.Get("missing")
	require.False(t, ok)
	require.NoError(t, s.Set("k", "v"))
	v, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
	require.Equal(t, []string{"k"}, s.Keys())
	s.Remove("k")
	require.Empty(t, s.Keys())
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set("nyumba_l3_prop:42", `{"data":"x"}`))
	require.NoError(t, s.Set("nyumba_l3_search:mbeya/2", "v2"))

	v, ok := s.Get("nyumba_l3_prop:42")
	require.True(t, ok)
	require.Equal(t, `{"data":"x"}`, v)

	keys := s.Keys()
	require.Len(t, keys, 2)
	require.Contains(t, keys, "nyumba_l3_prop:42")
	require.Contains(t, keys, "nyumba_l3_search:mbeya/2")

	s.Remove("nyumba_l3_prop:42")
	_, ok = s.Get("nyumba_l3_prop:42")
	require.False(t, ok)
	require.Len(t, s.Keys(), 1)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set("k", "persisted"))

	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	v, ok := s2.Get("k")
	require.True(t, ok)
	require.Equal(t, "persisted", v)
}
