package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nyumbatz/internal/property"
)

func sampleProperty() property.Property {
	return property.Property{
		ID:        "p1",
		Title:     "Modern House",
		City:      "Mbeya",
		Amenities: []string{"Parking"},
	}
}

func TestTrieSearchByPrefix(t *testing.T) {
	tr := NewSearchTrie()
	tr.Add(sampleProperty())

	require.Contains(t, tr.Search("mod"), "p1")
	require.Contains(t, tr.Search("modern"), "p1")
	require.Contains(t, tr.Search("mbe"), "p1")
	require.Contains(t, tr.Search("park"), "p1")
	require.Empty(t, tr.Search("xy"))
}

func TestTrieCaseInsensitive(t *testing.T) {
	tr := NewSearchTrie()
	tr.Add(sampleProperty())
	require.Contains(t, tr.Search("MOD"), "p1")
	require.Contains(t, tr.Search("Mbeya"), "p1")
}

func TestTrieShortPrefixReturnsEmpty(t *testing.T) {
	tr := NewSearchTrie()
	tr.Add(sampleProperty())
	require.Empty(t, tr.Search("m"))
	require.Empty(t, tr.Search(""))
}

func TestTrieShortTokensNotIndexed(t *testing.T) {
	tr := NewSearchTrie()
	tr.Add(property.Property{ID: "p2", Title: "A of it", City: "Du"})
	// 长度不超过 2 的词不入索引
	require.Empty(t, tr.Search("of"))
	require.Empty(t, tr.Search("it"))
	require.Empty(t, tr.Search("du"))
}

func TestTrieMultipleDocs(t *testing.T) {
	tr := NewSearchTrie()
	tr.Add(sampleProperty())
	tr.Add(property.Property{ID: "p2", Title: "Modest Flat", City: "Mwanza"})

	got := tr.Search("mod")
	require.Contains(t, got, "p1")
	require.Contains(t, got, "p2")
	require.Len(t, tr.Search("modes"), 1)
}

func TestTrieSuggestions(t *testing.T) {
	tr := NewSearchTrie()
	tr.Add(sampleProperty())
	tr.Add(property.Property{ID: "p2", Title: "Modest Flat", City: "Mwanza"})

	got := tr.Suggestions("mod", 10)
	require.NotEmpty(t, got)
	require.Contains(t, got, "modern")
	require.Contains(t, got, "modest")
	for _, s := range got {
		require.GreaterOrEqual(t, len(s), 3)
	}

	require.Len(t, tr.Suggestions("mod", 1), 1)
	require.Empty(t, tr.Suggestions("zz", 10))
	require.Empty(t, tr.Suggestions("m", 10))
}
