package library

import (
	"maps"
	"slices"

	"github.com/contre95/bandpass/src/music"
)

// Index is an immutable snapshot of the library mappings.
// A new Index is built for every rebuild and swapped in whole.
type Index struct {
	Tracks       []music.Track
	ByArtist     map[string][]string // artist -> titles, insertion order
	ArtistAlbums map[string][]string // artist -> distinct albums, first seen order
	ByAlbum      map[string][]string // album -> titles, album order
	Artwork      map[string][]byte   // album -> artwork of the last track carrying one
}

func emptyIndex() *Index {
	return &Index{
		ByArtist:     map[string][]string{},
		ArtistAlbums: map[string][]string{},
		ByAlbum:      map[string][]string{},
		Artwork:      map[string][]byte{},
	}
}

// shallow copy; maps are replaced, never mutated, after publication
func (idx *Index) clone() *Index {
	return &Index{
		Tracks:       idx.Tracks,
		ByArtist:     idx.ByArtist,
		ArtistAlbums: idx.ArtistAlbums,
		ByAlbum:      idx.ByAlbum,
		Artwork:      idx.Artwork,
	}
}

func copyMapping(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	music.SortNames(keys)
	return keys
}

func resolve(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
