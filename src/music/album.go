package music

import (
	"sort"
	"strings"

	"github.com/gosimple/unidecode"
)

// SortByNumericPrefix orders tracks by the leading integer of their file names.
// Tracks without one sort last; ties keep their original order.
func SortByNumericPrefix(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	copy(out, tracks)
	sort.SliceStable(out, func(i, j int) bool {
		return ExtractNumericPrefix(out[i].FileName) < ExtractNumericPrefix(out[j].FileName)
	})
	return out
}

// SortKey folds a title for case-insensitive ordering, transliterating accents to ASCII.
func SortKey(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

// SortByTitle orders tracks case-insensitively by stripped title.
func SortByTitle(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	copy(out, tracks)
	sort.SliceStable(out, func(i, j int) bool {
		return SortKey(out[i].Title) < SortKey(out[j].Title)
	})
	return out
}

// SortNames orders names case-insensitively in place.
func SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ki, kj := SortKey(names[i]), SortKey(names[j])
		if ki == kj {
			return names[i] < names[j]
		}
		return ki < kj
	})
}
