package music

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// SupportedExtensions lists the audio formats recognised as tracks.
var SupportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".m4a":  true,
	".alac": true,
}

var indexPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Track represents a single audio file in the music folder.
type Track struct {
	ID        string
	Path      string
	FileName  string
	Title     string // stripped title, used for display and matching
	Format    string
	Size      int64
	ModTime   time.Time
	AddedDate time.Time
}

// TrackMetadata is the advisory metadata read from a file's tags. Any field may be empty.
type TrackMetadata struct {
	Title   string
	Artist  string
	Album   string
	Artwork []byte
}

// NewTrack builds a Track from a file path.
func NewTrack(path string) Track {
	name := filepath.Base(path)
	return Track{
		ID:        GenerateTrackID(path),
		Path:      path,
		FileName:  name,
		Title:     StripTitle(name),
		Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		AddedDate: time.Now(),
	}
}

// IsSupportedFile reports whether the file has a supported audio extension.
func IsSupportedFile(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// StripIndexPrefix removes a leading "<digits>." index prefix and the whitespace after it.
// Everything else is returned unchanged.
func StripIndexPrefix(name string) string {
	return indexPrefix.ReplaceAllString(name, "")
}

// StripTitle turns a file name into a display title: extension removed, index prefix
// removed, surrounding whitespace trimmed.
func StripTitle(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return NormalizeTitle(base)
}

// NormalizeTitle strips the index prefix and trims whitespace.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(StripIndexPrefix(strings.TrimSpace(title)))
}

// ExtractNumericPrefix returns the leading integer of the first space-separated token of a
// file name, or math.MaxInt when there is none.
func ExtractNumericPrefix(fileName string) int {
	first, _, _ := strings.Cut(fileName, " ")
	end := 0
	for end < len(first) && first[end] >= '0' && first[end] <= '9' {
		end++
	}
	if end == 0 {
		return math.MaxInt
	}
	n, err := strconv.Atoi(first[:end])
	if err != nil {
		return math.MaxInt
	}
	return n
}

// EnsureMetadataDefaults adds fallback values for missing metadata fields
func (m *TrackMetadata) EnsureMetadataDefaults() {
	if strings.TrimSpace(m.Title) == "" {
		m.Title = UnknownTitle
	}
	if strings.TrimSpace(m.Artist) == "" {
		m.Artist = UnknownArtist
	}
	if strings.TrimSpace(m.Album) == "" {
		m.Album = UnknownAlbum
	}
	if len(m.Artwork) == 0 {
		m.Artwork = nil
	}
}

// HasArtwork reports whether artwork bytes were found.
func (m *TrackMetadata) HasArtwork() bool {
	return m != nil && len(m.Artwork) > 0
}

// GenerateTrackID creates a deterministic UUID for a track from its path
func GenerateTrackID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String()
}
