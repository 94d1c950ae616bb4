package music

import (
	"context"
	"time"
)

// MetadataReader extracts tag metadata from a media file.
// Results are advisory: fields may be empty and callers apply defaults.
type MetadataReader interface {
	ReadMetadata(ctx context.Context, path string) (*TrackMetadata, error)
}

// MetadataCache stores metadata keyed by file path and modification time.
type MetadataCache interface {
	GetMetadata(ctx context.Context, path string, modTime time.Time) (*TrackMetadata, bool, error)
	PutMetadata(ctx context.Context, path string, modTime time.Time, md *TrackMetadata) error
	Prune(ctx context.Context, keep []string) (int, error)
}
