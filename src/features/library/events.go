package library

import (
	"context"
	"time"
)

// EventType identifies what changed in the library.
type EventType string

const (
	EventScanned        EventType = "scanned"
	EventArtistsIndexed EventType = "artists_indexed"
	EventAlbumsIndexed  EventType = "albums_indexed"
)

const subscriberBufferSize = 10

// Event is delivered to subscribers after a snapshot is published.
type Event struct {
	Type      EventType
	Tracks    int
	Timestamp time.Time
}

// Watcher defines the interface for file system watchers
type Watcher interface {
	Start(ctx context.Context, watchPath string) error
	Stop()
}

// FileEventType represents the type of file system event
type FileEventType string

const (
	FileCreated  FileEventType = "created"
	FileRemoved  FileEventType = "removed"
	FileModified FileEventType = "modified"
)

// FileEvent represents a debounced change below the watched path
type FileEvent struct {
	Path      string
	EventType FileEventType
	Timestamp time.Time
}
