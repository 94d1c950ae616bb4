package playback

import (
	"errors"
	"slices"
	"sync"

	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/music"
)

// ErrFirstTrackNotFound is returned when the requested first track is not part of
// the album. The queue is left empty; the track may still be played on its own.
var ErrFirstTrackNotFound = errors.New("first song not found in album")

// Status is the outcome of a queue navigation.
type Status string

const (
	StatusMoved      Status = "moved"
	StatusEmpty      Status = "empty"
	StatusEndOfQueue Status = "end_of_queue"
	StatusRestarted  Status = "restarted"
)

// QueueSnapshot is a copy of the queue state.
type QueueSnapshot struct {
	Tracks []music.Track
	Index  int
}

// Queue is an album-scoped play queue. It never wraps.
type Queue struct {
	mu     sync.Mutex
	tracks []music.Track
	index  int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Build replaces the queue with the album titles from the one matching first to the
// end, resolved to files by stripped title. Titles before the match are never queued.
func (q *Queue) Build(albumTitles []string, first music.Track, files []music.Track) error {
	want := music.NormalizeTitle(first.Title)
	start := slices.IndexFunc(albumTitles, func(title string) bool {
		return music.NormalizeTitle(title) == want
	})

	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	q.index = 0
	if start < 0 {
		return ErrFirstTrackNotFound
	}

	for _, title := range albumTitles[start:] {
		if t, ok := library.FindByTitle(files, title); ok {
			q.tracks = append(q.tracks, t)
		}
	}
	if len(q.tracks) == 0 {
		return ErrFirstTrackNotFound
	}
	return nil
}

// Next advances by one.
func (q *Queue) Next() (music.Track, Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return music.Track{}, StatusEmpty
	}
	if q.index+1 >= len(q.tracks) {
		return q.tracks[q.index], StatusEndOfQueue
	}
	q.index++
	return q.tracks[q.index], StatusMoved
}

// Previous steps back by one. At the first track the index stays and the caller is
// told to restart the current track.
func (q *Queue) Previous() (music.Track, Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return music.Track{}, StatusEmpty
	}
	if q.index == 0 {
		return q.tracks[0], StatusRestarted
	}
	q.index--
	return q.tracks[q.index], StatusMoved
}

// Current returns the track at the index.
func (q *Queue) Current() (music.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return music.Track{}, false
	}
	return q.tracks[q.index], true
}

// Snapshot returns a copy of the queue.
func (q *Queue) Snapshot() QueueSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueSnapshot{Tracks: slices.Clone(q.tracks), Index: q.index}
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	q.index = 0
}
