package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/music"
)

// ErrTrackNotFound is returned when a requested track is not in the library.
var ErrTrackNotFound = errors.New("track not found")

const metadataTimeout = 30 * time.Second

// NowPlaying is the metadata of the current track with defaults applied.
type NowPlaying struct {
	Path       string `json:"path"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	HasArtwork bool   `json:"has_artwork"`
}

// Service ties the library, the play queue and the controller together.
type Service struct {
	library       *library.Service
	controller    *Controller
	queue         *Queue
	configManager *config.Manager

	metaMu     sync.Mutex
	metaGen    uint64
	nowPlaying *NowPlaying
}

// NewService creates a playback service and hooks auto-advance into the controller.
func NewService(lib *library.Service, controller *Controller, queue *Queue, cfgManager *config.Manager) *Service {
	s := &Service{
		library:       lib,
		controller:    controller,
		queue:         queue,
		configManager: cfgManager,
	}
	controller.OnTrackEnd(s.trackEnded)
	return s
}

// Controller exposes the underlying controller for state subscriptions.
func (s *Service) Controller() *Controller {
	return s.controller
}

// PlayAlbum queues album from the track titled title and plays it. When the title is
// not in the album the queue stays empty, the track is played on its own and queued
// is false.
func (s *Service) PlayAlbum(ctx context.Context, album, title string) (queued bool, err error) {
	first, ok := s.library.ResolveTitle(title)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrTrackNotFound, title)
	}
	if err := s.queue.Build(s.library.AlbumTitles(album), first, s.library.Tracks()); err != nil {
		slog.Warn("Could not queue album, playing single track", "album", album, "title", title, "error", err)
		return false, s.play(ctx, first)
	}
	track, _ := s.queue.Current()
	return true, s.play(ctx, track)
}

// PlayPath plays a single file outside any queue.
func (s *Service) PlayPath(ctx context.Context, path string) error {
	track, ok := s.library.FindByPath(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, path)
	}
	s.queue.Clear()
	return s.play(ctx, track)
}

// Toggle pauses or resumes the current track. When idle it starts the queue's
// current track.
func (s *Service) Toggle(ctx context.Context) error {
	state := s.controller.State()
	if state.State == StateLoaded {
		return s.controller.TogglePlayback(ctx, state.Path, false, false)
	}
	track, ok := s.queue.Current()
	if !ok {
		return nil
	}
	return s.play(ctx, track)
}

// Next moves to the next queued track.
func (s *Service) Next(ctx context.Context) (Status, error) {
	track, status := s.queue.Next()
	if status != StatusMoved {
		slog.Debug("Next is a no-op", "status", status)
		return status, nil
	}
	return status, s.play(ctx, track)
}

// Previous moves one track back, or restarts the first track of the queue.
func (s *Service) Previous(ctx context.Context) (Status, error) {
	track, status := s.queue.Previous()
	switch status {
	case StatusMoved:
		return status, s.play(ctx, track)
	case StatusRestarted:
		return status, s.restart(ctx, track)
	default:
		return status, nil
	}
}

// Stop releases the audio graph. The queue is kept.
func (s *Service) Stop(ctx context.Context) {
	s.controller.Stop(ctx)
}

// State returns the controller state.
func (s *Service) State() PlayerState {
	return s.controller.State()
}

// Queue returns a copy of the play queue.
func (s *Service) Queue() QueueSnapshot {
	return s.queue.Snapshot()
}

// NowPlaying returns the loaded metadata of the current track, if any.
func (s *Service) NowPlaying() (NowPlaying, bool) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	if s.nowPlaying == nil {
		return NowPlaying{}, false
	}
	return *s.nowPlaying, true
}

func (s *Service) play(ctx context.Context, track music.Track) error {
	gen := s.beginMetadata(track)
	go s.loadMetadata(gen, track)
	return s.controller.TogglePlayback(ctx, track.Path, true, false)
}

// restart reloads the track's metadata and rebuilds its graph from the beginning.
func (s *Service) restart(ctx context.Context, track music.Track) error {
	gen := s.beginMetadata(track)
	go s.loadMetadata(gen, track)
	return s.controller.TogglePlayback(ctx, track.Path, true, true)
}

// beginMetadata starts a new now-playing generation. Results of older generations
// are dropped.
func (s *Service) beginMetadata(track music.Track) uint64 {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.metaGen++
	s.nowPlaying = &NowPlaying{
		Path:   track.Path,
		Title:  track.Title,
		Artist: music.UnknownArtist,
		Album:  music.UnknownAlbum,
	}
	return s.metaGen
}

func (s *Service) loadMetadata(gen uint64, track music.Track) {
	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()
	md := s.library.Metadata(ctx, track)
	if !s.finishMetadata(gen, track.Path, md) {
		slog.Debug("Discarding late metadata", "path", track.Path)
	}
}

// finishMetadata publishes md if gen is still current.
func (s *Service) finishMetadata(gen uint64, path string, md *music.TrackMetadata) bool {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	if gen != s.metaGen {
		return false
	}
	s.nowPlaying = &NowPlaying{
		Path:       path,
		Title:      md.Title,
		Artist:     md.Artist,
		Album:      md.Album,
		HasArtwork: md.HasArtwork(),
	}
	return true
}

func (s *Service) trackEnded(path string) {
	if !s.configManager.Get().Playback.AutoAdvance {
		return
	}
	status, err := s.Next(context.Background())
	if err != nil {
		slog.Error("Auto-advance failed", "after", path, "error", err)
		return
	}
	slog.Debug("Auto-advance", "after", path, "status", status)
}
