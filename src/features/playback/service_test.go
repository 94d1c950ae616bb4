package playback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/music"
)

type albumReader struct {
	reads *atomic.Int64
}

func (r albumReader) ReadMetadata(ctx context.Context, path string) (*music.TrackMetadata, error) {
	if r.reads != nil {
		r.reads.Add(1)
	}
	return &music.TrackMetadata{Album: "Blue Train", Artist: "Coltrane"}, nil
}

func newTestService(t *testing.T, autoAdvance bool) (*Service, *fakeEngine, string) {
	t.Helper()
	return newTestServiceWithReader(t, autoAdvance, albumReader{})
}

func newTestServiceWithReader(t *testing.T, autoAdvance bool, reader music.MetadataReader) (*Service, *fakeEngine, string) {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"1. Blue Train.mp3", "2. Moment's Notice.mp3", "3. Locomotion.mp3"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("audio"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := &config.Config{LibraryPath: root}
	cfg.Library.ScanWorkers = 2
	cfg.Playback.AutoAdvance = autoAdvance
	manager := config.NewManager(cfg)

	lib := library.NewService(reader, nil, manager, nil)
	if err := lib.Refresh(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	engine := &fakeEngine{fail: map[string]bool{}}
	controller := NewController(engine, staticFilters{}, nil)
	return NewService(lib, controller, NewQueue(), manager), engine, root
}

func TestService_PlayAlbumAndNavigate(t *testing.T) {
	s, engine, root := newTestService(t, false)
	ctx := context.Background()

	queued, err := s.PlayAlbum(ctx, "Blue Train", "Moment's Notice")
	if err != nil || !queued {
		t.Fatalf("expected queued playback, got %v %v", queued, err)
	}
	if got := s.State().Path; got != filepath.Join(root, "2. Moment's Notice.mp3") {
		t.Errorf("expected second track playing, got %s", got)
	}
	if n := len(s.Queue().Tracks); n != 2 {
		t.Errorf("expected 2 queued tracks, got %d", n)
	}

	status, err := s.Previous(ctx)
	if err != nil || status != StatusRestarted {
		t.Fatalf("expected restart, got %s %v", status, err)
	}
	if engine.builds() != 2 {
		t.Errorf("expected restart to rebuild, got %d builds", engine.builds())
	}

	status, err = s.Next(ctx)
	if err != nil || status != StatusMoved {
		t.Fatalf("expected move, got %s %v", status, err)
	}
	status, _ = s.Next(ctx)
	if status != StatusEndOfQueue {
		t.Errorf("expected end of queue, got %s", status)
	}
	if engine.builds() != 3 {
		t.Errorf("expected end of queue to be a no-op, got %d builds", engine.builds())
	}
}

func TestService_PlayAlbumUnknownTitle(t *testing.T) {
	s, _, _ := newTestService(t, false)
	_, err := s.PlayAlbum(context.Background(), "Blue Train", "Giant Steps")
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestService_PlayAlbumWrongAlbumPlaysSingle(t *testing.T) {
	s, _, _ := newTestService(t, false)
	queued, err := s.PlayAlbum(context.Background(), "Another Album", "Locomotion")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if queued {
		t.Error("expected single track playback")
	}
	if s.State().State != StateLoaded {
		t.Error("expected the track to play")
	}
	if _, status := s.queue.Next(); status != StatusEmpty {
		t.Errorf("expected empty queue, got %s", status)
	}
}

func TestService_AutoAdvance(t *testing.T) {
	s, engine, root := newTestService(t, true)
	if _, err := s.PlayAlbum(context.Background(), "Blue Train", "Blue Train"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	engine.last().onEnd()
	if got := s.State().Path; got != filepath.Join(root, "2. Moment's Notice.mp3") {
		t.Errorf("expected auto-advance to the second track, got %s", got)
	}
}

func TestService_NoAutoAdvanceStopsAtEnd(t *testing.T) {
	s, engine, _ := newTestService(t, false)
	if _, err := s.PlayAlbum(context.Background(), "Blue Train", "Blue Train"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	engine.last().onEnd()
	if s.State().State != StateIdle {
		t.Errorf("expected idle, got %s", s.State().State)
	}
	if s.Queue().Index != 0 {
		t.Error("expected the queue not to move")
	}
}

func TestService_LateMetadataDiscarded(t *testing.T) {
	s, _, _ := newTestService(t, false)
	old := s.beginMetadata(music.NewTrack("/m/old.mp3"))
	current := s.beginMetadata(music.NewTrack("/m/new.mp3"))

	if s.finishMetadata(old, "/m/old.mp3", &music.TrackMetadata{Title: "Old"}) {
		t.Error("expected stale metadata to be dropped")
	}
	if !s.finishMetadata(current, "/m/new.mp3", &music.TrackMetadata{Title: "New"}) {
		t.Error("expected current metadata to be kept")
	}
	np, ok := s.NowPlaying()
	if !ok || np.Title != "New" {
		t.Errorf("expected New, got %+v", np)
	}
}

func TestService_NowPlayingLoadsWithDefaults(t *testing.T) {
	s, _, _ := newTestService(t, false)
	if _, err := s.PlayAlbum(context.Background(), "Blue Train", "Locomotion"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		np, ok := s.NowPlaying()
		if ok && np.Album == "Blue Train" {
			if np.Title != music.UnknownTitle || np.Artist != "Coltrane" {
				t.Errorf("unexpected now playing %+v", np)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected metadata to load")
}

func waitForReads(t *testing.T, reads *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reads.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d metadata reads, got %d", want, reads.Load())
}

func waitForAlbum(t *testing.T, s *Service, album string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if np, ok := s.NowPlaying(); ok && np.Album == album {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected now playing album %q", album)
}

func TestService_RestartReloadsMetadata(t *testing.T) {
	reads := &atomic.Int64{}
	s, engine, _ := newTestServiceWithReader(t, false, albumReader{reads: reads})
	ctx := context.Background()

	if _, err := s.PlayAlbum(ctx, "Blue Train", "Blue Train"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	waitForAlbum(t, s, "Blue Train")
	before := reads.Load()

	status, err := s.Previous(ctx)
	if err != nil || status != StatusRestarted {
		t.Fatalf("expected restart, got %s %v", status, err)
	}
	waitForReads(t, reads, before+1)
	if engine.builds() != 2 {
		t.Errorf("expected restart to rebuild, got %d builds", engine.builds())
	}
	np, ok := s.NowPlaying()
	if !ok || np.Path != s.State().Path {
		t.Errorf("expected now playing for the restarted track, got %+v", np)
	}
}
