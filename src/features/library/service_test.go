package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/music"
)

// mockReader returns metadata keyed by file name.
type mockReader struct {
	mu    sync.Mutex
	data  map[string]*music.TrackMetadata
	fail  map[string]bool
	calls int
}

func (m *mockReader) ReadMetadata(ctx context.Context, path string) (*music.TrackMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	name := filepath.Base(path)
	if m.fail[name] {
		return nil, errors.New("corrupt tag")
	}
	md, ok := m.data[name]
	if !ok {
		return &music.TrackMetadata{}, nil
	}
	out := *md
	return &out, nil
}

// mockCache is an in-memory MetadataCache.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]*music.TrackMetadata
	pruned  []string
}

func (c *mockCache) GetMetadata(ctx context.Context, path string, modTime time.Time) (*music.TrackMetadata, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	md, ok := c.entries[path]
	return md, ok, nil
}

func (c *mockCache) PutMetadata(ctx context.Context, path string, modTime time.Time, md *music.TrackMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = md
	return nil
}

func (c *mockCache) Prune(ctx context.Context, keep []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruned = keep
	return 0, nil
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestService(t *testing.T, root string, reader music.MetadataReader, cache music.MetadataCache) *Service {
	t.Helper()
	cfg := &config.Config{LibraryPath: root}
	cfg.Library.ScanWorkers = 4
	return NewService(reader, cache, config.NewManager(cfg), nil)
}

func TestScanDirectory_FiltersAndSkipsHidden(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"a.mp3", "b.FLAC", "c.wav", "d.m4a", "e.alac",
		"notes.txt", ".hidden.mp3", ".secret/f.mp3", "sub/g.mp3",
	)

	tracks, err := ScanDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got := map[string]bool{}
	for _, tr := range tracks {
		got[tr.FileName] = true
	}
	for _, want := range []string{"a.mp3", "b.FLAC", "c.wav", "d.m4a", "e.alac", "g.mp3"} {
		if !got[want] {
			t.Errorf("expected %s to be scanned", want)
		}
	}
	for _, unwanted := range []string{"notes.txt", ".hidden.mp3", "f.mp3"} {
		if got[unwanted] {
			t.Errorf("expected %s to be skipped", unwanted)
		}
	}
}

func TestScanDirectory_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing", "music")
	tracks, err := ScanDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no tracks, got %d", len(tracks))
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("expected root to be created, got %v", err)
	}
}

func TestIndexByAlbum_OrdersByNumericPrefix(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "10. Ten.mp3", "2. Two.mp3", "Bonus.mp3", "1. One.mp3")
	reader := &mockReader{data: map[string]*music.TrackMetadata{
		"10. Ten.mp3": {Album: "Numbers"},
		"2. Two.mp3":  {Album: "Numbers"},
		"Bonus.mp3":   {Album: "Numbers"},
		"1. One.mp3":  {Album: "Numbers"},
	}}
	s := newTestService(t, root, reader, nil)
	ctx := context.Background()
	if _, err := s.Rescan(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	byAlbum, err := s.IndexByAlbum(ctx, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"One", "Two", "Ten", "Bonus"}
	got := byAlbum["Numbers"]
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	tracks := s.AlbumTracks("Numbers")
	if len(tracks) != 4 || tracks[0].FileName != "1. One.mp3" {
		t.Errorf("expected album tracks resolved in order, got %v", tracks)
	}
}

func TestIndexByAlbum_DefaultBucketAndArtwork(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "1. A.mp3", "2. B.mp3", "3. C.mp3", "loose.mp3")
	reader := &mockReader{
		data: map[string]*music.TrackMetadata{
			"1. A.mp3": {Album: "Kind of Blue", Artwork: []byte("first")},
			"2. B.mp3": {Album: "Kind of Blue"},
			"3. C.mp3": {Album: "Kind of Blue", Artwork: []byte("last")},
		},
		fail: map[string]bool{"loose.mp3": true},
	}
	s := newTestService(t, root, reader, nil)
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if titles := s.AlbumTitles(music.UnknownAlbum); len(titles) != 1 || titles[0] != "loose" {
		t.Errorf("expected loose track in Unknown Album, got %v", titles)
	}
	art, ok := s.ArtworkFor("Kind of Blue")
	if !ok || string(art) != "last" {
		t.Errorf("expected last artwork to win, got %q", art)
	}
	if _, ok := s.ArtworkFor(music.UnknownAlbum); ok {
		t.Error("expected no artwork for Unknown Album")
	}
}

func TestIndexByAlbum_ScopeKeepsOtherAlbums(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "1. A.mp3", "1. X.mp3")
	reader := &mockReader{data: map[string]*music.TrackMetadata{
		"1. A.mp3": {Album: "First"},
		"1. X.mp3": {Album: "Second"},
	}}
	s := newTestService(t, root, reader, nil)
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	scope := "First"
	mapping, err := s.IndexByAlbum(ctx, &scope)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mapping) != 1 || len(mapping["First"]) != 1 {
		t.Errorf("expected only the scoped album, got %v", mapping)
	}
	if titles := s.AlbumTitles("Second"); len(titles) != 1 {
		t.Errorf("expected other albums to survive a scoped rebuild, got %v", titles)
	}
}

func TestIndexByArtist_DefaultsAndAlbums(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mp3", "b.mp3", "c.mp3", "d.mp3")
	reader := &mockReader{data: map[string]*music.TrackMetadata{
		"a.mp3": {Artist: "Miles", Album: "Kind of Blue", Title: "So What"},
		"b.mp3": {Artist: "Miles", Album: "Kind of Blue"},
		"c.mp3": {Artist: "Miles", Album: "Bitches Brew"},
	}}
	s := newTestService(t, root, reader, nil)
	ctx := context.Background()
	if _, err := s.Rescan(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	byArtist, err := s.IndexByArtist(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	miles := byArtist["Miles"]
	if len(miles) != 3 || miles[0] != "So What" || miles[1] != "b" {
		t.Errorf("unexpected titles for Miles: %v", miles)
	}
	if unknown := byArtist[music.UnknownArtist]; len(unknown) != 1 || unknown[0] != "d" {
		t.Errorf("expected d under Unknown Artist, got %v", unknown)
	}
	albums := s.AlbumsOfArtist("Miles")
	if len(albums) != 2 || albums[0] != "Kind of Blue" || albums[1] != "Bitches Brew" {
		t.Errorf("expected distinct albums in first seen order, got %v", albums)
	}
}

func TestAllTracks_DedupesAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.mp3", "x/a.mp3", "y/a.mp3", "C.mp3")
	s := newTestService(t, root, &mockReader{}, nil)
	if _, err := s.Rescan(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	all := s.AllTracks()
	want := []string{"a", "b", "C"}
	if len(all) != len(want) {
		t.Fatalf("expected %d tracks, got %d", len(want), len(all))
	}
	for i := range want {
		if all[i].Title != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], all[i].Title)
		}
	}
}

func TestMetadataCache_UsedOnSecondRead(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mp3")
	reader := &mockReader{data: map[string]*music.TrackMetadata{"a.mp3": {Artist: "Cached"}}}
	cache := &mockCache{entries: map[string]*music.TrackMetadata{}}
	s := newTestService(t, root, reader, cache)
	ctx := context.Background()
	if _, err := s.Rescan(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := s.IndexByArtist(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := s.IndexByArtist(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reader.calls != 1 {
		t.Errorf("expected 1 reader call, got %d", reader.calls)
	}
	if len(cache.pruned) != 1 {
		t.Errorf("expected prune with 1 kept path, got %v", cache.pruned)
	}
}

func TestMetadata_AppliesDefaults(t *testing.T) {
	s := newTestService(t, t.TempDir(), &mockReader{fail: map[string]bool{"x.mp3": true}}, nil)
	md := s.Metadata(context.Background(), music.NewTrack("/music/x.mp3"))
	if md.Title != music.UnknownTitle || md.Artist != music.UnknownArtist || md.Album != music.UnknownAlbum {
		t.Errorf("expected defaults, got %+v", md)
	}
}

func TestSubscribe_ReceivesEventsAndDropsWhenFull(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mp3")
	s := newTestService(t, root, &mockReader{}, nil)
	ch := s.Subscribe()
	ctx := context.Background()

	for i := 0; i < subscriberBufferSize+5; i++ {
		if _, err := s.Rescan(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if len(ch) != subscriberBufferSize {
		t.Errorf("expected %d buffered events, got %d", subscriberBufferSize, len(ch))
	}
	ev := <-ch
	if ev.Type != EventScanned || ev.Tracks != 1 {
		t.Errorf("unexpected event %+v", ev)
	}

	s.Unsubscribe(ch)
	for range ch {
	}
	s.Unsubscribe(ch)
}

func TestSnapshot_ReadersSeeWholeIndex(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "1. A.mp3")
	s := newTestService(t, root, &mockReader{}, nil)
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	before := s.Snapshot()
	writeFiles(t, root, "2. B.mp3")
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(before.Tracks) != 1 || len(before.ByAlbum[music.UnknownAlbum]) != 1 {
		t.Error("expected an earlier snapshot to stay unchanged")
	}
	if got := len(s.Snapshot().ByAlbum[music.UnknownAlbum]); got != 2 {
		t.Errorf("expected 2 titles after refresh, got %d", got)
	}
}

func TestRefresh_UnchangedTreeIsReproducible(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"1. So What.mp3", "2. Freddie Freeloader.mp3", "3. Blue in Green.flac",
		"b/01. Giant Steps.mp3", "b/02. Cousin Mary.wav", "b/10. Naima.m4a",
		"c/Untitled.alac", "c/2. Peace Piece.mp3",
	)
	reader := &mockReader{data: map[string]*music.TrackMetadata{
		"1. So What.mp3":            {Artist: "Miles Davis", Album: "Kind of Blue", Artwork: []byte("kob-1")},
		"2. Freddie Freeloader.mp3": {Artist: "Miles Davis", Album: "Kind of Blue"},
		"3. Blue in Green.flac":     {Artist: "Bill Evans", Album: "Kind of Blue", Artwork: []byte("kob-3")},
		"01. Giant Steps.mp3":       {Artist: "John Coltrane", Album: "Giant Steps", Artwork: []byte("gs")},
		"02. Cousin Mary.wav":       {Artist: "John Coltrane", Album: "Giant Steps"},
		"10. Naima.m4a":             {Artist: "John Coltrane", Album: "Giant Steps"},
		"2. Peace Piece.mp3":        {Artist: "Bill Evans"},
	}}
	s := newTestService(t, root, reader, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	first := s.Snapshot()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second := s.Snapshot()

	if first == second {
		t.Fatal("expected a new snapshot to be published")
	}
	paths := func(idx *Index) []string {
		out := make([]string, len(idx.Tracks))
		for i, tr := range idx.Tracks {
			out[i] = tr.Path
		}
		return out
	}
	if !reflect.DeepEqual(paths(first), paths(second)) {
		t.Errorf("expected same tracks, got %v and %v", paths(first), paths(second))
	}
	if !reflect.DeepEqual(first.ByArtist, second.ByArtist) {
		t.Errorf("expected same artist index, got %v and %v", first.ByArtist, second.ByArtist)
	}
	if !reflect.DeepEqual(first.ByAlbum, second.ByAlbum) {
		t.Errorf("expected same album index, got %v and %v", first.ByAlbum, second.ByAlbum)
	}
	if !reflect.DeepEqual(first.ArtistAlbums, second.ArtistAlbums) {
		t.Errorf("expected same artist albums, got %v and %v", first.ArtistAlbums, second.ArtistAlbums)
	}
	if !reflect.DeepEqual(first.Artwork, second.Artwork) {
		t.Errorf("expected same artwork, got %v and %v", first.Artwork, second.Artwork)
	}
	if len(first.ByAlbum) != 3 {
		t.Errorf("expected 3 albums including Unknown Album, got %v", first.ByAlbum)
	}
}
