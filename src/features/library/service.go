package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/metrics"
	"github.com/contre95/bandpass/src/music"
)

// Service is the library index. It owns the published snapshot and is the only
// writer of it.
type Service struct {
	reader        music.MetadataReader
	cache         music.MetadataCache
	configManager *config.Manager
	metrics       *metrics.Metrics

	mu    sync.RWMutex
	index *Index

	subMu       sync.Mutex
	subscribers map[chan Event]struct{}
}

// Stats summarises the published snapshot.
type Stats struct {
	Tracks  int `json:"tracks"`
	Artists int `json:"artists"`
	Albums  int `json:"albums"`
}

// NewService creates a new library service. cache and m may be nil.
func NewService(reader music.MetadataReader, cache music.MetadataCache, cfgManager *config.Manager, m *metrics.Metrics) *Service {
	return &Service{
		reader:        reader,
		cache:         cache,
		configManager: cfgManager,
		metrics:       m,
		index:         emptyIndex(),
		subscribers:   make(map[chan Event]struct{}),
	}
}

// Root returns the configured music directory.
func (s *Service) Root() string {
	return s.configManager.Get().LibraryPath
}

// Rescan enumerates the music directory and publishes the new file list.
func (s *Service) Rescan(ctx context.Context) ([]music.Track, error) {
	start := time.Now()
	root := s.Root()
	slog.Debug("Rescan started", "root", root)

	tracks, err := ScanDirectory(ctx, root)
	if err != nil {
		slog.Error("Rescan failed", "root", root, "error", err)
		return nil, err
	}

	s.publish(func(idx *Index) {
		idx.Tracks = tracks
	})
	s.metrics.ObserveScan(time.Since(start), len(tracks))
	if s.cache != nil {
		paths := make([]string, len(tracks))
		for i, t := range tracks {
			paths[i] = t.Path
		}
		if n, err := s.cache.Prune(ctx, paths); err != nil {
			slog.Warn("Failed to prune metadata cache", "error", err)
		} else if n > 0 {
			slog.Debug("Pruned metadata cache", "removed", n)
		}
	}
	slog.Info("Library scanned", "root", root, "tracks", len(tracks), "duration", time.Since(start).String())
	s.notify(Event{Type: EventScanned, Tracks: len(tracks), Timestamp: time.Now()})
	return slices.Clone(tracks), nil
}

// IndexByArtist resolves artist and title for every track and publishes the
// artist -> titles and artist -> albums mappings.
func (s *Service) IndexByArtist(ctx context.Context) (map[string][]string, error) {
	tracks := s.Tracks()
	mds, err := s.readAll(ctx, tracks)
	if err != nil {
		return nil, err
	}

	byArtist := make(map[string][]string)
	artistAlbums := make(map[string][]string)
	for _, t := range tracks {
		md := mds[t.Path]
		artist := resolve(md.Artist, music.UnknownArtist)
		title := resolve(md.Title, t.Title)
		album := resolve(md.Album, music.UnknownAlbum)

		byArtist[artist] = append(byArtist[artist], title)
		if !slices.Contains(artistAlbums[artist], album) {
			artistAlbums[artist] = append(artistAlbums[artist], album)
		}
	}

	s.publish(func(idx *Index) {
		idx.ByArtist = byArtist
		idx.ArtistAlbums = artistAlbums
	})
	s.metrics.IndexBuilt("artist")
	slog.Debug("Artist index built", "artists", len(byArtist))
	s.notify(Event{Type: EventArtistsIndexed, Tracks: len(tracks), Timestamp: time.Now()})
	return copyMapping(byArtist), nil
}

// IndexByAlbum publishes the album -> titles mapping in album order together with
// the artwork cache. With a scope only that album is rebuilt; other albums keep
// their published entries.
func (s *Service) IndexByAlbum(ctx context.Context, scope *string) (map[string][]string, error) {
	tracks := music.SortByNumericPrefix(s.Tracks())
	mds, err := s.readAll(ctx, tracks)
	if err != nil {
		return nil, err
	}

	byAlbum := make(map[string][]string)
	artwork := make(map[string][]byte)
	for _, t := range tracks {
		md := mds[t.Path]
		album := resolve(md.Album, music.UnknownAlbum)
		if scope != nil && album != *scope {
			continue
		}
		byAlbum[album] = append(byAlbum[album], resolve(md.Title, t.Title))
		if md.HasArtwork() {
			artwork[album] = md.Artwork
		}
	}

	s.publish(func(idx *Index) {
		if scope == nil {
			idx.ByAlbum = byAlbum
			idx.Artwork = artwork
			return
		}
		merged := copyMapping(idx.ByAlbum)
		mergedArt := make(map[string][]byte, len(idx.Artwork))
		for k, v := range idx.Artwork {
			mergedArt[k] = v
		}
		delete(merged, *scope)
		delete(mergedArt, *scope)
		if titles, ok := byAlbum[*scope]; ok {
			merged[*scope] = titles
		}
		if art, ok := artwork[*scope]; ok {
			mergedArt[*scope] = art
		}
		idx.ByAlbum = merged
		idx.Artwork = mergedArt
	})
	s.metrics.IndexBuilt("album")
	slog.Debug("Album index built", "albums", len(byAlbum), "scoped", scope != nil)
	s.notify(Event{Type: EventAlbumsIndexed, Tracks: len(tracks), Timestamp: time.Now()})
	return copyMapping(byAlbum), nil
}

// Refresh rescans the folder and rebuilds both mappings.
func (s *Service) Refresh(ctx context.Context) error {
	if _, err := s.Rescan(ctx); err != nil {
		return err
	}
	if _, err := s.IndexByArtist(ctx); err != nil {
		return err
	}
	_, err := s.IndexByAlbum(ctx, nil)
	return err
}

// Metadata reads the metadata of a single file and applies defaults.
func (s *Service) Metadata(ctx context.Context, track music.Track) *music.TrackMetadata {
	md := s.readOne(ctx, track)
	out := *md
	out.EnsureMetadataDefaults()
	return &out
}

// Snapshot returns the currently published index.
func (s *Service) Snapshot() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Tracks returns the scanned files in walk order.
func (s *Service) Tracks() []music.Track {
	return slices.Clone(s.Snapshot().Tracks)
}

// AllTracks returns every track once by file name, sorted case-insensitively by title.
func (s *Service) AllTracks() []music.Track {
	seen := make(map[string]bool)
	var unique []music.Track
	for _, t := range s.Snapshot().Tracks {
		if seen[t.FileName] {
			continue
		}
		seen[t.FileName] = true
		unique = append(unique, t)
	}
	return music.SortByTitle(unique)
}

// Artists returns the indexed artist names in sorted order.
func (s *Service) Artists() []string {
	return sortedKeys(s.Snapshot().ByArtist)
}

// Albums returns the indexed album names in sorted order.
func (s *Service) Albums() []string {
	return sortedKeys(s.Snapshot().ByAlbum)
}

// ArtistTitles returns the titles indexed under an artist.
func (s *Service) ArtistTitles(artist string) []string {
	return slices.Clone(s.Snapshot().ByArtist[artist])
}

// AlbumTitles returns the titles of an album in album order.
func (s *Service) AlbumTitles(album string) []string {
	return slices.Clone(s.Snapshot().ByAlbum[album])
}

// AlbumsOfArtist returns the distinct albums of an artist in first seen order.
func (s *Service) AlbumsOfArtist(artist string) []string {
	return slices.Clone(s.Snapshot().ArtistAlbums[artist])
}

// ArtworkFor returns the cached artwork of an album.
func (s *Service) ArtworkFor(album string) ([]byte, bool) {
	art, ok := s.Snapshot().Artwork[album]
	return art, ok
}

// AlbumTracks resolves the titles of an album back to files, skipping titles
// without a matching file.
func (s *Service) AlbumTracks(album string) []music.Track {
	var out []music.Track
	for _, title := range s.AlbumTitles(album) {
		if t, ok := s.ResolveTitle(title); ok {
			out = append(out, t)
		}
	}
	return out
}

// ResolveTitle returns the first file whose stripped title equals title.
func (s *Service) ResolveTitle(title string) (music.Track, bool) {
	return FindByTitle(s.Snapshot().Tracks, title)
}

// FindByPath returns the scanned track with the given path.
func (s *Service) FindByPath(path string) (music.Track, bool) {
	for _, t := range s.Snapshot().Tracks {
		if t.Path == path {
			return t, true
		}
	}
	return music.Track{}, false
}

// Stats returns counts of the published snapshot.
func (s *Service) Stats() Stats {
	idx := s.Snapshot()
	return Stats{Tracks: len(idx.Tracks), Artists: len(idx.ByArtist), Albums: len(idx.ByAlbum)}
}

// FindByTitle returns the first track whose stripped title equals the normalized title.
func FindByTitle(tracks []music.Track, title string) (music.Track, bool) {
	want := music.NormalizeTitle(title)
	for _, t := range tracks {
		if t.Title == want {
			return t, true
		}
	}
	return music.Track{}, false
}

func (s *Service) publish(update func(idx *Index)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.index.clone()
	update(next)
	s.index = next
}

func (s *Service) workers() int {
	if n := s.configManager.Get().Library.ScanWorkers; n > 0 {
		return n
	}
	return 1
}

// readAll reads metadata for all tracks concurrently. Results are merged into a
// local map and returned only when every read has finished.
func (s *Service) readAll(ctx context.Context, tracks []music.Track) (map[string]*music.TrackMetadata, error) {
	results := make(map[string]*music.TrackMetadata, len(tracks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.workers())

	for _, t := range tracks {
		wg.Add(1)
		go func(t music.Track) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			md := s.readOne(ctx, t)
			mu.Lock()
			results[t.Path] = md
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// readOne never fails: errors are logged and an empty metadata value is returned.
func (s *Service) readOne(ctx context.Context, t music.Track) *music.TrackMetadata {
	if ctx.Err() != nil {
		return &music.TrackMetadata{}
	}
	useCache := s.cache != nil && !t.ModTime.IsZero()
	if useCache {
		md, ok, err := s.cache.GetMetadata(ctx, t.Path, t.ModTime)
		if err != nil {
			slog.Warn("Metadata cache lookup failed", "path", t.Path, "error", err)
		} else if ok {
			return md
		}
	}

	md, err := s.reader.ReadMetadata(ctx, t.Path)
	if err != nil || md == nil {
		slog.Warn("Failed to read metadata, using defaults", "path", t.Path, "error", err)
		s.metrics.MetadataError()
		return &music.TrackMetadata{}
	}
	if useCache {
		if err := s.cache.PutMetadata(ctx, t.Path, t.ModTime, md); err != nil {
			slog.Warn("Failed to store metadata in cache", "path", t.Path, "error", err)
		}
	}
	return md
}

// Subscribe returns a channel that receives library events.
func (s *Service) Subscribe() chan Event {
	ch := make(chan Event, subscriberBufferSize)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Service) Unsubscribe(ch chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Service) notify(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			slog.Debug("Library subscriber is slow, dropping event", "type", ev.Type)
		}
	}
}

// Watch starts w on the music directory and refreshes the index for every
// debounced change received on events. It returns when ctx is done.
func (s *Service) Watch(ctx context.Context, w Watcher, events <-chan FileEvent) error {
	if err := w.Start(ctx, s.Root()); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	go func() {
		defer w.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				slog.Info("Library change detected", "path", ev.Path, "type", ev.EventType)
				if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
					slog.Error("Failed to refresh library after change", "error", err)
				}
			}
		}
	}()
	return nil
}
