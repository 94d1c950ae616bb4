package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/music"
	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the music folder recursively and emits one debounced event per burst
// of changes to audio files or directories.
type Watcher struct {
	watcher       *fsnotify.Watcher
	watchPath     string
	debounce      time.Duration
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
	pending       library.FileEvent
	runMutex      sync.Mutex
	running       bool
	stopChan      chan struct{}
	eventChan     chan<- library.FileEvent
}

// NewWatcher creates a new file system watcher
func NewWatcher(eventChan chan<- library.FileEvent, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:   watcher,
		debounce:  debounce,
		eventChan: eventChan,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start watches watchPath and every directory below it.
func (w *Watcher) Start(ctx context.Context, watchPath string) error {
	w.watchPath = watchPath
	slog.Info("Starting file watcher", "path", watchPath, "debounce", w.debounce)

	if err := w.addTree(watchPath); err != nil {
		return err
	}

	w.runMutex.Lock()
	w.running = true
	w.runMutex.Unlock()

	go w.watchLoop(ctx)

	slog.Info("File watcher started successfully", "directories", len(w.watcher.WatchList()))
	return nil
}

// Stop stops the file watcher
func (w *Watcher) Stop() {
	w.runMutex.Lock()
	if !w.running {
		w.runMutex.Unlock()
		return
	}
	w.running = false
	w.runMutex.Unlock()

	slog.Info("Stopping file watcher")
	close(w.stopChan)

	w.debounceMutex.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMutex.Unlock()

	w.watcher.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			slog.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// watchLoop processes file system events
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent classifies a raw event and schedules a debounced emission.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	isDir := false
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			isDir = true
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	// Removed or renamed entries can no longer be stat'ed, so anything without an audio
	// extension is treated as a possible directory.
	relevant := isDir || music.IsSupportedFile(event.Name) ||
		((event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && filepath.Ext(event.Name) == "")
	if !relevant {
		return
	}

	eventType, ok := classify(event)
	if !ok {
		return
	}
	slog.Debug("Detected library change", "file", event.Name, "type", eventType)

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()

	w.pending = library.FileEvent{Path: event.Name, EventType: eventType, Timestamp: time.Now()}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.emitDebounceEvent)
}

func classify(event fsnotify.Event) (library.FileEventType, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return library.FileCreated, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return library.FileRemoved, true
	case event.Has(fsnotify.Write):
		return library.FileModified, true
	}
	return "", false
}

// emitDebounceEvent emits the last change seen once the burst has settled.
func (w *Watcher) emitDebounceEvent() {
	w.debounceMutex.Lock()
	event := w.pending
	w.debounceTimer = nil
	w.debounceMutex.Unlock()

	select {
	case w.eventChan <- event:
		slog.Info("Emitted file event after debounce", "path", event.Path, "type", event.EventType)
	default:
		slog.Warn("Event channel full, dropping file event", "path", event.Path)
	}
}
