package library

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/contre95/bandpass/src/music"
)

// ScanDirectory walks root recursively and returns every supported audio file in
// lexical walk order. Hidden entries are skipped. Unreadable entries are logged and
// skipped. A missing root is created.
func ScanDirectory(ctx context.Context, root string) ([]music.Track, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create music directory %s: %w", root, err)
	}

	var tracks []music.Track
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Warn("Skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !music.IsSupportedFile(path) {
			return nil
		}

		track := music.NewTrack(path)
		if info, err := d.Info(); err == nil {
			track.Size = info.Size()
			track.ModTime = info.ModTime()
		} else {
			slog.Warn("Failed to stat file", "path", path, "error", err)
		}
		tracks = append(tracks, track)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}
