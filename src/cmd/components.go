package cmd

import (
	"context"
	"log/slog"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/equalizer"
	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/features/metrics"
	"github.com/contre95/bandpass/src/infra/database"
	"github.com/contre95/bandpass/src/infra/profile"
	"github.com/contre95/bandpass/src/infra/tag"
	"github.com/contre95/bandpass/src/music"
)

// newLibrary wires the library service to the tag reader and, when enabled, the
// sqlite metadata cache. The returned func closes the cache.
func newLibrary(cfgManager *config.Manager, m *metrics.Metrics) (*library.Service, func()) {
	var cache music.MetadataCache
	closeCache := func() {}
	if cfgManager.Get().Library.CacheMetadata {
		db, err := database.NewSqliteCache(cfgManager.Get().Database.Path)
		if err != nil {
			slog.Error("Failed to open metadata cache, continuing without it", "error", err)
		} else {
			cache = db
			closeCache = func() {
				if err := db.Close(); err != nil {
					slog.Warn("Failed to close metadata cache", "error", err)
				}
			}
		}
	}
	return library.NewService(tag.NewTagReader(), cache, cfgManager, m), closeCache
}

// newEqualizer loads the persisted profile into a new equalizer service.
func newEqualizer(ctx context.Context, cfgManager *config.Manager) *equalizer.Service {
	svc := equalizer.NewService(profile.NewFileStore(cfgManager.Get().Equalizer.ProfilePath))
	svc.Load(ctx)
	return svc
}
