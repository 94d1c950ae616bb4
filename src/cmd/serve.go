package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contre95/bandpass/src/features/hosting"
	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/features/metrics"
	"github.com/contre95/bandpass/src/features/playback"
	"github.com/contre95/bandpass/src/infra/artwork"
	"github.com/contre95/bandpass/src/infra/audio"
	"github.com/contre95/bandpass/src/infra/watcher"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Scan the library and start the HTTP API, audio engine and Telegram bot",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgManager, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := cfgManager.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	libraryService, closeCache := newLibrary(cfgManager, m)
	defer closeCache()
	if err := libraryService.Refresh(ctx); err != nil {
		slog.Error("Initial library scan failed", "error", err)
	}
	stats := libraryService.Stats()
	slog.Info("Library ready", "tracks", stats.Tracks, "artists", stats.Artists, "albums", stats.Albums)

	equalizerService := newEqualizer(ctx, cfgManager)

	engine, err := audio.NewEngine(cfgManager, m)
	if err != nil {
		return fmt.Errorf("failed to start audio engine: %w", err)
	}
	defer engine.Close()

	controller := playback.NewController(engine, equalizerService, m)
	playbackService := playback.NewService(libraryService, controller, playback.NewQueue(), cfgManager)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		playbackService.Stop(stopCtx)
	}()

	if cfg.Library.Watch {
		events := make(chan library.FileEvent, 16)
		w, err := watcher.NewWatcher(events, time.Duration(cfg.Library.DebounceMs)*time.Millisecond)
		if err != nil {
			slog.Error("Failed to create file watcher", "error", err)
		} else if err := libraryService.Watch(ctx, w, events); err != nil {
			slog.Error("Failed to watch library", "error", err)
		}
	}

	var telegramBot *hosting.TelegramBot
	if cfg.Telegram.Enabled {
		telegramBot, err = hosting.NewTelegramBot(cfgManager, libraryService, equalizerService, playbackService)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			go telegramBot.Start()
			slog.Info("Telegram bot started")
		}
	}

	server := hosting.NewServer(cfgManager, libraryService, artwork.NewService(cfgManager), equalizerService, playbackService, m)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfg.Server.Port)

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("Server stopped", "error", err)
		}
	case <-ctx.Done():
	}
	slog.Info("Shutting down server...")

	if telegramBot != nil {
		telegramBot.Stop()
		slog.Info("Telegram bot stopped")
	}
	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	slog.Info("Server gracefully shut down.")
	return nil
}
