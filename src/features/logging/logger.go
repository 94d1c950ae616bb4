package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/contre95/bandpass/src/features/config"
)

// SetupLogger builds the process logger from the logger section of the config.
func SetupLogger(cfg *config.Manager) *slog.Logger {
	return NewLogger(os.Stderr, cfg.Get().Logger)
}

// NewLogger returns a slog.Logger backed by a charmbracelet handler writing to w.
func NewLogger(w io.Writer, opts config.Logger) *slog.Logger {
	var formatter log.Formatter
	switch opts.Format {
	case "json":
		formatter = log.JSONFormatter
	case "text":
		formatter = log.TextFormatter
	default:
		formatter = log.LogfmtFormatter
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "Bandpass",
		Formatter:       formatter,
		Level:           parseLevel(opts.Level),
	})
	return slog.New(handler)
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
