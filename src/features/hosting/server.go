package hosting

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/equalizer"
	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/features/metrics"
	"github.com/contre95/bandpass/src/features/playback"
	"github.com/gofiber/fiber/v2"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// errorHandler renders every error as {"error": "..."} and keeps fiber's status codes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("Internal Server Error", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, libraryService *library.Service, thumbnailer library.Thumbnailer, equalizerService *equalizer.Service, playbackService *playback.Service, m *metrics.Metrics) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		AppName:               "Bandpass",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	config.RegisterRoutes(app, cfg)
	library.RegisterRoutes(app, libraryService, thumbnailer)
	equalizer.RegisterRoutes(app, equalizerService)
	playback.RegisterRoutes(app, playbackService)
	if cfg.Get().Metrics.Enabled && m != nil {
		metrics.RegisterRoutes(app, m)
	}

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
