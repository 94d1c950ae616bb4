package config

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the config feature.
type Handler struct {
	configManager *Manager
}

// NewHandler creates a new handler for the config feature.
func NewHandler(configManager *Manager) *Handler {
	return &Handler{
		configManager: configManager,
	}
}

// GetConfig returns the current configuration in the requested format.
func (h *Handler) GetConfig(c *fiber.Ctx) error {
	format := c.Query("fmt", "json")
	slog.Debug("GetConfig handler called", "format", format)

	switch format {
	case "yaml":
		c.Set("Content-Type", "text/yaml")
		return c.SendString(h.configManager.GetYAML())
	case "json":
		c.Set("Content-Type", "application/json")
		return c.SendString(h.configManager.GetJSON())
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid format, use 'json' or 'yaml'")
	}
}

// PlaybackRequest is the body of PATCH /config/playback.
type PlaybackRequest struct {
	AutoAdvance *bool `json:"auto_advance"`
}

// PatchPlayback changes playback settings at runtime and writes them back to the config file.
func (h *Handler) PatchPlayback(c *fiber.Ctx) error {
	var req PlaybackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.AutoAdvance == nil {
		return fiber.NewError(fiber.StatusBadRequest, "auto_advance is required")
	}
	updated, err := h.configManager.SetAutoAdvance(*req.AutoAdvance)
	if err != nil {
		return err
	}
	slog.Info("Playback settings updated", "auto_advance", updated.Playback.AutoAdvance)
	return c.JSON(updated.Playback)
}
