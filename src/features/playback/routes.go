package playback

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the playback routes
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	playback := app.Group("/playback")
	playback.Get("/state", handler.GetState)
	playback.Post("/play", handler.PostPlay)
	playback.Post("/toggle", handler.PostToggle)
	playback.Post("/next", handler.PostNext)
	playback.Post("/previous", handler.PostPrevious)
	playback.Post("/stop", handler.PostStop)
}
