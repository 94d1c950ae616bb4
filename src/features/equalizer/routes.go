package equalizer

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the equalizer feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	eqGroup := app.Group("/eq")
	eqGroup.Get("/filters", handler.GetFilters)
	eqGroup.Post("/filters", handler.PostFilter)
	eqGroup.Put("/filters/:id", handler.PutFilter)
	eqGroup.Delete("/filters/:id", handler.DeleteFilter)
	eqGroup.Post("/save", handler.PostSave)
	eqGroup.Post("/load", handler.PostLoad)
	eqGroup.Get("/plan", handler.GetPlan)
}
