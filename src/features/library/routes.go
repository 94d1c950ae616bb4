package library

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the library feature.
func RegisterRoutes(app *fiber.App, service *Service, thumbnailer Thumbnailer) {
	handler := NewHandler(service, thumbnailer)

	libraryGroup := app.Group("/library")
	libraryGroup.Post("/scan", handler.PostScan)
	libraryGroup.Get("/tracks", handler.GetTracks)
	libraryGroup.Get("/stats", handler.GetStats)
	libraryGroup.Get("/artists", handler.GetArtists)
	libraryGroup.Get("/artists/:artist/tracks", handler.GetArtistTracks)
	libraryGroup.Get("/artists/:artist/albums", handler.GetArtistAlbums)
	libraryGroup.Get("/albums", handler.GetAlbums)
	libraryGroup.Get("/albums/:album/tracks", handler.GetAlbumTracks)
	libraryGroup.Get("/albums/:album/artwork", handler.GetAlbumArtwork)
}
