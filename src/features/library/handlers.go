package library

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/contre95/bandpass/src/music"
	"github.com/gofiber/fiber/v2"
)

// Thumbnailer scales album artwork for clients.
type Thumbnailer interface {
	Thumbnail(data []byte, size int) ([]byte, error)
}

// Handler is the HTTP handler for the library feature.
type Handler struct {
	service     *Service
	thumbnailer Thumbnailer
}

// NewHandler creates a new library handler. thumbnailer may be nil, in which case
// artwork is served unscaled.
func NewHandler(service *Service, thumbnailer Thumbnailer) *Handler {
	return &Handler{service: service, thumbnailer: thumbnailer}
}

// TrackView is the JSON shape of a track.
type TrackView struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	FileName string `json:"file_name"`
	Title    string `json:"title"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
}

// ToTrackViews converts tracks to their JSON shape.
func ToTrackViews(tracks []music.Track) []TrackView {
	views := make([]TrackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, TrackView{
			ID:       t.ID,
			Path:     t.Path,
			FileName: t.FileName,
			Title:    t.Title,
			Format:   t.Format,
			Size:     t.Size,
		})
	}
	return views
}

func param(c *fiber.Ctx, name string) string {
	value, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return c.Params(name)
	}
	return value
}

// PostScan rescans the music directory and rebuilds the index.
func (h *Handler) PostScan(c *fiber.Ctx) error {
	slog.Info("Library scan requested over HTTP")
	if err := h.service.Refresh(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(h.service.Stats())
}

// GetTracks returns every track once, sorted by title.
func (h *Handler) GetTracks(c *fiber.Ctx) error {
	return c.JSON(ToTrackViews(h.service.AllTracks()))
}

// GetArtists returns the indexed artists.
func (h *Handler) GetArtists(c *fiber.Ctx) error {
	return c.JSON(h.service.Artists())
}

// GetArtistTracks returns the titles indexed under an artist.
func (h *Handler) GetArtistTracks(c *fiber.Ctx) error {
	artist := param(c, "artist")
	titles := h.service.ArtistTitles(artist)
	if titles == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "artist not found"})
	}
	return c.JSON(fiber.Map{"artist": artist, "titles": titles})
}

// GetArtistAlbums returns the albums of an artist in first seen order.
func (h *Handler) GetArtistAlbums(c *fiber.Ctx) error {
	artist := param(c, "artist")
	albums := h.service.AlbumsOfArtist(artist)
	if albums == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "artist not found"})
	}
	return c.JSON(fiber.Map{"artist": artist, "albums": albums})
}

// GetAlbums returns the indexed albums.
func (h *Handler) GetAlbums(c *fiber.Ctx) error {
	return c.JSON(h.service.Albums())
}

// GetAlbumTracks returns the titles of an album in album order together with the
// files they resolve to. With ?refresh=true only that album is re-indexed first.
func (h *Handler) GetAlbumTracks(c *fiber.Ctx) error {
	album := param(c, "album")
	if c.QueryBool("refresh") {
		if _, err := h.service.IndexByAlbum(c.UserContext(), &album); err != nil {
			return err
		}
	}
	titles := h.service.AlbumTitles(album)
	if titles == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "album not found"})
	}
	_, hasArtwork := h.service.ArtworkFor(album)
	return c.JSON(fiber.Map{
		"album":       album,
		"titles":      titles,
		"tracks":      ToTrackViews(h.service.AlbumTracks(album)),
		"has_artwork": hasArtwork,
	})
}

// GetAlbumArtwork serves the cached artwork of an album, scaled to ?size= when a
// thumbnailer is configured.
func (h *Handler) GetAlbumArtwork(c *fiber.Ctx) error {
	album := param(c, "album")
	data, ok := h.service.ArtworkFor(album)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no artwork for album"})
	}
	if h.thumbnailer != nil {
		thumb, err := h.thumbnailer.Thumbnail(data, c.QueryInt("size", 0))
		if err != nil {
			slog.Warn("Failed to scale artwork, serving original", "album", album, "error", err)
		} else {
			data = thumb
		}
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(data))
	return c.Send(data)
}

// GetStats returns counts of the published index.
func (h *Handler) GetStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}
