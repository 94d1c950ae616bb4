package playback

import (
	"errors"

	"github.com/contre95/bandpass/src/features/library"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler handles playback requests
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a new playback handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// PlayRequest selects what to play: an album starting at a title, or a single path.
type PlayRequest struct {
	Album string `json:"album" validate:"required_with=Title"`
	Title string `json:"title" validate:"required_without=Path"`
	Path  string `json:"path" validate:"required_without=Title"`
}

func (h *Handler) stateResponse(c *fiber.Ctx, status Status) error {
	body := fiber.Map{
		"player": h.service.State(),
	}
	if status != "" {
		body["status"] = status
	}
	if np, ok := h.service.NowPlaying(); ok {
		body["now_playing"] = np
	}
	q := h.service.Queue()
	body["queue"] = fiber.Map{
		"index":  q.Index,
		"tracks": library.ToTrackViews(q.Tracks),
	}
	return c.JSON(body)
}

// GetState returns the player, queue and now-playing state.
func (h *Handler) GetState(c *fiber.Ctx) error {
	return h.stateResponse(c, "")
}

// PostPlay starts an album from a title, or a single file.
func (h *Handler) PostPlay(c *fiber.Ctx) error {
	var req PlayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	if req.Title == "" {
		if err := h.service.PlayPath(ctx, req.Path); err != nil {
			return h.playError(err)
		}
		return h.stateResponse(c, "")
	}

	queued, err := h.service.PlayAlbum(ctx, req.Album, req.Title)
	if err != nil {
		return h.playError(err)
	}
	if !queued {
		c.Status(fiber.StatusAccepted)
		return h.stateResponse(c, Status("single_track"))
	}
	return h.stateResponse(c, "")
}

func (h *Handler) playError(err error) error {
	if errors.Is(err, ErrTrackNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

// PostToggle pauses or resumes.
func (h *Handler) PostToggle(c *fiber.Ctx) error {
	if err := h.service.Toggle(c.UserContext()); err != nil {
		return err
	}
	return h.stateResponse(c, "")
}

// PostNext moves to the next queued track.
func (h *Handler) PostNext(c *fiber.Ctx) error {
	status, err := h.service.Next(c.UserContext())
	if err != nil {
		return err
	}
	return h.stateResponse(c, status)
}

// PostPrevious moves back or restarts.
func (h *Handler) PostPrevious(c *fiber.Ctx) error {
	status, err := h.service.Previous(c.UserContext())
	if err != nil {
		return err
	}
	return h.stateResponse(c, status)
}

// PostStop releases the audio graph.
func (h *Handler) PostStop(c *fiber.Ctx) error {
	h.service.Stop(c.UserContext())
	return h.stateResponse(c, "")
}
