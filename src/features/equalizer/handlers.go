package equalizer

import (
	"errors"
	"log/slog"

	"github.com/contre95/bandpass/src/music"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler is the HTTP handler for the equalizer feature.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a new equalizer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// FilterRequest is the body of filter create and update requests. Absent fields keep
// their default (create) or current (update) value.
type FilterRequest struct {
	Type      *string  `json:"type" validate:"omitempty,oneof=peak low-shelf high-shelf lowshelf highshelf"`
	Frequency *float64 `json:"frequency" validate:"omitempty,gt=0,lte=96000"`
	Gain      *float64 `json:"gain"`
	Q         *float64 `json:"q" validate:"omitempty,gte=0,lte=100"`
}

func (r FilterRequest) apply(f music.EQFilter) music.EQFilter {
	if r.Type != nil {
		f.Kind = music.ParseFilterKind(*r.Type)
	}
	if r.Frequency != nil {
		f.Frequency = *r.Frequency
	}
	if r.Gain != nil {
		f.Gain = *r.Gain
	}
	if r.Q != nil {
		f.Q = *r.Q
	}
	return f
}

func (h *Handler) parseRequest(c *fiber.Ctx) (FilterRequest, error) {
	var req FilterRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}
	}
	if err := h.validate.Struct(req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req, nil
}

// GetFilters lists the bands in insertion or frequency order.
func (h *Handler) GetFilters(c *fiber.Ctx) error {
	switch c.Query("order", "insertion") {
	case "frequency":
		return c.JSON(h.service.ByFrequency())
	case "insertion":
		return c.JSON(h.service.Filters())
	default:
		return fiber.NewError(fiber.StatusBadRequest, "order must be 'insertion' or 'frequency'")
	}
}

// PostFilter adds a band. An empty body adds a default band.
func (h *Handler) PostFilter(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	f, err := h.service.Add(req.apply(music.NewEQFilter()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

// PutFilter updates a band in place.
func (h *Handler) PutFilter(c *fiber.Ctx) error {
	id := c.Params("id")
	current, ok := h.service.Get(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, music.ErrFilterNotFound.Error())
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	updated := req.apply(current)
	if err := h.service.Update(updated); err != nil {
		if errors.Is(err, music.ErrFilterNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(updated)
}

// DeleteFilter removes a band.
func (h *Handler) DeleteFilter(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("id")); err != nil {
		if errors.Is(err, music.ErrFilterNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PostSave persists the profile.
func (h *Handler) PostSave(c *fiber.Ctx) error {
	if err := h.service.Save(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"saved": len(h.service.Filters())})
}

// PostLoad reloads the persisted profile, discarding unsaved edits.
func (h *Handler) PostLoad(c *fiber.Ctx) error {
	filters := h.service.Load(c.UserContext())
	slog.Debug("Equalizer profile reloaded over HTTP", "filters", len(filters))
	return c.JSON(filters)
}

// GetPlan returns the gain plan of the current profile.
func (h *Handler) GetPlan(c *fiber.Ctx) error {
	return c.JSON(h.service.Plan())
}
