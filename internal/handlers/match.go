package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/match"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
)

// MatchHandler handles match API endpoints
type MatchHandler struct {
	repo    *match.Repository
	emitter *events.Emitter
}

// NewMatchHandler creates a new match handler. emitter may be nil when event
// emission is disabled.
func NewMatchHandler(repo *match.Repository, emitter *events.Emitter) *MatchHandler {
	return &MatchHandler{
		repo:    repo,
		emitter: emitter,
	}
}

// RegisterRoutes registers match routes
func (h *MatchHandler) RegisterRoutes(g *echo.Group) {
	matches := g.Group("/matches")
	matches.GET("", h.List)
	matches.GET("/:id", h.Get)
	matches.PUT("/:id/status", h.UpdateStatus)
}

// Get handles GET /matches/:id
func (h *MatchHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.MatchHandler.Get")
	defer span.End()

	id, err := PathID(c, "id")
	if err != nil {
		return err
	}

	found, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, found)
}

// List handles GET /matches
func (h *MatchHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.MatchHandler.List")
	defer span.End()

	matches, err := h.repo.List(ctx, match.Filter{
		ListingID: c.QueryParam("listing_id"),
		RequestID: c.QueryParam("request_id"),
		Status:    c.QueryParam("status"),
		Limit:     QueryInt(c, "limit", 0),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, matches)
}

// UpdateStatus handles PUT /matches/:id/status
func (h *MatchHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.MatchHandler.UpdateStatus")
	defer span.End()

	id, err := PathID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateMatchStatusRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	existing, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := h.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return err
	}

	if h.emitter != nil && existing.Status != req.Status {
		previous := existing.Status
		existing.Status = req.Status
		// best-effort; the status change already committed
		_ = h.emitter.EmitMatchStatusChanged(ctx, existing, previous)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}
