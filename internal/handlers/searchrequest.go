package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/searchrequest"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
)

// SearchRequestHandler handles search request API endpoints
type SearchRequestHandler struct {
	repo   *searchrequest.Repository
	engine *matching.Engine
}

// NewSearchRequestHandler creates a new search request handler
func NewSearchRequestHandler(repo *searchrequest.Repository, engine *matching.Engine) *SearchRequestHandler {
	return &SearchRequestHandler{
		repo:   repo,
		engine: engine,
	}
}

// RegisterRoutes registers search request routes
func (h *SearchRequestHandler) RegisterRoutes(g *echo.Group) {
	requests := g.Group("/requests")
	requests.POST("", h.Create)
	requests.GET("", h.List)
	requests.GET("/:id", h.Get)
	requests.PUT("/:id/status", h.UpdateStatus)
	requests.DELETE("/:id", h.Delete)
	requests.POST("/:id/matches", h.Match)
}

// Create handles POST /requests
func (h *SearchRequestHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.SearchRequestHandler.Create")
	defer span.End()

	var req models.CreateSearchRequestRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if req.MinRooms != nil && req.MaxRooms != nil && *req.MinRooms > *req.MaxRooms {
		return BadRequest("min_rooms cannot exceed max_rooms")
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return BadRequest("min_price cannot exceed max_price")
	}

	created, err := h.repo.Create(ctx, &models.SearchRequest{
		Name:         req.Name,
		Phone:        req.Phone,
		Intent:       req.Intent,
		PropertyType: req.PropertyType,
		City:         req.City,
		MinRooms:     req.MinRooms,
		MaxRooms:     req.MaxRooms,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		MinSize:      req.MinSize,
		Notes:        req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// Get handles GET /requests/:id
func (h *SearchRequestHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.SearchRequestHandler.Get")
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

// List handles GET /requests
func (h *SearchRequestHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.SearchRequestHandler.List")
	defer span.End()

	requests, err := h.repo.List(ctx, searchrequest.Filter{
		Status: c.QueryParam("status"),
		Intent: models.Intent(c.QueryParam("intent")),
		City:   c.QueryParam("city"),
		Limit:  QueryInt(c, "limit", 0),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, requests)
}

// UpdateStatus handles PUT /requests/:id/status
func (h *SearchRequestHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.SearchRequestHandler.UpdateStatus")
	defer span.End()

	id, err := PathID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateSearchRequestStatusRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

// Delete handles DELETE /requests/:id
func (h *SearchRequestHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.SearchRequestHandler.Delete")
	defer span.End()

	id, err := PathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Match handles POST /requests/:id/matches. It ranks available listings
// against the request and persists a suggested match per qualifying pair.
func (h *SearchRequestHandler) Match(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.SearchRequestHandler.Match")
	defer span.End()

	id, err := PathID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.engine.RankListingsForRequest(ctx, id, QueryInt(c, "limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
