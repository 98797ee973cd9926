package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/listing"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
)

// ListingHandler handles listing API endpoints
type ListingHandler struct {
	repo   *listing.Repository
	engine *matching.Engine
}

// NewListingHandler creates a new listing handler
func NewListingHandler(repo *listing.Repository, engine *matching.Engine) *ListingHandler {
	return &ListingHandler{
		repo:   repo,
		engine: engine,
	}
}

// RegisterRoutes registers listing routes
func (h *ListingHandler) RegisterRoutes(g *echo.Group) {
	listings := g.Group("/listings")
	listings.POST("", h.Create)
	listings.GET("", h.List)
	listings.GET("/:id", h.Get)
	listings.PUT("/:id/status", h.UpdateStatus)
	listings.DELETE("/:id", h.Delete)
	listings.POST("/:id/matches", h.Match)
}

// Create handles POST /listings
func (h *ListingHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.ListingHandler.Create")
	defer span.End()

	var req models.CreateListingRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.repo.Create(ctx, &models.Listing{
		PropertyType: req.PropertyType,
		City:         req.City,
		Street:       req.Street,
		Address:      req.Address,
		Rooms:        req.Rooms,
		Size:         req.Size,
		Floor:        req.Floor,
		Price:        req.Price,
		Kind:         req.Kind,
		OwnerName:    req.OwnerName,
		OwnerPhone:   req.OwnerPhone,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// Get handles GET /listings/:id
func (h *ListingHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.ListingHandler.Get")
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

// List handles GET /listings
func (h *ListingHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.ListingHandler.List")
	defer span.End()

	listings, err := h.repo.List(ctx, listing.Filter{
		Status: c.QueryParam("status"),
		Kind:   models.TransactionKind(c.QueryParam("transaction_kind")),
		City:   c.QueryParam("city"),
		Limit:  QueryInt(c, "limit", 0),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listings)
}

// UpdateStatus handles PUT /listings/:id/status
func (h *ListingHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.ListingHandler.UpdateStatus")
	defer span.End()

	id, err := PathID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateListingStatusRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

// Delete handles DELETE /listings/:id
func (h *ListingHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.ListingHandler.Delete")
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

// Match handles POST /listings/:id/matches. It ranks active search requests
// against the listing and persists a suggested match per qualifying pair.
func (h *ListingHandler) Match(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "handlers.ListingHandler.Match")
	defer span.End()

	id, err := PathID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.engine.RankRequestsForListing(ctx, id, QueryInt(c, "limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
