package searchrequest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

const requestColumns = "id, name, phone, intent, property_type, city, min_rooms, max_rooms, min_price, max_price, min_size, notes, status, created_at, updated_at"

// Repository handles search request persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new search request repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new search request with status active
func (r *Repository) Create(ctx context.Context, req *models.SearchRequest) (*models.SearchRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "searchrequest.Repository.Create")
	defer span.End()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	if req.Status == "" {
		req.Status = models.SearchRequestStatusActive
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("search_requests")
	sb.Cols("id", "name", "phone", "intent", "property_type", "city", "min_rooms", "max_rooms", "min_price", "max_price", "min_size", "notes", "status", "created_at", "updated_at")
	sb.Values(req.ID, req.Name, req.Phone, req.Intent, req.PropertyType, req.City, req.MinRooms, req.MaxRooms, req.MinPrice, req.MaxPrice, req.MinSize, req.Notes, req.Status, req.CreatedAt, req.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": req.ID}).Error("Failed to create search request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create search request")
	}

	return req, nil
}

// Get retrieves a search request by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.SearchRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "searchrequest.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns)
	sb.From("search_requests")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var req models.SearchRequest
	if err := r.db.GetContext(ctx, &req, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("search request %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get search request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get search request")
	}

	return &req, nil
}

// Filter narrows List results. Zero values mean no filtering on that column.
type Filter struct {
	Status string
	Intent models.Intent
	City   string
	Limit  int
}

// List retrieves search requests matching the filter, newest first
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.SearchRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "searchrequest.Repository.List")
	defer span.End()

	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns)
	sb.From("search_requests")

	where := []string{}
	if filter.Status != "" {
		where = append(where, sb.Equal("status", filter.Status))
	}
	if filter.Intent != "" {
		where = append(where, sb.Equal("intent", filter.Intent))
	}
	if filter.City != "" {
		where = append(where, sb.Equal("city", filter.City))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("created_at DESC")
	sb.Limit(filter.Limit)

	query, args := sb.Build()
	var requests []models.SearchRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list search requests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list search requests")
	}

	return requests, nil
}

// ListActive retrieves every active search request with the given intent.
// Ordered by id so repeated calls see candidates in a stable order.
func (r *Repository) ListActive(ctx context.Context, intent models.Intent) ([]models.SearchRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "searchrequest.Repository.ListActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns)
	sb.From("search_requests")
	sb.Where(
		sb.Equal("status", models.SearchRequestStatusActive),
		sb.Equal("intent", intent),
	)
	sb.OrderBy("id")

	query, args := sb.Build()
	var requests []models.SearchRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list active search requests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list active search requests")
	}

	return requests, nil
}

// UpdateStatus advances a search request's activity status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, span := tracing.StartSpan(ctx, "searchrequest.Repository.UpdateStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("search_requests")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update search request status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update search request status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("search request %s not found", id))
	}

	return nil
}

// Delete removes a search request
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "searchrequest.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("search_requests")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete search request")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete search request")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("search request %s not found", id))
	}

	return nil
}
