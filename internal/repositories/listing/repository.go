package listing

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

const listingColumns = "id, property_type, city, street, address, rooms, size, floor, price, transaction_kind, owner_name, owner_phone, description, status, created_at, updated_at"

// Repository handles listing persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new listing repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new listing with status available
func (r *Repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Create")
	defer span.End()

	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	listing.CreatedAt = time.Now().UTC()
	listing.UpdatedAt = listing.CreatedAt
	if listing.Status == "" {
		listing.Status = models.ListingStatusAvailable
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("listings")
	sb.Cols("id", "property_type", "city", "street", "address", "rooms", "size", "floor", "price", "transaction_kind", "owner_name", "owner_phone", "description", "status", "created_at", "updated_at")
	sb.Values(listing.ID, listing.PropertyType, listing.City, listing.Street, listing.Address, listing.Rooms, listing.Size, listing.Floor, listing.Price, listing.Kind, listing.OwnerName, listing.OwnerPhone, listing.Description, listing.Status, listing.CreatedAt, listing.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"listing_id": listing.ID}).Error("Failed to create listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create listing")
	}

	return listing, nil
}

// Get retrieves a listing by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingColumns)
	sb.From("listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var listing models.Listing
	if err := r.db.GetContext(ctx, &listing, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("listing %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get listing")
	}

	return &listing, nil
}

// Filter narrows List results. Zero values mean no filtering on that column.
type Filter struct {
	Status string
	Kind   models.TransactionKind
	City   string
	Limit  int
}

// List retrieves listings matching the filter, newest first
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.List")
	defer span.End()

	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingColumns)
	sb.From("listings")

	where := []string{}
	if filter.Status != "" {
		where = append(where, sb.Equal("status", filter.Status))
	}
	if filter.Kind != "" {
		where = append(where, sb.Equal("transaction_kind", filter.Kind))
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
	var listings []models.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list listings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list listings")
	}

	return listings, nil
}

// ListAvailable retrieves every available listing of the given transaction
// kind. Ordered by id so repeated calls see candidates in a stable order.
func (r *Repository) ListAvailable(ctx context.Context, kind models.TransactionKind) ([]models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.ListAvailable")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingColumns)
	sb.From("listings")
	sb.Where(
		sb.Equal("status", models.ListingStatusAvailable),
		sb.Equal("transaction_kind", kind),
	)
	sb.OrderBy("id")

	query, args := sb.Build()
	var listings []models.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list available listings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list available listings")
	}

	return listings, nil
}

// UpdateStatus advances a listing's availability status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.UpdateStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("listings")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update listing status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update listing status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("listing %s not found", id))
	}

	return nil
}

// Delete removes a listing
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete listing")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete listing")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("listing %s not found", id))
	}

	return nil
}
