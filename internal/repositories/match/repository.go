package match

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

const matchColumns = "id, listing_id, request_id, score, status, created_at, updated_at"

// Repository handles match persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateIfAbsent inserts a match for the pair unless one already exists. The
// insert and the uniqueness check are one statement, so concurrent callers
// racing on the same pair cannot both create a row: exactly one sees
// created=true. An existing row is never modified.
func (r *Repository) CreateIfAbsent(ctx context.Context, match *models.Match) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.CreateIfAbsent")
	defer span.End()

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	match.CreatedAt = time.Now().UTC()
	match.UpdatedAt = match.CreatedAt
	if match.Status == "" {
		match.Status = models.MatchStatusSuggested
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ib := database.NewInsertBuilder()
	ib.InsertInto("matches")
	ib.Cols("id", "listing_id", "request_id", "score", "status", "created_at", "updated_at")
	ib.Values(match.ID, match.ListingID, match.RequestID, match.Score, match.Status, match.CreatedAt, match.UpdatedAt)
	ib.OnConflictDoNothing("listing_id", "request_id")

	query, args := ib.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"listing_id": match.ListingID,
			"request_id": match.RequestID,
		}).Error("Failed to create match")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create match")
	}

	rows, _ := result.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit match")
	}

	return rows > 0, nil
}

// Get retrieves a match by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var match models.Match
	if err := r.db.GetContext(ctx, &match, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match")
	}

	return &match, nil
}

// GetByPair retrieves the match for a listing/request pair, or nil when the
// pair has never been matched
func (r *Repository) GetByPair(ctx context.Context, listingID, requestID string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetByPair")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")
	sb.Where(
		sb.Equal("listing_id", listingID),
		sb.Equal("request_id", requestID),
	)

	query, args := sb.Build()
	var match models.Match
	if err := r.db.GetContext(ctx, &match, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match by pair")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match")
	}

	return &match, nil
}

// Filter narrows List results. Zero values mean no filtering on that column.
type Filter struct {
	ListingID string
	RequestID string
	Status    string
	MinScore  float64
	Limit     int
}

// List retrieves matches ordered by score descending
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.List")
	defer span.End()

	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")

	where := []string{}
	if filter.ListingID != "" {
		where = append(where, sb.Equal("listing_id", filter.ListingID))
	}
	if filter.RequestID != "" {
		where = append(where, sb.Equal("request_id", filter.RequestID))
	}
	if filter.Status != "" {
		where = append(where, sb.Equal("status", filter.Status))
	}
	if filter.MinScore > 0 {
		where = append(where, sb.GreaterEqualThan("score", filter.MinScore))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("score DESC", "created_at DESC")
	sb.Limit(filter.Limit)

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// UpdateStatus advances a match's lifecycle status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.UpdateStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("matches")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update match status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match %s not found", id))
	}

	return nil
}
