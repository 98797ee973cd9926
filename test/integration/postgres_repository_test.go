package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/database"
	listingrepo "github.com/Ramsey-B/clover/internal/repositories/listing"
	matchrepo "github.com/Ramsey-B/clover/internal/repositories/match"
	searchrequestrepo "github.com/Ramsey-B/clover/internal/repositories/searchrequest"
	"github.com/Ramsey-B/clover/pkg/models"
)

// testContext holds the shared database handle and repositories
type testContext struct {
	ctx      context.Context
	db       *database.DatabaseInstance
	listings *listingrepo.Repository
	requests *searchrequestrepo.Repository
	matches  *matchrepo.Repository
}

// setupTestContext connects to the database named by TEST_DB_HOST and runs
// migrations. Tests are skipped when no test database is configured.
func setupTestContext(t *testing.T) *testContext {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping integration test")
	}

	log := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	ctx := context.Background()

	db, err := database.Connect(ctx, database.ConnectConfig{
		Host:            host,
		Port:            envOr("TEST_DB_PORT", "5432"),
		User:            envOr("TEST_DB_USER", "postgres"),
		Password:        envOr("TEST_DB_PASSWORD", "postgres"),
		Name:            envOr("TEST_DB_NAME", "clover_test"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	driver, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
	require.NoError(t, err)

	migrations := database.NewMigrationService(log, &database.MigrationConfig{
		MigrationFolderPath: "../../db/pg",
	})
	require.NoError(t, migrations.Migrate(envOr("TEST_DB_NAME", "clover_test"), driver))

	return &testContext{
		ctx:      ctx,
		db:       db,
		listings: listingrepo.NewRepository(db, log),
		requests: searchrequestrepo.NewRepository(db, log),
		matches:  matchrepo.NewRepository(db, log),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (tc *testContext) createPair(t *testing.T) (*models.Listing, *models.SearchRequest) {
	t.Helper()

	listing, err := tc.listings.Create(tc.ctx, &models.Listing{
		PropertyType: "apartment",
		City:         "Tel Aviv",
		Rooms:        3,
		Price:        5200,
		Kind:         models.TransactionKindRent,
	})
	require.NoError(t, err)

	maxPrice := int64(6000)
	request, err := tc.requests.Create(tc.ctx, &models.SearchRequest{
		Name:     "integration tester",
		Intent:   models.IntentRent,
		MaxPrice: &maxPrice,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = tc.listings.Delete(tc.ctx, listing.ID)
		_ = tc.requests.Delete(tc.ctx, request.ID)
	})

	return listing, request
}

func TestListingRepository_Lifecycle(t *testing.T) {
	tc := setupTestContext(t)

	listing, _ := tc.createPair(t)
	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, models.ListingStatusAvailable, listing.Status)

	found, err := tc.listings.Get(tc.ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.City, found.City)
	assert.Equal(t, listing.Price, found.Price)

	available, err := tc.listings.ListAvailable(tc.ctx, models.TransactionKindRent)
	require.NoError(t, err)
	assert.NotEmpty(t, available)

	require.NoError(t, tc.listings.UpdateStatus(tc.ctx, listing.ID, models.ListingStatusRented))
	updated, err := tc.listings.Get(tc.ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusRented, updated.Status)
}

func TestMatchRepository_CreateIfAbsent(t *testing.T) {
	tc := setupTestContext(t)
	listing, request := tc.createPair(t)

	created, err := tc.matches.CreateIfAbsent(tc.ctx, &models.Match{
		ListingID: listing.ID,
		RequestID: request.ID,
		Score:     85,
	})
	require.NoError(t, err)
	assert.True(t, created)

	// second insert for the same pair must be a silent no-op
	created, err = tc.matches.CreateIfAbsent(tc.ctx, &models.Match{
		ListingID: listing.ID,
		RequestID: request.ID,
		Score:     40,
	})
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := tc.matches.GetByPair(tc.ctx, listing.ID, request.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, float64(85), stored.Score)
	assert.Equal(t, models.MatchStatusSuggested, stored.Status)
}

func TestMatchRepository_ConcurrentCreate(t *testing.T) {
	tc := setupTestContext(t)
	listing, request := tc.createPair(t)

	const attempts = 8
	results := make([]bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := tc.matches.CreateIfAbsent(tc.ctx, &models.Match{
				ListingID: listing.ID,
				RequestID: request.ID,
				Score:     70,
			})
			assert.NoError(t, err)
			results[i] = created
		}(i)
	}
	wg.Wait()

	var wins int
	for _, created := range results {
		if created {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestMatchRepository_StatusAndList(t *testing.T) {
	tc := setupTestContext(t)
	listing, request := tc.createPair(t)

	_, err := tc.matches.CreateIfAbsent(tc.ctx, &models.Match{
		ListingID: listing.ID,
		RequestID: request.ID,
		Score:     91,
	})
	require.NoError(t, err)

	stored, err := tc.matches.GetByPair(tc.ctx, listing.ID, request.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.NoError(t, tc.matches.UpdateStatus(tc.ctx, stored.ID, models.MatchStatusSent))

	listed, err := tc.matches.List(tc.ctx, matchrepo.Filter{
		ListingID: listing.ID,
		Status:    models.MatchStatusSent,
	})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, stored.ID, listed[0].ID)
}
