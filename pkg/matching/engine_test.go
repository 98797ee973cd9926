package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/regions"
)

type fakeListings struct {
	byID      map[string]*models.Listing
	available []models.Listing
	listedFor models.TransactionKind
	listErr   error
}

func (f *fakeListings) Get(_ context.Context, id string) (*models.Listing, error) {
	if l, ok := f.byID[id]; ok {
		return l, nil
	}
	return nil, httperror.NewHTTPErrorf(404, "listing %s not found", id)
}

func (f *fakeListings) ListAvailable(_ context.Context, kind models.TransactionKind) ([]models.Listing, error) {
	f.listedFor = kind
	return f.available, f.listErr
}

type fakeRequests struct {
	byID      map[string]*models.SearchRequest
	active    []models.SearchRequest
	listedFor models.Intent
	listErr   error
}

func (f *fakeRequests) Get(_ context.Context, id string) (*models.SearchRequest, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, httperror.NewHTTPErrorf(404, "search request %s not found", id)
}

func (f *fakeRequests) ListActive(_ context.Context, intent models.Intent) ([]models.SearchRequest, error) {
	f.listedFor = intent
	return f.active, f.listErr
}

type fakeMatchStore struct {
	mu    sync.Mutex
	rows  map[string]*models.Match
	calls int
	err   error
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{rows: map[string]*models.Match{}}
}

func (f *fakeMatchStore) CreateIfAbsent(_ context.Context, match *models.Match) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return false, f.err
	}

	key := match.ListingID + "/" + match.RequestID
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.rows[key] = match
	return true, nil
}

type fakeEmitter struct {
	mu      sync.Mutex
	matches []*models.Match
	batches int
	err     error
}

func (f *fakeEmitter) EmitMatchesSuggested(_ context.Context, suggestions []models.MatchSuggestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches++
	if f.err != nil {
		return f.err
	}
	for _, s := range suggestions {
		f.matches = append(f.matches, s.Match)
	}
	return nil
}

type engineFixture struct {
	engine   *Engine
	listings *fakeListings
	requests *fakeRequests
	store    *fakeMatchStore
	emitter  *fakeEmitter
}

func newEngineFixture(cfg Config) *engineFixture {
	f := &engineFixture{
		listings: &fakeListings{byID: map[string]*models.Listing{}},
		requests: &fakeRequests{byID: map[string]*models.SearchRequest{}},
		store:    newFakeMatchStore(),
		emitter:  &fakeEmitter{},
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	scorer := NewScorer(regions.NewClassifier(regions.DefaultTable()), DefaultWeights())
	f.engine = NewEngine(logger, f.listings, f.requests, f.store, f.emitter, scorer, cfg)
	return f
}

func rentRequest(id string) *models.SearchRequest {
	return &models.SearchRequest{
		ID:       id,
		Intent:   models.IntentRent,
		City:     strPtr("Tel Aviv"),
		MaxPrice: i64Ptr(5000),
		Status:   models.SearchRequestStatusActive,
	}
}

func rentListing(id, city string, price int64) models.Listing {
	return models.Listing{
		ID:     id,
		City:   city,
		Price:  price,
		Kind:   models.TransactionKindRent,
		Status: models.ListingStatusAvailable,
	}
}

func TestRankListingsForRequest(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.requests.byID["r1"] = rentRequest("r1")
	f.listings.available = []models.Listing{
		rentListing("l-region", "Ramat Gan", 4500), // 60, below threshold
		rentListing("l-best", "Tel Aviv", 4500),    // 70
		rentListing("l-over", "Tel Aviv", 5400),    // 65, small overage
		rentListing("l-far", "Haifa", 6500),        // 10
	}

	result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionKindRent, f.listings.listedFor)
	assert.Equal(t, models.RankOutcomeRanked, result.Outcome)
	assert.Equal(t, 4, result.TotalCandidates)
	require.Len(t, result.Entries, 2)

	assert.Equal(t, "l-best", result.Entries[0].CounterpartID)
	assert.Equal(t, float64(70), result.Entries[0].Score)
	assert.True(t, result.Entries[0].MatchCreated)
	assert.NotEmpty(t, result.Entries[0].Reasons)

	assert.Equal(t, "l-over", result.Entries[1].CounterpartID)
	assert.Equal(t, float64(65), result.Entries[1].Score)
	assert.True(t, result.Entries[1].MatchCreated)

	assert.Len(t, f.store.rows, 2)
	assert.Len(t, f.emitter.matches, 2)
	assert.Equal(t, 1, f.emitter.batches) // both suggestions go out as one batch
	if m, ok := f.store.rows["l-best/r1"]; assert.True(t, ok) {
		assert.Equal(t, float64(70), m.Score)
		assert.Equal(t, models.MatchStatusSuggested, m.Status)
	}
}

func TestRankListingsForRequestTieBreak(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.requests.byID["r1"] = rentRequest("r1")
	f.listings.available = []models.Listing{
		rentListing("l-b", "Tel Aviv", 4500),
		rentListing("l-a", "Tel Aviv", 4500),
		rentListing("l-c", "Tel Aviv", 4500),
	}

	result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "l-a", result.Entries[0].CounterpartID)
	assert.Equal(t, "l-b", result.Entries[1].CounterpartID)
	assert.Equal(t, "l-c", result.Entries[2].CounterpartID)
}

func TestRankListingsForRequestLimits(t *testing.T) {
	newFixture := func(candidates int) *engineFixture {
		f := newEngineFixture(Config{
			AcceptanceThreshold: 65,
			DefaultLimit:        5,
			MaxLimit:            6,
			ScoreWorkers:        4,
		})
		f.requests.byID["r1"] = rentRequest("r1")
		for i := 0; i < candidates; i++ {
			f.listings.available = append(f.listings.available,
				rentListing(fmt.Sprintf("l-%02d", i), "Tel Aviv", 4500))
		}
		return f
	}

	t.Run("zero limit uses default", func(t *testing.T) {
		f := newFixture(8)
		result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
		require.NoError(t, err)
		assert.Len(t, result.Entries, 5)
	})

	t.Run("explicit limit", func(t *testing.T) {
		f := newFixture(8)
		result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 2)
		require.NoError(t, err)
		assert.Len(t, result.Entries, 2)
	})

	t.Run("limit capped at maximum", func(t *testing.T) {
		f := newFixture(8)
		result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 100)
		require.NoError(t, err)
		assert.Len(t, result.Entries, 6)
	})
}

func TestRankListingsForRequestIdempotent(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.requests.byID["r1"] = rentRequest("r1")
	f.listings.available = []models.Listing{
		rentListing("l1", "Tel Aviv", 4500),
		rentListing("l2", "Tel Aviv", 4800),
	}

	first, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)
	for _, entry := range first.Entries {
		assert.True(t, entry.MatchCreated)
	}
	assert.Len(t, f.store.rows, 2)
	assert.Len(t, f.emitter.matches, 2)

	second, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)
	assert.Equal(t, models.RankOutcomeRanked, second.Outcome)
	for _, entry := range second.Entries {
		assert.False(t, entry.MatchCreated)
	}
	assert.Len(t, f.store.rows, 2)
	assert.Len(t, f.emitter.matches, 2)
	assert.Equal(t, 1, f.emitter.batches) // nothing new to suggest, no second batch
}

func TestRankListingsForRequestNoCandidates(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.requests.byID["r1"] = rentRequest("r1")

	result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)

	assert.Equal(t, models.RankOutcomeNoCandidates, result.Outcome)
	assert.Empty(t, result.Entries)
	assert.Zero(t, f.store.calls)
}

func TestRankListingsForRequestNoQualifyingMatches(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.requests.byID["r1"] = rentRequest("r1")
	f.listings.available = []models.Listing{
		rentListing("l1", "Ramat Gan", 4500), // 60
		rentListing("l2", "Haifa", 6500),     // 10
	}

	result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)

	assert.Equal(t, models.RankOutcomeNoQualifyingMatches, result.Outcome)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 2, result.TotalCandidates)
	assert.Zero(t, f.store.calls)
}

func TestRankListingsForRequestNotFound(t *testing.T) {
	f := newEngineFixture(DefaultConfig())

	_, err := f.engine.RankListingsForRequest(context.Background(), "missing", 0)
	require.Error(t, err)
	assert.Equal(t, 404, httperror.GetStatusCode(err))
	assert.Zero(t, f.store.calls)
}

func TestRankListingsForRequestPersistenceFailure(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.requests.byID["r1"] = rentRequest("r1")
	f.listings.available = []models.Listing{rentListing("l1", "Tel Aviv", 4500)}
	f.store.err = errors.New("connection reset")

	result, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)

	assert.Equal(t, models.RankOutcomeRanked, result.Outcome)
	require.Len(t, result.Entries, 1)
	assert.False(t, result.Entries[0].MatchCreated)
	assert.Empty(t, f.emitter.matches)
}

func TestRankRequestsForListing(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.listings.byID["l1"] = &models.Listing{
		ID:     "l1",
		City:   "Tel Aviv",
		Price:  900000,
		Kind:   models.TransactionKindSale,
		Status: models.ListingStatusAvailable,
	}
	f.requests.active = []models.SearchRequest{
		{ID: "r-buyer", Intent: models.IntentBuy, City: strPtr("Tel Aviv"), MaxPrice: i64Ptr(1000000)},
		{ID: "r-cheap", Intent: models.IntentBuy, City: strPtr("Haifa"), MaxPrice: i64Ptr(500000)},
	}

	result, err := f.engine.RankRequestsForListing(context.Background(), "l1", 0)
	require.NoError(t, err)

	assert.Equal(t, models.IntentBuy, f.requests.listedFor)
	assert.Equal(t, models.RankOutcomeRanked, result.Outcome)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "r-buyer", result.Entries[0].CounterpartID)
	assert.Equal(t, float64(70), result.Entries[0].Score)

	match, ok := f.store.rows["l1/r-buyer"]
	require.True(t, ok)
	assert.Equal(t, "l1", match.ListingID)
	assert.Equal(t, "r-buyer", match.RequestID)
}

func TestRankRequestsForListingNotFound(t *testing.T) {
	f := newEngineFixture(DefaultConfig())

	_, err := f.engine.RankRequestsForListing(context.Background(), "missing", 0)
	require.Error(t, err)
	assert.Equal(t, 404, httperror.GetStatusCode(err))
}

func TestRankBothDirectionsShareOneMatchRow(t *testing.T) {
	f := newEngineFixture(DefaultConfig())
	f.requests.byID["r1"] = rentRequest("r1")
	f.listings.byID["l1"] = &models.Listing{
		ID:     "l1",
		City:   "Tel Aviv",
		Price:  4500,
		Kind:   models.TransactionKindRent,
		Status: models.ListingStatusAvailable,
	}
	f.listings.available = []models.Listing{*f.listings.byID["l1"]}
	f.requests.active = []models.SearchRequest{*f.requests.byID["r1"]}

	fromRequest, err := f.engine.RankListingsForRequest(context.Background(), "r1", 0)
	require.NoError(t, err)
	require.Len(t, fromRequest.Entries, 1)
	assert.True(t, fromRequest.Entries[0].MatchCreated)

	fromListing, err := f.engine.RankRequestsForListing(context.Background(), "l1", 0)
	require.NoError(t, err)
	require.Len(t, fromListing.Entries, 1)
	assert.False(t, fromListing.Entries[0].MatchCreated)

	assert.Len(t, f.store.rows, 1)
}
