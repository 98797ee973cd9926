package matching

import (
	"context"
	"sort"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// ListingSource provides read access to listing records.
type ListingSource interface {
	Get(ctx context.Context, id string) (*models.Listing, error)
	ListAvailable(ctx context.Context, kind models.TransactionKind) ([]models.Listing, error)
}

// RequestSource provides read access to search request records.
type RequestSource interface {
	Get(ctx context.Context, id string) (*models.SearchRequest, error)
	ListActive(ctx context.Context, intent models.Intent) ([]models.SearchRequest, error)
}

// MatchStore persists suggested matches. CreateIfAbsent must be atomic under
// concurrent calls for the same pair: exactly one caller observes
// created=true, the rest observe created=false with no error.
type MatchStore interface {
	CreateIfAbsent(ctx context.Context, match *models.Match) (bool, error)
}

// SuggestionEmitter publishes domain events for newly suggested matches. One
// ranking call hands over all of its new suggestions as a single batch.
type SuggestionEmitter interface {
	EmitMatchesSuggested(ctx context.Context, suggestions []models.MatchSuggestion) error
}

// Config contains configuration for the ranking engine.
type Config struct {
	AcceptanceThreshold float64 // minimum score for a candidate to rank (default: 65)
	DefaultLimit        int     // entries returned when the caller passes no limit (default: 5)
	MaxLimit            int     // hard cap on requested limits (default: 50)
	ScoreWorkers        int     // concurrent scoring workers per call (default: 4)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AcceptanceThreshold: 65,
		DefaultLimit:        5,
		MaxLimit:            50,
		ScoreWorkers:        4,
	}
}

// Engine drives the two symmetric ranking workflows: listings for a request
// and requests for a listing. Scoring is delegated to the pure Scorer;
// persistence of suggestions is best-effort per candidate.
type Engine struct {
	logger   ectologger.Logger
	listings ListingSource
	requests RequestSource
	matches  MatchStore
	emitter  SuggestionEmitter
	scorer   *Scorer
	cfg      Config
}

// NewEngine creates a new ranking engine. emitter may be nil when event
// emission is disabled.
func NewEngine(
	logger ectologger.Logger,
	listings ListingSource,
	requests RequestSource,
	matches MatchStore,
	emitter SuggestionEmitter,
	scorer *Scorer,
	cfg Config,
) *Engine {
	return &Engine{
		logger:   logger,
		listings: listings,
		requests: requests,
		matches:  matches,
		emitter:  emitter,
		scorer:   scorer,
		cfg:      cfg,
	}
}

// scoredCandidate pairs a counterpart id with its score and breakdown.
type scoredCandidate struct {
	counterpartID string
	score         float64
	reasons       []models.Reason
}

// RankListingsForRequest scores all available listings of the kind the
// request is looking for, keeps those at or above the acceptance threshold,
// ranks them score-descending (ties broken by listing id ascending), takes
// the first limit entries, and persists a suggested match for every ranked
// pair not yet recorded. Entries are returned whether or not their
// persistence succeeded.
func (e *Engine) RankListingsForRequest(ctx context.Context, requestID string, limit int) (*models.RankedResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.RankListingsForRequest")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{"request_id": requestID})

	req, err := e.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	kind := req.RequiredKind()
	candidates, err := e.listings.ListAvailable(ctx, kind)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		log.WithFields(map[string]any{"transaction_kind": kind}).Debug("No available listings of required kind")
		return &models.RankedResult{Outcome: models.RankOutcomeNoCandidates, Entries: []models.RankedEntry{}}, nil
	}

	scored := make([]scoredCandidate, len(candidates))
	e.forEachCandidate(len(candidates), func(i int) {
		score, reasons := e.scorer.Score(&candidates[i], req)
		scored[i] = scoredCandidate{
			counterpartID: candidates[i].ID,
			score:         score,
			reasons:       reasons,
		}
	})

	ranked := e.rank(scored, limit)
	if len(ranked) == 0 {
		log.WithFields(map[string]any{"candidate_count": len(candidates)}).Debug("No candidates cleared the acceptance threshold")
		return &models.RankedResult{
			Outcome:         models.RankOutcomeNoQualifyingMatches,
			Entries:         []models.RankedEntry{},
			TotalCandidates: len(candidates),
		}, nil
	}

	entries := make([]models.RankedEntry, 0, len(ranked))
	suggestions := make([]models.MatchSuggestion, 0, len(ranked))
	for _, c := range ranked {
		match, created := e.persistSuggestion(ctx, c.counterpartID, requestID, c.score)
		if created {
			suggestions = append(suggestions, models.MatchSuggestion{Match: match, Reasons: c.reasons})
		}
		entries = append(entries, models.RankedEntry{
			CounterpartID: c.counterpartID,
			Score:         c.score,
			Reasons:       c.reasons,
			MatchCreated:  created,
		})
	}
	e.emitSuggestions(ctx, suggestions)

	log.WithFields(map[string]any{
		"candidate_count": len(candidates),
		"ranked_count":    len(entries),
	}).Info("Ranked listings for request")

	return &models.RankedResult{
		Outcome:         models.RankOutcomeRanked,
		Entries:         entries,
		TotalCandidates: len(candidates),
	}, nil
}

// RankRequestsForListing is the mirror workflow: it scores all active search
// requests whose intent maps to the listing's transaction kind.
func (e *Engine) RankRequestsForListing(ctx context.Context, listingID string, limit int) (*models.RankedResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.RankRequestsForListing")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{"listing_id": listingID})

	listing, err := e.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}

	intent := listing.Kind.MatchingIntent()
	candidates, err := e.requests.ListActive(ctx, intent)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		log.WithFields(map[string]any{"intent": intent}).Debug("No active requests of matching intent")
		return &models.RankedResult{Outcome: models.RankOutcomeNoCandidates, Entries: []models.RankedEntry{}}, nil
	}

	scored := make([]scoredCandidate, len(candidates))
	e.forEachCandidate(len(candidates), func(i int) {
		score, reasons := e.scorer.Score(listing, &candidates[i])
		scored[i] = scoredCandidate{
			counterpartID: candidates[i].ID,
			score:         score,
			reasons:       reasons,
		}
	})

	ranked := e.rank(scored, limit)
	if len(ranked) == 0 {
		log.WithFields(map[string]any{"candidate_count": len(candidates)}).Debug("No candidates cleared the acceptance threshold")
		return &models.RankedResult{
			Outcome:         models.RankOutcomeNoQualifyingMatches,
			Entries:         []models.RankedEntry{},
			TotalCandidates: len(candidates),
		}, nil
	}

	entries := make([]models.RankedEntry, 0, len(ranked))
	suggestions := make([]models.MatchSuggestion, 0, len(ranked))
	for _, c := range ranked {
		match, created := e.persistSuggestion(ctx, listingID, c.counterpartID, c.score)
		if created {
			suggestions = append(suggestions, models.MatchSuggestion{Match: match, Reasons: c.reasons})
		}
		entries = append(entries, models.RankedEntry{
			CounterpartID: c.counterpartID,
			Score:         c.score,
			Reasons:       c.reasons,
			MatchCreated:  created,
		})
	}
	e.emitSuggestions(ctx, suggestions)

	log.WithFields(map[string]any{
		"candidate_count": len(candidates),
		"ranked_count":    len(entries),
	}).Info("Ranked requests for listing")

	return &models.RankedResult{
		Outcome:         models.RankOutcomeRanked,
		Entries:         entries,
		TotalCandidates: len(candidates),
	}, nil
}

// forEachCandidate runs fn over candidate indexes on a bounded worker pool.
// Scoring is pure, so workers share nothing but the read-only region table.
func (e *Engine) forEachCandidate(n int, fn func(i int)) {
	workers := e.cfg.ScoreWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// rank filters by the acceptance threshold, orders score-descending with id
// ascending as the tie-break, and truncates to the effective limit.
func (e *Engine) rank(scored []scoredCandidate, limit int) []scoredCandidate {
	kept := make([]scoredCandidate, 0, len(scored))
	for _, c := range scored {
		if c.score >= e.cfg.AcceptanceThreshold {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].counterpartID < kept[j].counterpartID
	})

	if limit < 1 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// persistSuggestion records a suggested match for the pair unless one already
// exists. Failures are logged and never abort the ranking call; the stored
// score and status of an existing match are left untouched.
func (e *Engine) persistSuggestion(ctx context.Context, listingID, requestID string, score float64) (*models.Match, bool) {
	match := &models.Match{
		ListingID: listingID,
		RequestID: requestID,
		Score:     score,
		Status:    models.MatchStatusSuggested,
	}

	created, err := e.matches.CreateIfAbsent(ctx, match)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"listing_id": listingID,
			"request_id": requestID,
		}).Warn("Failed to persist suggested match")
		return match, false
	}

	return match, created
}

// emitSuggestions publishes the ranking call's new suggestions as one batch.
// Emission is best-effort: failures are logged and the ranking result stands.
func (e *Engine) emitSuggestions(ctx context.Context, suggestions []models.MatchSuggestion) {
	if e.emitter == nil || len(suggestions) == 0 {
		return
	}
	if err := e.emitter.EmitMatchesSuggested(ctx, suggestions); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"suggestion_count": len(suggestions),
		}).Warn("Failed to emit match.suggested events")
	}
}
