package models

// RankOutcome discriminates the result of a ranking call. A missing entity is
// not an outcome; it surfaces as a not-found error before any scoring runs.
type RankOutcome string

const (
	// RankOutcomeNoCandidates means no opposite-side records of the required
	// kind and status exist at all.
	RankOutcomeNoCandidates RankOutcome = "no_candidates"
	// RankOutcomeNoQualifyingMatches means candidates existed but none
	// cleared the acceptance threshold.
	RankOutcomeNoQualifyingMatches RankOutcome = "no_qualifying_matches"
	// RankOutcomeRanked means at least one candidate qualified.
	RankOutcomeRanked RankOutcome = "ranked"
)

// ReasonStatus qualifies a single scored criterion
type ReasonStatus string

const (
	ReasonSatisfied   ReasonStatus = "satisfied"
	ReasonBorderline  ReasonStatus = "borderline"
	ReasonUnsatisfied ReasonStatus = "unsatisfied"
)

// Reason components, in display order
const (
	ReasonComponentLocation = "location"
	ReasonComponentPrice    = "price"
	ReasonComponentRooms    = "rooms"
	ReasonComponentSize     = "size"
)

// Reason explains one evaluated criterion of a score. Criteria the request
// did not specify are omitted entirely rather than reported as failures.
type Reason struct {
	Component string       `json:"component"`
	Status    ReasonStatus `json:"status"`
	Detail    string       `json:"detail"`
}

// MatchSuggestion pairs a newly created match with its score breakdown, for
// event emission
type MatchSuggestion struct {
	Match   *Match
	Reasons []Reason
}

// RankedEntry is one qualified candidate in a ranking result
type RankedEntry struct {
	CounterpartID string   `json:"counterpart_id"`
	Score         float64  `json:"score"`
	Reasons       []Reason `json:"reasons"`
	// MatchCreated reports whether this ranking call persisted a new match
	// row for the pair. False when the pair was already suggested earlier or
	// when the write failed; the entry is returned either way.
	MatchCreated bool `json:"match_created"`
}

// RankedResult is the outcome of one ranking call
type RankedResult struct {
	Outcome         RankOutcome   `json:"outcome"`
	Entries         []RankedEntry `json:"entries"`
	TotalCandidates int           `json:"total_candidates"` // before threshold filtering
}
