package models

import "time"

// MatchStatus constants. A match starts as suggested and is advanced by
// downstream collaborators (delivery, feedback); the scoring engine never
// moves it past suggested.
const (
	MatchStatusSuggested  = "suggested"
	MatchStatusSent       = "sent"
	MatchStatusInterested = "interested"
	MatchStatusRejected   = "rejected"
	MatchStatusClosed     = "closed"
)

// Match links one listing and one search request with a computed score.
// At most one row exists per (listing_id, request_id) pair; the score is
// written once at suggestion time and never refreshed on rescoring.
type Match struct {
	ID        string    `json:"id" db:"id"`
	ListingID string    `json:"listing_id" db:"listing_id"`
	RequestID string    `json:"request_id" db:"request_id"`
	Score     float64   `json:"score" db:"score"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateMatchStatusRequest advances a match's lifecycle status
type UpdateMatchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=suggested sent interested rejected closed"`
}
