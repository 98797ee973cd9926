package models

import "time"

// Intent is what a search request is looking for
type Intent string

const (
	IntentRent Intent = "rent"
	IntentBuy  Intent = "buy"
)

// SearchRequestStatus constants
const (
	SearchRequestStatusActive  = "active"
	SearchRequestStatusClosed  = "closed"
	SearchRequestStatusPending = "pending"
)

// SearchRequest represents the criteria of someone looking for a listing
type SearchRequest struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Intent       Intent    `json:"intent" db:"intent"`
	PropertyType *string   `json:"property_type,omitempty" db:"property_type"`
	City         *string   `json:"city,omitempty" db:"city"` // preferred city
	MinRooms     *float64  `json:"min_rooms,omitempty" db:"min_rooms"`
	MaxRooms     *float64  `json:"max_rooms,omitempty" db:"max_rooms"`
	MinPrice     *int64    `json:"min_price,omitempty" db:"min_price"`
	MaxPrice     *int64    `json:"max_price,omitempty" db:"max_price"`
	MinSize      *int64    `json:"min_size,omitempty" db:"min_size"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RequiredKind maps the request's intent to the listing transaction kind it
// can be paired with (rent -> rent, buy -> sale). The mapping is a hard
// filter, never part of the score.
func (r *SearchRequest) RequiredKind() TransactionKind {
	if r.Intent == IntentBuy {
		return TransactionKindSale
	}
	return TransactionKindRent
}

// MatchingIntent is the inverse mapping, from a listing's transaction kind to
// the request intent that can be paired with it.
func (k TransactionKind) MatchingIntent() Intent {
	if k == TransactionKindSale {
		return IntentBuy
	}
	return IntentRent
}

// CreateSearchRequestRequest is the request to register search criteria
type CreateSearchRequestRequest struct {
	Name         string   `json:"name" validate:"required"`
	Phone        *string  `json:"phone,omitempty"`
	Intent       Intent   `json:"intent" validate:"required,oneof=rent buy"`
	PropertyType *string  `json:"property_type,omitempty"`
	City         *string  `json:"city,omitempty"`
	MinRooms     *float64 `json:"min_rooms,omitempty"`
	MaxRooms     *float64 `json:"max_rooms,omitempty"`
	MinPrice     *int64   `json:"min_price,omitempty"`
	MaxPrice     *int64   `json:"max_price,omitempty"`
	MinSize      *int64   `json:"min_size,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// UpdateSearchRequestStatusRequest advances a request's activity status
type UpdateSearchRequestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active closed pending"`
}
