package models

import "time"

// TransactionKind is the transaction a listing is offered for
type TransactionKind string

const (
	TransactionKindRent TransactionKind = "rent"
	TransactionKindSale TransactionKind = "sale"
)

// ListingStatus constants
const (
	ListingStatusAvailable = "available"
	ListingStatusRented    = "rented"
	ListingStatusSold      = "sold"
	ListingStatusPending   = "pending"
)

// Listing represents a property record offered for rent or sale
type Listing struct {
	ID           string          `json:"id" db:"id"`
	PropertyType string          `json:"property_type" db:"property_type"`
	City         string          `json:"city" db:"city"`
	Street       *string         `json:"street,omitempty" db:"street"`
	Address      *string         `json:"address,omitempty" db:"address"`
	Rooms        float64         `json:"rooms" db:"rooms"` // fractional counts allowed (2.5, 3.5)
	Size         *int64          `json:"size,omitempty" db:"size"`
	Floor        *int64          `json:"floor,omitempty" db:"floor"`
	Price        int64           `json:"price" db:"price"`
	Kind         TransactionKind `json:"transaction_kind" db:"transaction_kind"`
	OwnerName    *string         `json:"owner_name,omitempty" db:"owner_name"`
	OwnerPhone   *string         `json:"owner_phone,omitempty" db:"owner_phone"`
	Description  *string         `json:"description,omitempty" db:"description"`
	Status       string          `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateListingRequest is the request to create a listing
type CreateListingRequest struct {
	PropertyType string          `json:"property_type" validate:"required"`
	City         string          `json:"city" validate:"required"`
	Street       *string         `json:"street,omitempty"`
	Address      *string         `json:"address,omitempty"`
	Rooms        float64         `json:"rooms" validate:"gte=0"`
	Size         *int64          `json:"size,omitempty"`
	Floor        *int64          `json:"floor,omitempty"`
	Price        int64           `json:"price" validate:"required,gt=0"`
	Kind         TransactionKind `json:"transaction_kind" validate:"required,oneof=rent sale"`
	OwnerName    *string         `json:"owner_name,omitempty"`
	OwnerPhone   *string         `json:"owner_phone,omitempty"`
	Description  *string         `json:"description,omitempty"`
}

// UpdateListingStatusRequest advances a listing's availability status
type UpdateListingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available rented sold pending"`
}
