// Package matching implements listing/request compatibility scoring and the
// ranking workflows built on top of it.
package matching

import (
	"fmt"
	"math"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/regions"
)

// Weights holds the scoring weights for each criterion. The raw weighted sum
// is clamped to [0,100].
type Weights struct {
	TransactionKind float64 // granted unconditionally; callers pre-filter by kind

	CityExact    float64
	CityRegion   float64
	CityMismatch float64 // negative: a stated and unmet preference is penalized

	RoomsInRange  float64
	RoomsDecay    float64 // points lost per room of distance outside the range

	PriceWithinBudget float64
	PriceSmallOverage float64
	PriceOverPenalty  float64 // negative, applied beyond the tolerated overage
	PriceTolerance    float64 // fraction over budget still tolerated

	SizeMeetsMinimum float64
	SizeDecay        float64 // multiplier on the relative shortfall
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		TransactionKind:   30,
		CityExact:         25,
		CityRegion:        15,
		CityMismatch:      -5,
		RoomsInRange:      20,
		RoomsDecay:        5,
		PriceWithinBudget: 15,
		PriceSmallOverage: 10,
		PriceOverPenalty:  -15,
		PriceTolerance:    0.10,
		SizeMeetsMinimum:  10,
		SizeDecay:         50,
	}
}

// Scorer computes a compatibility score between one listing and one search
// request. It is pure: no I/O, no mutation, safe for concurrent use.
type Scorer struct {
	regions *regions.Classifier
	weights Weights
}

// NewScorer creates a scorer over an immutable region classifier.
func NewScorer(classifier *regions.Classifier, weights Weights) *Scorer {
	return &Scorer{
		regions: classifier,
		weights: weights,
	}
}

// Score computes the compatibility score in [0,100] together with one reason
// per evaluated criterion, in display order (location, price, rooms, size).
// Criteria the request leaves unspecified contribute nothing and produce no
// reason. The caller guarantees the listing's transaction kind already
// matches the request's intent; that criterion is granted unconditionally.
func (s *Scorer) Score(listing *models.Listing, req *models.SearchRequest) (float64, []models.Reason) {
	score := s.weights.TransactionKind
	reasons := make([]models.Reason, 0, 4)

	// Location
	if req.City != nil && *req.City != "" {
		switch {
		case listing.City == *req.City:
			score += s.weights.CityExact
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentLocation,
				Status:    models.ReasonSatisfied,
				Detail:    "exact city match",
			})
		case s.regions.SameRegion(listing.City, *req.City):
			score += s.weights.CityRegion
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentLocation,
				Status:    models.ReasonBorderline,
				Detail:    "same region",
			})
		default:
			score += s.weights.CityMismatch
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentLocation,
				Status:    models.ReasonUnsatisfied,
				Detail:    "different area",
			})
		}
	}

	// Price
	if req.MaxPrice != nil {
		ceiling := float64(*req.MaxPrice)
		price := float64(listing.Price)
		if price <= ceiling {
			score += s.weights.PriceWithinBudget
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentPrice,
				Status:    models.ReasonSatisfied,
				Detail:    "within budget",
			})
		} else {
			overPct := (price - ceiling) / ceiling
			detail := fmt.Sprintf("over budget by %.0f%%", overPct*100)
			if overPct <= s.weights.PriceTolerance {
				score += s.weights.PriceSmallOverage
				reasons = append(reasons, models.Reason{
					Component: models.ReasonComponentPrice,
					Status:    models.ReasonBorderline,
					Detail:    detail,
				})
			} else {
				score += s.weights.PriceOverPenalty
				reasons = append(reasons, models.Reason{
					Component: models.ReasonComponentPrice,
					Status:    models.ReasonUnsatisfied,
					Detail:    detail,
				})
			}
		}
	}

	// Room count: evaluated only when both bounds are stated
	if req.MinRooms != nil && req.MaxRooms != nil {
		if listing.Rooms >= *req.MinRooms && listing.Rooms <= *req.MaxRooms {
			score += s.weights.RoomsInRange
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentRooms,
				Status:    models.ReasonSatisfied,
				Detail:    "room count in range",
			})
		} else {
			dist := math.Min(
				math.Abs(listing.Rooms-*req.MinRooms),
				math.Abs(listing.Rooms-*req.MaxRooms),
			)
			credit := math.Max(0, s.weights.RoomsInRange-dist*s.weights.RoomsDecay)
			score += credit

			status := models.ReasonUnsatisfied
			if credit > 0 {
				status = models.ReasonBorderline
			}
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentRooms,
				Status:    status,
				Detail:    fmt.Sprintf("off by %.1f rooms", dist),
			})
		}
	}

	// Size: evaluated only when the request states a minimum and the listing
	// has a recorded floor area
	if req.MinSize != nil && listing.Size != nil {
		minSize := float64(*req.MinSize)
		size := float64(*listing.Size)
		if size >= minSize {
			score += s.weights.SizeMeetsMinimum
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentSize,
				Status:    models.ReasonSatisfied,
				Detail:    "meets minimum size",
			})
		} else {
			shortfall := (minSize - size) / minSize
			credit := math.Max(0, s.weights.SizeMeetsMinimum-shortfall*s.weights.SizeDecay)
			score += credit

			status := models.ReasonUnsatisfied
			if credit > 0 {
				status = models.ReasonBorderline
			}
			reasons = append(reasons, models.Reason{
				Component: models.ReasonComponentSize,
				Status:    status,
				Detail:    fmt.Sprintf("smaller than requested by %.0f%%", shortfall*100),
			})
		}
	}

	return clamp(score, 0, 100), reasons
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
