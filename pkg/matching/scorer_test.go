package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/regions"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(i int64) *int64     { return &i }

func newTestScorer() *Scorer {
	return NewScorer(regions.NewClassifier(regions.DefaultTable()), DefaultWeights())
}

func TestScoreFullMatch(t *testing.T) {
	s := newTestScorer()

	listing := &models.Listing{
		ID:    "l1",
		City:  "Tel Aviv",
		Rooms: 3,
		Size:  i64Ptr(100),
		Price: 5000,
		Kind:  models.TransactionKindRent,
	}
	req := &models.SearchRequest{
		ID:       "r1",
		Intent:   models.IntentRent,
		City:     strPtr("Tel Aviv"),
		MinRooms: f64Ptr(2),
		MaxRooms: f64Ptr(4),
		MaxPrice: i64Ptr(6000),
		MinSize:  i64Ptr(80),
	}

	score, reasons := s.Score(listing, req)

	assert.Equal(t, float64(100), score)
	require.Len(t, reasons, 4)
	assert.Equal(t, models.ReasonComponentLocation, reasons[0].Component)
	assert.Equal(t, models.ReasonComponentPrice, reasons[1].Component)
	assert.Equal(t, models.ReasonComponentRooms, reasons[2].Component)
	assert.Equal(t, models.ReasonComponentSize, reasons[3].Component)
	for _, r := range reasons {
		assert.Equal(t, models.ReasonSatisfied, r.Status)
	}
}

func TestScoreLocation(t *testing.T) {
	s := newTestScorer()

	req := &models.SearchRequest{Intent: models.IntentRent, City: strPtr("Tel Aviv")}

	t.Run("exact city", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{City: "Tel Aviv", Kind: models.TransactionKindRent}, req)
		assert.Equal(t, float64(55), score)
		assert.Len(t, reasons, 1)
		assert.Equal(t, models.ReasonSatisfied, reasons[0].Status)
	})

	t.Run("same region", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{City: "Ramat Gan", Kind: models.TransactionKindRent}, req)
		assert.Equal(t, float64(45), score)
		assert.Equal(t, models.ReasonBorderline, reasons[0].Status)
		assert.Equal(t, "same region", reasons[0].Detail)
	})

	t.Run("different area", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{City: "Haifa", Kind: models.TransactionKindRent}, req)
		assert.Equal(t, float64(25), score)
		assert.Equal(t, models.ReasonUnsatisfied, reasons[0].Status)
	})

	t.Run("no city preference", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{City: "Haifa", Kind: models.TransactionKindRent},
			&models.SearchRequest{Intent: models.IntentRent})
		assert.Equal(t, float64(30), score)
		assert.Empty(t, reasons)
	})
}

func TestScorePrice(t *testing.T) {
	s := newTestScorer()

	req := &models.SearchRequest{Intent: models.IntentRent, MaxPrice: i64Ptr(5000)}

	t.Run("within budget", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Price: 5000}, req)
		assert.Equal(t, float64(45), score)
		assert.Equal(t, models.ReasonSatisfied, reasons[0].Status)
	})

	t.Run("small overage", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Price: 5400}, req)
		assert.Equal(t, float64(40), score)
		assert.Equal(t, models.ReasonBorderline, reasons[0].Status)
		assert.Equal(t, "over budget by 8%", reasons[0].Detail)
	})

	t.Run("exactly at tolerance", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Price: 5500}, req)
		assert.Equal(t, float64(40), score)
		assert.Equal(t, models.ReasonBorderline, reasons[0].Status)
	})

	t.Run("over tolerance", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Price: 6500}, req)
		assert.Equal(t, float64(15), score)
		assert.Equal(t, models.ReasonUnsatisfied, reasons[0].Status)
		assert.Equal(t, "over budget by 30%", reasons[0].Detail)
	})
}

func TestScoreRooms(t *testing.T) {
	s := newTestScorer()

	req := &models.SearchRequest{Intent: models.IntentRent, MinRooms: f64Ptr(2), MaxRooms: f64Ptr(4)}

	t.Run("in range", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Rooms: 3}, req)
		assert.Equal(t, float64(50), score)
		assert.Equal(t, models.ReasonSatisfied, reasons[0].Status)
	})

	t.Run("boundary counts as in range", func(t *testing.T) {
		score, _ := s.Score(&models.Listing{Rooms: 4}, req)
		assert.Equal(t, float64(50), score)
	})

	t.Run("off by one", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Rooms: 5}, req)
		assert.Equal(t, float64(45), score)
		assert.Equal(t, models.ReasonBorderline, reasons[0].Status)
		assert.Equal(t, "off by 1.0 rooms", reasons[0].Detail)
	})

	t.Run("half room below range", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Rooms: 1.5}, req)
		assert.Equal(t, float64(47.5), score)
		assert.Equal(t, "off by 0.5 rooms", reasons[0].Detail)
	})

	t.Run("far outside range", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Rooms: 8}, req)
		assert.Equal(t, float64(30), score)
		assert.Equal(t, models.ReasonUnsatisfied, reasons[0].Status)
	})

	t.Run("single bound is not evaluated", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Rooms: 8},
			&models.SearchRequest{Intent: models.IntentRent, MinRooms: f64Ptr(2)})
		assert.Equal(t, float64(30), score)
		assert.Empty(t, reasons)
	})
}

func TestScoreSize(t *testing.T) {
	s := newTestScorer()

	req := &models.SearchRequest{Intent: models.IntentRent, MinSize: i64Ptr(100)}

	t.Run("meets minimum", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Size: i64Ptr(120)}, req)
		assert.Equal(t, float64(40), score)
		assert.Equal(t, models.ReasonSatisfied, reasons[0].Status)
	})

	t.Run("small shortfall", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Size: i64Ptr(90)}, req)
		assert.Equal(t, float64(35), score)
		assert.Equal(t, models.ReasonBorderline, reasons[0].Status)
		assert.Equal(t, "smaller than requested by 10%", reasons[0].Detail)
	})

	t.Run("large shortfall", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{Size: i64Ptr(40)}, req)
		assert.Equal(t, float64(30), score)
		assert.Equal(t, models.ReasonUnsatisfied, reasons[0].Status)
	})

	t.Run("listing without recorded size is not evaluated", func(t *testing.T) {
		score, reasons := s.Score(&models.Listing{}, req)
		assert.Equal(t, float64(30), score)
		assert.Empty(t, reasons)
	})
}

func TestScoreClamped(t *testing.T) {
	classifier := regions.NewClassifier(regions.DefaultTable())

	t.Run("upper bound", func(t *testing.T) {
		weights := DefaultWeights()
		weights.TransactionKind = 150
		s := NewScorer(classifier, weights)

		score, _ := s.Score(&models.Listing{City: "Tel Aviv"},
			&models.SearchRequest{City: strPtr("Tel Aviv")})
		assert.Equal(t, float64(100), score)
	})

	t.Run("lower bound", func(t *testing.T) {
		weights := DefaultWeights()
		weights.TransactionKind = 0
		s := NewScorer(classifier, weights)

		score, _ := s.Score(&models.Listing{City: "Haifa", Price: 9000},
			&models.SearchRequest{City: strPtr("Tel Aviv"), MaxPrice: i64Ptr(5000)})
		assert.Equal(t, float64(0), score)
	})
}

func TestScoreDeterministic(t *testing.T) {
	s := newTestScorer()

	listing := &models.Listing{
		City:  "Ramat Gan",
		Rooms: 4.5,
		Size:  i64Ptr(85),
		Price: 5300,
	}
	req := &models.SearchRequest{
		City:     strPtr("Tel Aviv"),
		MinRooms: f64Ptr(2),
		MaxRooms: f64Ptr(4),
		MaxPrice: i64Ptr(5000),
		MinSize:  i64Ptr(100),
	}

	score1, reasons1 := s.Score(listing, req)
	score2, reasons2 := s.Score(listing, req)

	assert.Equal(t, score1, score2)
	assert.Equal(t, reasons1, reasons2)
}
