// Package events handles event emission for match lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Emitter publishes match lifecycle events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitMatchesSuggested emits one match.suggested event per new suggestion,
// published to Kafka as a single batch
func (e *Emitter) EmitMatchesSuggested(ctx context.Context, suggestions []models.MatchSuggestion) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchesSuggested")
	defer span.End()

	if len(suggestions) == 0 {
		return nil
	}

	batch := make([]*kafka.MatchEvent, 0, len(suggestions))
	for _, s := range suggestions {
		payload := SuggestionPayload{
			SchemaVersion: SchemaVersion,
			Reasons:       make([]Reason, 0, len(s.Reasons)),
		}
		for _, r := range s.Reasons {
			payload.Reasons = append(payload.Reasons, Reason{
				Component: r.Component,
				Status:    string(r.Status),
				Detail:    r.Detail,
			})
		}
		data, _ := json.Marshal(payload)

		batch = append(batch, &kafka.MatchEvent{
			EventType: string(EventTypeMatchSuggested),
			MatchID:   s.Match.ID,
			ListingID: s.Match.ListingID,
			RequestID: s.Match.RequestID,
			Score:     s.Match.Score,
			Status:    s.Match.Status,
			Data:      data,
		})
	}

	if err := e.producer.PublishMatchEvents(ctx, batch); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit match.suggested events")
		return err
	}

	return nil
}

// EmitMatchStatusChanged emits a match.status_changed event
func (e *Emitter) EmitMatchStatusChanged(ctx context.Context, match *models.Match, previousStatus string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchStatusChanged")
	defer span.End()

	payload := StatusChangePayload{
		SchemaVersion:  SchemaVersion,
		PreviousStatus: previousStatus,
	}
	data, _ := json.Marshal(payload)

	event := &kafka.MatchEvent{
		EventType: string(EventTypeMatchStatusChanged),
		MatchID:   match.ID,
		ListingID: match.ListingID,
		RequestID: match.RequestID,
		Score:     match.Score,
		Status:    match.Status,
		Data:      data,
	}

	if err := e.producer.PublishMatchEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit match.status_changed event")
		return err
	}

	return nil
}
