package events

// EventType defines the type of event
type EventType string

const (
	// EventTypeMatchSuggested is emitted once per pair, when the match row is
	// first created
	EventTypeMatchSuggested EventType = "match.suggested"
	// EventTypeMatchStatusChanged is emitted when a match advances through
	// its lifecycle (sent, interested, rejected, closed)
	EventTypeMatchStatusChanged EventType = "match.status_changed"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// SuggestionPayload is the data carried by a match.suggested event
type SuggestionPayload struct {
	SchemaVersion string   `json:"schema_version"`
	Reasons       []Reason `json:"reasons,omitempty"`
}

// Reason mirrors the score breakdown of the suggestion
type Reason struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Detail    string `json:"detail"`
}

// StatusChangePayload is the data carried by a match.status_changed event
type StatusChangePayload struct {
	SchemaVersion  string `json:"schema_version"`
	PreviousStatus string `json:"previous_status,omitempty"`
}
