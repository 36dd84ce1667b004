package events

import "time"

const (
	TypeRunCompleted = "RUN_COMPLETED"
	TypeRunFailed    = "RUN_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "RUN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// RunEvent describes one finished workflow run
type RunEvent struct {
	SessionID     string   `json:"session_id"`
	Question      string   `json:"question"`
	Outcome       string   `json:"outcome,omitempty"`
	Path          []string `json:"path"`
	RephraseCount int      `json:"rephrase_count"`
	Resumed       bool     `json:"resumed"`
	DurationMs    int64    `json:"duration_ms"`
	ErrorKind     string   `json:"error_kind,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func NewRunEvent(run RunEvent, at time.Time) BaseEvent {
	eventType := TypeRunCompleted
	if run.ErrorKind != "" {
		eventType = TypeRunFailed
	}

	data := map[string]interface{}{
		"session_id":     run.SessionID,
		"question":       run.Question,
		"path":           run.Path,
		"rephrase_count": run.RephraseCount,
		"resumed":        run.Resumed,
		"duration_ms":    run.DurationMs,
	}
	if run.Outcome != "" {
		data["outcome"] = run.Outcome
	}
	if run.ErrorKind != "" {
		data["error_kind"] = run.ErrorKind
		data["error"] = run.Error
	}

	return BaseEvent{Type: eventType, Data: data, OccurredAt: at}
}
