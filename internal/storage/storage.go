package storage

import "time"

// Event is one recorded chat exchange. Events are appended in the order the
// replies were produced.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id,omitempty"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Model       string    `json:"model,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// LoadInteractions should return events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
