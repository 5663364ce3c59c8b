package storage

import "time"

// Event is one dialogue exchange: the user's message and what the bot did with it.
// Events are appended in chronological order.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	UserID    string    `json:"user_id"`
	Flow      string    `json:"flow,omitempty"`
	Step      string    `json:"step,omitempty"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Outcome   Outcome   `json:"outcome"`
}

// Outcome classifies what an exchange achieved.
type Outcome string

const (
	OutcomePrompt      Outcome = "prompt"
	OutcomeReprompt    Outcome = "reprompt"
	OutcomeRecorded    Outcome = "recorded"
	OutcomeRecommended Outcome = "recommended"
	OutcomeCritical    Outcome = "critical"
	OutcomeCommand     Outcome = "command"
	OutcomeHelp        Outcome = "help"
	OutcomeFailed      Outcome = "failed"
)

// Recorder persists dialogue events.
// LoadEvents returns events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendEvent(event Event) error
	LoadEvents() ([]Event, error)
}
