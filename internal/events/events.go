package events

import "time"

const (
	TypeState      = "session.state" // a workflow step changed the session state
	TypeMoved      = "file.moved"
	TypeMoveFailed = "file.move_failed"
)

type Event struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	State         string    `json:"state,omitempty"`
	FileID        string    `json:"file_id,omitempty"`
	DestinationID string    `json:"destination_id,omitempty"`
	Message       string    `json:"message,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher receives session events. A nil Publisher is valid and drops them.
type Publisher interface {
	Publish(Event)
}
