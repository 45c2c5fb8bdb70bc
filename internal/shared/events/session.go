package events

import "time"

// SessionState names the two states a client session moves between.
type SessionState string

const (
	StateSignedOut SessionState = "signed_out"
	StateSignedIn  SessionState = "signed_in"
)

// SessionTransition is published whenever a session changes identity.
type SessionTransition struct {
	SessionID    string       `json:"sessionId"`
	From         SessionState `json:"from"`
	To           SessionState `json:"to"`
	UserID       string       `json:"userId,omitempty"`
	PreviousUser string       `json:"previousUserId,omitempty"`
	At           time.Time    `json:"at"`
}

// SessionClosed is emitted when a session is closed explicitly or swept for idleness.
type SessionClosed struct {
	SessionID string    `json:"sessionId"`
	Reason    string    `json:"reason"`
	ClosedAt  time.Time `json:"closedAt"`
}
