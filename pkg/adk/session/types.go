package session

import "time"

// StateKeySessionName is the single state key seeded at session creation with
// a human-readable display name derived from the first inbound message.
const StateKeySessionName = "session_name"

// Session represents an agent session
type Session struct {
	ID        string                 `json:"id"`
	AppName   string                 `json:"app_name"`
	UserID    string                 `json:"user_id"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	State     map[string]interface{} `json:"state,omitempty"`
}

// CreateSessionRequest represents a request to create a new session.
// SessionID is the desired identifier; backends honor it so that session
// addressing stays a pure function of the A2A context ID.
type CreateSessionRequest struct {
	AppName   string                 `json:"app_name"`
	UserID    string                 `json:"user_id"`
	SessionID string                 `json:"session_id,omitempty"`
	State     map[string]interface{} `json:"state,omitempty"`
}
