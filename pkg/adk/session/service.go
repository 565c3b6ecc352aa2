package session

import (
	"context"
)

// Service defines the interface for session management. Creation must be
// idempotent with respect to the desired session ID: concurrent first
// requests for the same context may race lookup-then-create, and the second
// create must converge on the existing session rather than fail.
type Service interface {
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, appName, userID, sessionID string) (*Session, error)
	ListSessions(ctx context.Context, appName, userID string) ([]*Session, error)
	DeleteSession(ctx context.Context, appName, userID, sessionID string) error
}
