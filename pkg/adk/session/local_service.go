package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
)

// LocalService implements the Service interface on an embedded database.
// It backs local mode, where no KAgent control plane is available. SQLite is
// the default; a postgres DSN switches drivers.
type LocalService struct {
	db *gorm.DB
}

type sessionRecord struct {
	ID        string `gorm:"primaryKey"`
	AppName   string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string { return "sessions" }

// NewLocalService opens the session database and runs migrations.
// An empty DSN yields a shared in-memory SQLite database.
func NewLocalService(dsn string) (*LocalService, error) {
	var dialector gorm.Dialector
	switch {
	case dsn == "":
		dialector = sqlite.Open("file::memory:?cache=shared")
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionCreate, "failed to open session database", err)
	}

	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionCreate, "failed to migrate session schema", err)
	}

	return &LocalService{db: db}, nil
}

// CreateSession inserts the session, ignoring a concurrent insert of the same
// identity, then reads the winning row back. Two racing first-requests for a
// brand-new context both end up with the same session.
func (s *LocalService) CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	if req == nil || req.SessionID == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "session id is required", nil)
	}

	state := "{}"
	if len(req.State) > 0 {
		data, err := json.Marshal(req.State)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeSessionCreate, "failed to encode session state", err)
		}
		state = string(data)
	}

	record := sessionRecord{
		ID:      req.SessionID,
		AppName: req.AppName,
		UserID:  req.UserID,
		State:   state,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionCreate, "failed to create session", err)
	}

	return s.GetSession(ctx, req.AppName, req.UserID, req.SessionID)
}

func (s *LocalService) GetSession(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	var record sessionRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND app_name = ? AND user_id = ?", sessionID, appName, userID).
		First(&record).Error
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionGet, "session not found", err)
	}
	return record.toSession(), nil
}

func (s *LocalService) ListSessions(ctx context.Context, appName, userID string) ([]*Session, error) {
	var records []sessionRecord
	err := s.db.WithContext(ctx).
		Where("app_name = ? AND user_id = ?", appName, userID).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionGet, "failed to list sessions", err)
	}

	sessions := make([]*Session, 0, len(records))
	for i := range records {
		sessions = append(sessions, records[i].toSession())
	}
	return sessions, nil
}

func (s *LocalService) DeleteSession(ctx context.Context, appName, userID, sessionID string) error {
	err := s.db.WithContext(ctx).
		Where("id = ? AND app_name = ? AND user_id = ?", sessionID, appName, userID).
		Delete(&sessionRecord{}).Error
	if err != nil {
		return apperrors.New(apperrors.ErrCodeSessionDelete, "failed to delete session", err)
	}
	return nil
}

func (r *sessionRecord) toSession() *Session {
	var state map[string]interface{}
	if r.State != "" {
		// Stale rows with unreadable state degrade to an empty state map
		_ = json.Unmarshal([]byte(r.State), &state)
	}
	return &Session{
		ID:        r.ID,
		AppName:   r.AppName,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		State:     state,
	}
}
