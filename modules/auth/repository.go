package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when no session is persisted.
var ErrSessionNotFound = errors.New("session not found")

// ErrCredentialNotFound is returned when no cached credential exists for
// a username.
var ErrCredentialNotFound = errors.New("credential not found")

// SessionRepository persists the login session and the offline
// credential cache.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Migrate creates or updates the auth tables.
func (r *SessionRepository) Migrate() error {
	return r.db.AutoMigrate(&Session{}, &Credential{})
}

// ReplaceSession deletes any existing session and persists the given
// one; the app holds at most one login at a time.
func (r *SessionRepository) ReplaceSession(session *Session) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM sessions").Error; err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
		return nil
	})
}

// CurrentSession returns the persisted session, if any.
func (r *SessionRepository) CurrentSession() (*Session, error) {
	var session Session
	if err := r.db.Order("created_at DESC").First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// ClearSessions removes every persisted session.
func (r *SessionRepository) ClearSessions() error {
	if err := r.db.Exec("DELETE FROM sessions").Error; err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

// SaveCredential upserts the cached credential for a username.
func (r *SessionRepository) SaveCredential(cred *Credential) error {
	if err := r.db.Save(cred).Error; err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// FindCredential returns the cached credential for a username.
func (r *SessionRepository) FindCredential(username string) (*Credential, error) {
	var cred Credential
	if err := r.db.First(&cred, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return &cred, nil
}
