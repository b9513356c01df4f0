package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/storeapi"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when the store API rejects the
	// login and no usable cached credential exists.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotLoggedIn is returned when an operation needs a session and
	// none exists.
	ErrNotLoggedIn = errors.New("not logged in")
)

// RemoteAuth is the remote login endpoint consumed by the service.
type RemoteAuth interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Tokens is the result of a successful login.
type Tokens struct {
	AccessToken string
	ExpiresIn   int64
	TokenType   string
	Username    string
}

// Service handles login against the remote store API, session
// persistence, and local API session tokens. It also acts as the bearer
// token source for outbound store-API requests.
type Service struct {
	repo   *SessionRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	remote RemoteAuth

	mu      sync.RWMutex
	current *Session
}

// NewService creates a new auth service.
func NewService(repo *SessionRepository, hasher *PasswordHasher, jwtManager *JWTManager, remote RemoteAuth) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		jwt:    jwtManager,
		remote: remote,
	}
}

// Restore loads a persisted session so a logged-in user survives a
// restart.
func (s *Service) Restore() {
	session, err := s.repo.CurrentSession()
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			log.Printf("[auth] failed to restore session: %v", err)
		}
		return
	}
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
	log.Printf("[auth] Restored session for %s", session.Username)
}

// Login exchanges credentials for an upstream token, persists the
// session, and issues a local API token. When the remote endpoint is
// unreachable and the credentials match the cached hash of the last
// successful login, the cached upstream token is reused.
func (s *Service) Login(ctx context.Context, username, password string) (*Tokens, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	upstreamToken, err := s.remote.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, storeapi.ErrAuth) {
			return nil, ErrInvalidCredentials
		}
		if errors.Is(err, storeapi.ErrNetwork) {
			if token, ok := s.offlineLogin(username, password); ok {
				log.Printf("[auth] Remote login unreachable, using cached credential for %s", username)
				return s.establishSession(username, token)
			}
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	cred := &Credential{
		Username:      username,
		PasswordHash:  hash,
		UpstreamToken: upstreamToken,
		UpdatedAt:     time.Now(),
	}
	if err := s.repo.SaveCredential(cred); err != nil {
		log.Printf("[auth] failed to cache credential: %v", err)
	}

	return s.establishSession(username, upstreamToken)
}

func (s *Service) offlineLogin(username, password string) (string, bool) {
	cred, err := s.repo.FindCredential(username)
	if err != nil {
		return "", false
	}
	if !s.hasher.Verify(password, cred.PasswordHash) {
		return "", false
	}
	return cred.UpstreamToken, true
}

func (s *Service) establishSession(username, upstreamToken string) (*Tokens, error) {
	session := &Session{
		ID:            uuid.New().String(),
		Username:      username,
		UpstreamToken: upstreamToken,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.ReplaceSession(session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	accessToken, err := s.jwt.GenerateToken(session.ID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &Tokens{
		AccessToken: accessToken,
		ExpiresIn:   s.jwt.TokenDuration(),
		TokenType:   "Bearer",
		Username:    username,
	}, nil
}

// Logout clears the persisted session.
func (s *Service) Logout(_ context.Context) error {
	if err := s.repo.ClearSessions(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// ValidateToken validates a local API session token and checks the
// session is still active.
func (s *Service) ValidateToken(_ context.Context, token string) (*JWTClaims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current == nil || current.ID != claims.SessionID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CurrentSession returns the active session, or ErrNotLoggedIn.
func (s *Service) CurrentSession() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNotLoggedIn
	}
	session := *s.current
	return &session, nil
}

// Token implements storeapi.TokenSource: the current upstream token, or
// the empty string when logged out.
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.UpstreamToken
}
