package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Module provides authentication services.
type Module struct {
	db      *gorm.DB
	repo    *SessionRepository
	service *Service
	remote  RemoteAuth
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates an auth module on the shared database.
func NewModule(db *gorm.DB) *Module {
	return &Module{
		db:   db,
		repo: NewSessionRepository(db),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// SetRemote wires the remote login endpoint. Must be called before
// Start; the storeapi client in turn uses this module as its token
// source, so the two are wired in main.
func (m *Module) SetRemote(remote RemoteAuth) {
	m.remote = remote
}

// Token implements storeapi.TokenSource, delegating to the service once
// started. Before Start there is no session and no token.
func (m *Module) Token() string {
	if m.service == nil {
		return ""
	}
	return m.service.Token()
}

// Service returns the auth service.
func (m *Module) Service() *Service {
	return m.service
}

// Start migrates the auth tables and restores a persisted session.
func (m *Module) Start(_ context.Context) error {
	if m.remote == nil {
		return fmt.Errorf("remote auth endpoint not set")
	}
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate auth tables: %w", err)
	}

	m.service = NewService(m.repo, NewPasswordHasher(), NewJWTManager(loadJWTConfig()), m.remote)
	m.service.Restore()

	log.Println("[auth] Module started")
	return nil
}

// Stop shuts down the module. The shared database is closed by the
// application, not here.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health performs a database health check.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// RegisterServices registers request-reply services in the service
// container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "logout", json.Unmarshal, json.Marshal, m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register logout service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "session", json.Unmarshal, json.Marshal, m.handleSession,
	); err != nil {
		return fmt.Errorf("failed to register session service: %w", err)
	}

	log.Printf("[auth] Registered services: login, logout, validate-token, session")
	return nil
}

func (m *Module) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	tokens, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
		TokenType:   tokens.TokenType,
		Username:    tokens.Username,
	}, nil
}

func (m *Module) handleLogout(ctx context.Context, _ LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.service.Logout(ctx); err != nil {
		return LogoutResponse{}, err
	}
	return LogoutResponse{LoggedOut: true}, nil
}

func (m *Module) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		// Return a response, not an error, for validation failures.
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil
	}

	return ValidateTokenResponse{
		Valid:     true,
		SessionID: claims.SessionID,
		Username:  claims.Username,
	}, nil
}

func (m *Module) handleSession(_ context.Context, _ SessionRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.CurrentSession()
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{
		ID:        session.ID,
		Username:  session.Username,
		CreatedAt: session.CreatedAt,
	}, nil
}

// loadJWTConfig loads JWT configuration from environment variables.
func loadJWTConfig() JWTConfig {
	config := DefaultJWTConfig()

	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.SecretKey = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}

	return config
}
