package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/storeapi"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeRemoteAuth struct {
	token string
	err   error
	calls int
}

func (f *fakeRemoteAuth) Login(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func setupTestService(t *testing.T, remote RemoteAuth) (*Service, *SessionRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	repo := NewSessionRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	hasher := &PasswordHasher{cost: 4} // low cost keeps tests fast
	jwtManager := NewJWTManager(JWTConfig{
		SecretKey:     "test-secret",
		TokenDuration: time.Hour,
		Issuer:        "test",
	})
	return NewService(repo, hasher, jwtManager, remote), repo
}

func TestService_Login(t *testing.T) {
	remote := &fakeRemoteAuth{token: "upstream-token"}
	service, repo := setupTestService(t, remote)

	tokens, err := service.Login(context.Background(), "mor_2314", "83r5^_")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if tokens.AccessToken == "" {
		t.Error("expected a local session token")
	}
	if tokens.TokenType != "Bearer" {
		t.Errorf("expected Bearer token type, got %q", tokens.TokenType)
	}
	if tokens.Username != "mor_2314" {
		t.Errorf("expected username echoed, got %q", tokens.Username)
	}

	// The session is persisted and the upstream token is served to the
	// store client.
	session, err := repo.CurrentSession()
	if err != nil {
		t.Fatalf("CurrentSession() error = %v", err)
	}
	if session.Username != "mor_2314" {
		t.Errorf("expected persisted session for mor_2314, got %q", session.Username)
	}
	if service.Token() != "upstream-token" {
		t.Errorf("expected upstream token, got %q", service.Token())
	}

	// The credential cache holds a hash, never the password.
	cred, err := repo.FindCredential("mor_2314")
	if err != nil {
		t.Fatalf("FindCredential() error = %v", err)
	}
	if cred.PasswordHash == "83r5^_" {
		t.Error("credential cache must not hold the plain password")
	}
}

func TestService_LoginRejected(t *testing.T) {
	remote := &fakeRemoteAuth{err: storeapi.ErrAuth}
	service, _ := setupTestService(t, remote)

	_, err := service.Login(context.Background(), "nobody", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if service.Token() != "" {
		t.Error("expected no token after rejected login")
	}
}

func TestService_EmptyCredentials(t *testing.T) {
	remote := &fakeRemoteAuth{token: "upstream-token"}
	service, _ := setupTestService(t, remote)

	if _, err := service.Login(context.Background(), "", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for empty username, got %v", err)
	}
	if remote.calls != 0 {
		t.Error("expected no remote call for empty credentials")
	}
}

func TestService_OfflineLogin(t *testing.T) {
	remote := &fakeRemoteAuth{token: "upstream-token"}
	service, _ := setupTestService(t, remote)

	// First login online caches the credential.
	if _, err := service.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// The store goes dark; the cached credential still works.
	remote.err = fmt.Errorf("%w: connection refused", storeapi.ErrNetwork)

	t.Run("matching cached credential reuses the upstream token", func(t *testing.T) {
		tokens, err := service.Login(context.Background(), "mor_2314", "83r5^_")
		if err != nil {
			t.Fatalf("offline Login() error = %v", err)
		}
		if tokens.AccessToken == "" {
			t.Error("expected a local session token from offline login")
		}
		if service.Token() != "upstream-token" {
			t.Errorf("expected cached upstream token reused, got %q", service.Token())
		}
	})

	t.Run("wrong password fails even with a cached credential", func(t *testing.T) {
		if _, err := service.Login(context.Background(), "mor_2314", "wrong"); err == nil {
			t.Fatal("expected offline login with wrong password to fail")
		}
	})

	t.Run("unknown user fails", func(t *testing.T) {
		if _, err := service.Login(context.Background(), "stranger", "83r5^_"); err == nil {
			t.Fatal("expected offline login for unknown user to fail")
		}
	})
}

func TestService_ValidateToken(t *testing.T) {
	remote := &fakeRemoteAuth{token: "upstream-token"}
	service, _ := setupTestService(t, remote)

	tokens, err := service.Login(context.Background(), "mor_2314", "83r5^_")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	claims, err := service.ValidateToken(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "mor_2314" {
		t.Errorf("expected username in claims, got %q", claims.Username)
	}

	// A token from a replaced session no longer validates.
	if _, err := service.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if _, err := service.ValidateToken(context.Background(), tokens.AccessToken); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for stale session, got %v", err)
	}
}

func TestService_Logout(t *testing.T) {
	remote := &fakeRemoteAuth{token: "upstream-token"}
	service, repo := setupTestService(t, remote)

	tokens, err := service.Login(context.Background(), "mor_2314", "83r5^_")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := service.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if service.Token() != "" {
		t.Error("expected empty token after logout")
	}
	if _, err := service.CurrentSession(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
	if _, err := repo.CurrentSession(); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected no persisted session, got %v", err)
	}
	if _, err := service.ValidateToken(context.Background(), tokens.AccessToken); err == nil {
		t.Error("expected token to stop validating after logout")
	}
}

func TestService_Restore(t *testing.T) {
	remote := &fakeRemoteAuth{token: "upstream-token"}
	service, repo := setupTestService(t, remote)

	if _, err := service.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// A new service over the same database picks the session back up.
	hasher := &PasswordHasher{cost: 4}
	jwtManager := NewJWTManager(JWTConfig{
		SecretKey:     "test-secret",
		TokenDuration: time.Hour,
		Issuer:        "test",
	})
	restored := NewService(repo, hasher, jwtManager, remote)
	restored.Restore()

	session, err := restored.CurrentSession()
	if err != nil {
		t.Fatalf("CurrentSession() after restore error = %v", err)
	}
	if session.Username != "mor_2314" {
		t.Errorf("expected restored session for mor_2314, got %q", session.Username)
	}
	if restored.Token() != "upstream-token" {
		t.Errorf("expected restored upstream token, got %q", restored.Token())
	}
}
