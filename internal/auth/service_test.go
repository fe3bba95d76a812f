package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatrelay/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig)
}

func TestRegister_RejectsInvalidUsername(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}

	// Should be validated after trimming whitespace.
	if _, err := svc.Register(ctx, " ab ", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestRegister_RejectsInvalidPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "abc", "12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_TrimsUsernameAndCreatesUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, " alice ", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	// Should collide because the stored username is trimmed.
	if _, err := svc.Register(ctx, "alice", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticate_AcceptsIssuedToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("expected handshake success, got %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthenticate_RejectsGarbageToken(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Authenticate(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("expected error for garbage token")
	}
}

func TestAuthenticate_RejectsExpiredToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	user, err := svc.store.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	expiredCfg := *svc.jwtConfig
	expiredCfg.TTL = -time.Minute
	token, err := GenerateToken(&expiredCfg, user.ID, user.Username)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.Authenticate(ctx, token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAuthenticate_RejectsUnknownUser(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := GenerateToken(svc.jwtConfig, "ghost-id", "ghost")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
