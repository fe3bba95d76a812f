package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatrelay/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if created.Status != store.StatusOffline {
		t.Fatalf("expected new user to be offline, got %q", created.Status)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("expected same user, got %q vs %q", byName.ID, created.ID)
	}

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := s.UpdateUserStatus(ctx, user.ID, store.StatusOnline, nil); err != nil {
		t.Fatalf("UpdateUserStatus online failed: %v", err)
	}

	got, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Status != store.StatusOnline {
		t.Fatalf("expected online, got %q", got.Status)
	}
	if got.LastSeen != nil {
		t.Fatalf("going online must not set last_seen, got %v", got.LastSeen)
	}

	seen := time.Now().UTC().Truncate(time.Second)
	if err := s.UpdateUserStatus(ctx, user.ID, store.StatusOffline, &seen); err != nil {
		t.Fatalf("UpdateUserStatus offline failed: %v", err)
	}

	got, err = s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Status != store.StatusOffline {
		t.Fatalf("expected offline, got %q", got.Status)
	}
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Fatalf("expected last_seen %v, got %v", seen, got.LastSeen)
	}
}

func TestUpdateUserStatusUnknownUser(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateUserStatus(context.Background(), "ghost", store.StatusAway, nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
