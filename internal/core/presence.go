package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"chatrelay/internal/store"
)

const presenceWriteTimeout = 3 * time.Second

// Tracker turns registry transitions and explicit status requests into
// presence events and persists them through the data collaborator. There is
// exactly one canonical status per user at any instant: connection-derived
// online/offline from session counting, or whatever the user last requested.
type Tracker struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewTracker creates a presence tracker. store may be nil in tests; presence
// events are still emitted, just not persisted.
func NewTracker(st store.UserStore, logger *zerolog.Logger) *Tracker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Tracker{store: st, log: logger}
}

// WentOnline records that the user's first session connected.
func (t *Tracker) WentOnline(ctx context.Context, userID string) *Event {
	t.persist(ctx, userID, store.StatusOnline, nil)
	return &Event{
		Kind:   EventUserOnline,
		UserID: userID,
		Status: store.StatusOnline,
	}
}

// WentOffline records that the user's last session disconnected. lastSeen is
// the disconnect time.
func (t *Tracker) WentOffline(ctx context.Context, userID string) *Event {
	now := time.Now()
	t.persist(ctx, userID, store.StatusOffline, &now)
	return &Event{
		Kind:     EventUserOffline,
		UserID:   userID,
		Status:   store.StatusOffline,
		LastSeen: &now,
	}
}

// SetStatus applies an explicit status request. The literal requested value
// always wins, independent of connection-derived state. Returns nil for an
// unknown status value.
func (t *Tracker) SetStatus(ctx context.Context, userID string, status store.Status) *Event {
	if !status.Valid() {
		t.log.Warn().Str("user_id", userID).Str("status", string(status)).Msg("dropping unknown status value")
		return nil
	}

	var lastSeen *time.Time
	if status == store.StatusOffline {
		now := time.Now()
		lastSeen = &now
	}
	t.persist(ctx, userID, status, lastSeen)

	return &Event{
		Kind:     EventUserStatusChanged,
		UserID:   userID,
		Status:   status,
		LastSeen: lastSeen,
	}
}

func (t *Tracker) persist(ctx context.Context, userID string, status store.Status, lastSeen *time.Time) {
	if t.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, presenceWriteTimeout)
	defer cancel()

	if err := t.store.UpdateUserStatus(ctx, userID, status, lastSeen); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			t.log.Warn().Str("user_id", userID).Msg("presence write for unknown user")
			return
		}
		t.log.Error().Err(err).Str("user_id", userID).Str("status", string(status)).Msg("failed to persist presence")
	}
}
