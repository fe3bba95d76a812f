package core

import "time"

// Session is one live connection with a verified identity. A user may hold
// several sessions at once (multi-device); each gets its own channels.
// Sessions are ephemeral and destroyed on disconnect.
type Session struct {
	ID          string
	UserID      string
	Name        string
	ConnectedAt time.Time
	Commands    chan *Command
	Events      chan *Event
	Rooms       map[string]struct{}
}

// NewSession constructs a session with initialized channels.
func NewSession(id, userID, name string) *Session {
	if name == "" {
		name = userID
	}
	return &Session{
		ID:          id,
		UserID:      userID,
		Name:        name,
		ConnectedAt: time.Now(),
		Commands:    make(chan *Command, 8),
		Events:      make(chan *Event, 32),
		Rooms:       make(map[string]struct{}),
	}
}

// send delivers an event without blocking. Returns false if the session's
// event buffer is full and the event was dropped.
func (s *Session) send(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
