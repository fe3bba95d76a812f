package core

// Room groups sessions subscribed to the same broadcast target. A room id is
// either a chat id or a user id (the user's personal room).
type Room struct {
	ID       string
	sessions map[*Session]struct{}
}

// NewRoom constructs a room with no sessions.
func NewRoom(id string) *Room {
	return &Room{
		ID:       id,
		sessions: make(map[*Session]struct{}),
	}
}

// Add inserts a session into the room. Returns true if newly added.
func (r *Room) Add(s *Session) bool {
	if _, exists := r.sessions[s]; exists {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// Remove deletes a session from the room. Returns true if removed.
func (r *Room) Remove(s *Session) bool {
	if _, exists := r.sessions[s]; !exists {
		return false
	}
	delete(r.sessions, s)
	return true
}

// BroadcastExcept sends an event to every session in the room except the
// given one. Slow consumers are dropped, not retried.
func (r *Room) BroadcastExcept(ev *Event, except *Session) {
	for s := range r.sessions {
		if s == except {
			continue
		}
		s.send(ev)
	}
}

// Empty returns true if no sessions are in the room.
func (r *Room) Empty() bool {
	return len(r.sessions) == 0
}
