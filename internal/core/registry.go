package core

// Registry tracks active sessions per user id. Presence is derived from the
// session count, not a single slot, so several simultaneous connections for
// one identity behave correctly: the user is online while at least one
// session remains. The registry is only mutated from the hub loop and needs
// no locking.
type Registry struct {
	byUser map[string]map[string]*Session
	total  int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]map[string]*Session)}
}

// Add registers a session under its user id. Returns true if this is the
// user's first active session.
func (r *Registry) Add(s *Session) bool {
	sessions, ok := r.byUser[s.UserID]
	if !ok {
		sessions = make(map[string]*Session)
		r.byUser[s.UserID] = sessions
	}
	if _, exists := sessions[s.ID]; exists {
		return false
	}
	sessions[s.ID] = s
	r.total++
	return len(sessions) == 1
}

// Remove deregisters a session. removed reports whether the session was
// present; last reports whether the user has no remaining active sessions.
func (r *Registry) Remove(s *Session) (removed, last bool) {
	sessions, ok := r.byUser[s.UserID]
	if !ok {
		return false, false
	}
	if _, exists := sessions[s.ID]; !exists {
		return false, false
	}
	delete(sessions, s.ID)
	r.total--
	if len(sessions) == 0 {
		delete(r.byUser, s.UserID)
		return true, true
	}
	return true, false
}

// Has reports whether the exact session is registered.
func (r *Registry) Has(s *Session) bool {
	sessions, ok := r.byUser[s.UserID]
	if !ok {
		return false
	}
	got, exists := sessions[s.ID]
	return exists && got == s
}

// IsOnline reports whether the user has at least one active session.
func (r *Registry) IsOnline(userID string) bool {
	return len(r.byUser[userID]) > 0
}

// SessionsFor returns the user's active sessions.
func (r *Registry) SessionsFor(userID string) []*Session {
	sessions := r.byUser[userID]
	out := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s)
	}
	return out
}

// Each calls fn for every active session.
func (r *Registry) Each(fn func(*Session)) {
	for _, sessions := range r.byUser {
		for _, s := range sessions {
			fn(s)
		}
	}
}

// Len returns the total number of active sessions.
func (r *Registry) Len() int {
	return r.total
}
