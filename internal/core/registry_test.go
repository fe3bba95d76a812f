package core

import "testing"

func TestRegistryReferenceCountsSessions(t *testing.T) {
	reg := NewRegistry()

	phone := NewSession("s1", "u1", "alice")
	laptop := NewSession("s2", "u1", "alice")

	if first := reg.Add(phone); !first {
		t.Fatalf("first session should report first=true")
	}
	if first := reg.Add(laptop); first {
		t.Fatalf("second session for same user should report first=false")
	}
	if !reg.IsOnline("u1") {
		t.Fatalf("user with two sessions should be online")
	}

	// Dropping one of two sessions must keep the user online. This is the
	// multi-device case a single-slot map gets wrong.
	removed, last := reg.Remove(phone)
	if !removed || last {
		t.Fatalf("expected removed=true last=false, got removed=%v last=%v", removed, last)
	}
	if !reg.IsOnline("u1") {
		t.Fatalf("user must stay online while one session remains")
	}

	removed, last = reg.Remove(laptop)
	if !removed || !last {
		t.Fatalf("expected removed=true last=true, got removed=%v last=%v", removed, last)
	}
	if reg.IsOnline("u1") {
		t.Fatalf("user with zero sessions must be offline")
	}
}

func TestRegistryRemoveUnknownSession(t *testing.T) {
	reg := NewRegistry()

	ghost := NewSession("s1", "u1", "")
	removed, last := reg.Remove(ghost)
	if removed || last {
		t.Fatalf("removing unknown session must be a no-op, got removed=%v last=%v", removed, last)
	}
}

func TestRegistryDoubleAddIsNoop(t *testing.T) {
	reg := NewRegistry()

	s := NewSession("s1", "u1", "")
	reg.Add(s)
	if first := reg.Add(s); first {
		t.Fatalf("re-adding the same session must not report first=true")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", reg.Len())
	}
}

func TestRegistrySessionsForAndEach(t *testing.T) {
	reg := NewRegistry()

	a1 := NewSession("a1", "alice", "")
	a2 := NewSession("a2", "alice", "")
	b1 := NewSession("b1", "bob", "")
	reg.Add(a1)
	reg.Add(a2)
	reg.Add(b1)

	if got := len(reg.SessionsFor("alice")); got != 2 {
		t.Fatalf("expected 2 sessions for alice, got %d", got)
	}
	if got := len(reg.SessionsFor("nobody")); got != 0 {
		t.Fatalf("expected no sessions for unknown user, got %d", got)
	}

	seen := 0
	reg.Each(func(*Session) { seen++ })
	if seen != 3 {
		t.Fatalf("expected Each to visit 3 sessions, visited %d", seen)
	}
}
