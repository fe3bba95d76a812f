package client

import (
	"sync"
	"time"
)

// DefaultTypingQuiet is how long after the last keystroke the notifier
// waits before announcing stop-typing.
const DefaultTypingQuiet = 2 * time.Second

type typingState struct {
	timer *time.Timer
	gen   uint64
}

// TypingNotifier turns a raw keystroke stream into at most one typing
// announcement per burst and exactly one stop-typing announcement after the
// burst goes quiet. Each chat debounces independently.
type TypingNotifier struct {
	mu     sync.Mutex
	quiet  time.Duration
	notify func(chatID string, typing bool)
	active map[string]*typingState
	gen    uint64
	closed bool
}

// NewTypingNotifier creates a notifier that calls notify(chatID, true) when
// a typing burst starts and notify(chatID, false) after quiet elapses with
// no further keystrokes. A non-positive quiet falls back to
// DefaultTypingQuiet.
func NewTypingNotifier(quiet time.Duration, notify func(chatID string, typing bool)) *TypingNotifier {
	if quiet <= 0 {
		quiet = DefaultTypingQuiet
	}
	return &TypingNotifier{
		quiet:  quiet,
		notify: notify,
		active: make(map[string]*typingState),
	}
}

// Keystroke records input activity in chatID. The first keystroke of a
// burst announces typing; subsequent ones only push the quiet deadline out.
func (n *TypingNotifier) Keystroke(chatID string) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	if st, ok := n.active[chatID]; ok {
		st.timer.Reset(n.quiet)
		n.mu.Unlock()
		return
	}

	n.gen++
	st := &typingState{gen: n.gen}
	st.timer = time.AfterFunc(n.quiet, func() {
		n.expire(chatID, st.gen)
	})
	n.active[chatID] = st
	n.mu.Unlock()

	n.notify(chatID, true)
}

// Stop ends the burst immediately, announcing stop-typing if one was
// active. Used when the user sends the message or leaves the chat.
func (n *TypingNotifier) Stop(chatID string) {
	n.mu.Lock()
	st, ok := n.active[chatID]
	if ok {
		st.timer.Stop()
		delete(n.active, chatID)
	}
	n.mu.Unlock()

	if ok {
		n.notify(chatID, false)
	}
}

// Close cancels all pending timers without announcing anything. The
// connection is gone, so a trailing stop-typing would have nowhere to go.
func (n *TypingNotifier) Close() {
	n.mu.Lock()
	n.closed = true
	for _, st := range n.active {
		st.timer.Stop()
	}
	n.active = make(map[string]*typingState)
	n.mu.Unlock()
}

// expire fires when the quiet period elapses. The generation check discards
// a stale timer that lost a race with Stop or a re-armed burst.
func (n *TypingNotifier) expire(chatID string, gen uint64) {
	n.mu.Lock()
	st, ok := n.active[chatID]
	if !ok || st.gen != gen || n.closed {
		n.mu.Unlock()
		return
	}
	delete(n.active, chatID)
	n.mu.Unlock()

	n.notify(chatID, false)
}
