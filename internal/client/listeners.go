package client

import (
	"encoding/json"
	"sync"
)

// Listener handles one decoded server event payload.
type Listener func(data json.RawMessage)

// Dispatcher routes server events to registered listeners by event name.
// A listener registered twice runs twice; each registration is removed
// independently through its own unsubscribe handle.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]Listener
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string]map[int]Listener),
	}
}

// Subscribe registers fn for the named event and returns an unsubscribe
// handle. Calling the handle more than once is a no-op.
func (d *Dispatcher) Subscribe(event string, fn Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	if d.listeners[event] == nil {
		d.listeners[event] = make(map[int]Listener)
	}
	d.listeners[event][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.listeners[event], id)
		})
	}
}

// Dispatch delivers data to every listener registered for event.
// Listeners run outside the dispatcher lock, so a listener may subscribe
// or unsubscribe from inside its own callback.
func (d *Dispatcher) Dispatch(event string, data json.RawMessage) {
	d.mu.Lock()
	registered := d.listeners[event]
	fns := make([]Listener, 0, len(registered))
	for _, fn := range registered {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

// Len reports the number of listeners registered for event.
func (d *Dispatcher) Len(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[event])
}
