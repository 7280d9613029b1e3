// Package busy counts in-flight data-access operations and reports the
// idle/busy transitions.
package busy

import (
	"sync"
)

// Event is emitted when the in-flight count crosses between zero and non-zero.
type Event struct {
	Busy     bool
	InFlight int
}

type Listener func(Event)

// Tracker is the single owner of the in-flight counter. notifyMu is held from
// a counter change until its listeners return, so boundary events reach
// listeners in the order the counter crossed them.
type Tracker struct {
	notifyMu  sync.Mutex
	mu        sync.Mutex
	inFlight  int
	listeners map[int]Listener
	nextID    int
}

func NewTracker() *Tracker {
	return &Tracker{listeners: make(map[int]Listener)}
}

// Acquire increments the counter and returns a release func. Release is
// idempotent, so callers can simply defer it.
func (t *Tracker) Acquire() (release func()) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	t.mu.Lock()
	t.inFlight++
	ev, crossed := Event{Busy: true, InFlight: t.inFlight}, t.inFlight == 1
	listeners := t.snapshotLocked(crossed)
	t.mu.Unlock()
	notify(listeners, ev)

	var once sync.Once
	return func() {
		once.Do(t.release)
	}
}

func (t *Tracker) release() {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	t.mu.Lock()
	if t.inFlight > 0 {
		t.inFlight--
	}
	ev, crossed := Event{Busy: false, InFlight: t.inFlight}, t.inFlight == 0
	listeners := t.snapshotLocked(crossed)
	t.mu.Unlock()
	notify(listeners, ev)
}

// Busy reports whether any operation is in flight.
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight > 0
}

func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Subscribe registers a boundary listener and returns a cancel func.
// Listeners run synchronously on the goroutine that crossed the boundary. They
// must not block or call Acquire.
func (t *Tracker) Subscribe(l Listener) (cancel func()) {
	if l == nil {
		return func() {}
	}
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = l
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) snapshotLocked(crossed bool) []Listener {
	if !crossed || len(t.listeners) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(t.listeners))
	for _, l := range t.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l(ev)
	}
}
