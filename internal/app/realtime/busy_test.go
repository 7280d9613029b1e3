package realtime

import (
	"testing"

	"unimate/internal/app/busy"
)

func TestForwardBusyBroadcastsTransitions(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(Topic{})
	defer sub.Close()

	tracker := busy.NewTracker()
	cancel := ForwardBusy(tracker, hub)
	release := tracker.Acquire()
	release()
	cancel()
	tracker.Acquire()()

	want := []bool{true, false}
	for i, w := range want {
		ev := <-sub.Events()
		state, ok := ev.Data.(BusyState)
		if ev.Type != TypeBusy || !ok || state.Busy != w {
			t.Fatalf("event %d: got %+v", i, ev)
		}
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event after cancel: %+v", ev)
	default:
	}
}
