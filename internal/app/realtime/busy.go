package realtime

import "unimate/internal/app/busy"

// BusyState is the payload of a busy event.
type BusyState struct {
	Busy     bool `json:"busy"`
	InFlight int  `json:"in_flight"`
}

// BusyEvent converts a tracker transition into a broadcast event.
func BusyEvent(ev busy.Event) Event {
	return Event{
		Type:      TypeBusy,
		Data:      BusyState{Busy: ev.Busy, InFlight: ev.InFlight},
		Broadcast: true,
	}
}

// ForwardBusy publishes every tracker transition on the hub until cancel is called.
func ForwardBusy(tracker *busy.Tracker, hub *Hub) (cancel func()) {
	return tracker.Subscribe(func(ev busy.Event) {
		hub.Publish(BusyEvent(ev))
	})
}
