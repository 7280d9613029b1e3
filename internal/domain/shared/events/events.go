// Package events carries the change notifications aggregates raise while a
// command runs. They are written to the outbox when the unit commits.
package events

import "time"

// DomainEvent is named "<aggregate>.<change>", for example "message.inserted";
// the prefix selects the broker topic.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates. The zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// TakeEvents returns the pending events and clears them.
func (r *EventRecorder) TakeEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
