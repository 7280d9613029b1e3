package events

import (
	"testing"
	"time"
)

type stubEvent string

func (e stubEvent) EventName() string     { return string(e) }
func (e stubEvent) AggregateID() string   { return "agg" }
func (e stubEvent) OccurredAt() time.Time { return time.Time{} }

func TestTakeEventsClearsPending(t *testing.T) {
	var r EventRecorder
	r.Record(stubEvent("message.inserted"))
	r.Record(nil)
	r.Record(stubEvent("message.read"))

	got := r.TakeEvents()
	if len(got) != 2 || got[0].EventName() != "message.inserted" {
		t.Fatalf("unexpected events %v", got)
	}
	if len(r.PendingEvents()) != 0 {
		t.Fatalf("pending should be empty after take")
	}
}
