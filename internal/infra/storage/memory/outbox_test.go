package memory

import (
	"context"
	"testing"

	appoutbox "unimate/internal/app/outbox"
)

func TestOutboxFlushDispatchesPending(t *testing.T) {
	var early, late []string
	box := NewOutbox(func(_ context.Context, rec appoutbox.EventRecord) { early = append(early, rec.Name) })
	ctx := context.Background()

	_ = box.Add(ctx, appoutbox.EventRecord{ID: "1", Name: "listing.created"})
	box.AddDispatcher(func(_ context.Context, rec appoutbox.EventRecord) { late = append(late, rec.Name) })
	box.AddDispatcher(nil)
	_ = box.Add(ctx, appoutbox.EventRecord{ID: "2", Name: "message.inserted"})

	if got := len(box.Pending()); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	if err := box.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(early) != 2 || len(late) != 2 || late[1] != "message.inserted" {
		t.Fatalf("unexpected dispatch early=%v late=%v", early, late)
	}
	if len(box.Pending()) != 0 {
		t.Fatalf("flush must clear pending records")
	}
}
