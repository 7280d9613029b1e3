package memory

import (
	"context"
	"testing"
	"time"

	"unimate/internal/app/middleware"
)

func TestIdempotencyStoreExpiresRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(time.Hour)
	store.now = func() time.Time { return now }

	if err := store.Save(ctx, middleware.IdempotencyRecord{Key: "create:u1:k1", Payload: []byte(`{"id":"l1"}`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, ok, err := store.Get(ctx, "create:u1:k1")
	if err != nil || !ok {
		t.Fatalf("get fresh record: ok=%v err=%v", ok, err)
	}
	if string(rec.Payload) != `{"id":"l1"}` {
		t.Fatalf("payload = %s", rec.Payload)
	}

	now = now.Add(61 * time.Minute)
	if _, ok, _ := store.Get(ctx, "create:u1:k1"); ok {
		t.Fatal("expected record to expire after ttl")
	}
}

func TestIdempotencyStorePrunesOnSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(time.Hour)
	store.now = func() time.Time { return now }

	_ = store.Save(ctx, middleware.IdempotencyRecord{Key: "old"})
	now = now.Add(2 * time.Hour)
	_ = store.Save(ctx, middleware.IdempotencyRecord{Key: "new"})

	if len(store.items) != 1 {
		t.Fatalf("expected stale record pruned, have %d", len(store.items))
	}
	if _, ok := store.items["new"]; !ok {
		t.Fatal("fresh record missing")
	}
}

func TestIdempotencyStoreDefaultTTL(t *testing.T) {
	if store := NewIdempotencyStore(0); store.ttl != 24*time.Hour {
		t.Fatalf("ttl = %v", store.ttl)
	}
}
