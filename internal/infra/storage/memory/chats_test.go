package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainchats "unimate/internal/domain/chats"
)

func TestChatInsertIsUniquePerListingAndBuyer(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted, rejected := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chat, err := domainchats.Open(domainchats.OpenParams{
				ID:        domainchats.ChatID(string(rune('a' + i))),
				ListingID: "l1",
				SellerID:  "seller",
				BuyerID:   "buyer",
				Now:       now,
			})
			if err != nil {
				t.Errorf("open: %v", err)
				return
			}
			err = repo.Insert(ctx, chat)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				inserted++
			case errors.Is(err, domainchats.ErrChatExists):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if inserted != 1 || rejected != 19 {
		t.Fatalf("inserted=%d rejected=%d", inserted, rejected)
	}
	chats, _ := repo.ListForUser(ctx, "buyer")
	if len(chats) != 1 {
		t.Fatalf("expected exactly one chat, got %d", len(chats))
	}
}

func TestDealInsertIsUniquePerChat(t *testing.T) {
	repo := NewDealRepository()
	ctx := context.Background()
	deal := &domainchats.Deal{ID: "d1", ChatID: "c1", BuyerID: "b", SellerID: "s", Status: domainchats.DealCompleted}
	if err := repo.Insert(ctx, deal); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	again := &domainchats.Deal{ID: "d2", ChatID: "c1"}
	if err := repo.Insert(ctx, again); !errors.Is(err, domainchats.ErrDealExists) {
		t.Fatalf("expected ErrDealExists, got %v", err)
	}
	got, err := repo.ByChat(ctx, "c1")
	if err != nil || got.ID != "d1" {
		t.Fatalf("got %+v %v", got, err)
	}
}

func TestMessageReadTracking(t *testing.T) {
	repo := NewMessageRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, sender := range []string{"seller", "buyer", "seller"} {
		msg := &domainchats.Message{ID: domainchats.MessageID(string(rune('1' + i))), ChatID: "c1", SenderID: sender, Text: "hi", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Append(ctx, msg); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if n, _ := repo.CountUnread(ctx, []domainchats.ChatID{"c1"}, "buyer"); n != 2 {
		t.Fatalf("buyer unread = %d, want 2", n)
	}
	changed, err := repo.MarkRead(ctx, "c1", "buyer")
	if err != nil || len(changed) != 2 {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	if n, _ := repo.CountUnread(ctx, []domainchats.ChatID{"c1"}, "buyer"); n != 0 {
		t.Fatalf("buyer unread after read = %d", n)
	}
	if n, _ := repo.CountUnread(ctx, []domainchats.ChatID{"c1"}, "seller"); n != 1 {
		t.Fatalf("seller unread = %d, want 1", n)
	}
	last, err := repo.Last(ctx, "c1")
	if err != nil || last.ID != "3" {
		t.Fatalf("last = %+v %v", last, err)
	}
	if _, err := repo.Last(ctx, "missing"); !errors.Is(err, domainchats.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
