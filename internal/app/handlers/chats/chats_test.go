package chats

import (
	"context"
	"errors"
	"testing"
	"time"

	"unimate/internal/app/realtime"
	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
	"unimate/internal/domain/shared/money"
	"unimate/internal/infra/storage/memory"
)

type fixture struct {
	factory memory.Factory
	box     *memory.Outbox
	hub     *realtime.Hub
	now     func() time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		factory: memory.NewFactory(),
		box:     memory.NewOutbox(),
		hub:     realtime.NewHub(16),
		now:     func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	category, err := domainlistings.CategoryByID("electronics")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:       "l1",
		Seller:   "seller",
		Title:    "Calculator",
		Price:    money.Must(150000, money.DefaultCurrency),
		Category: category,
		Now:      f.now(),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := f.factory.ListingsRepo.Save(context.Background(), listing); err != nil {
		t.Fatalf("save listing: %v", err)
	}
	return f
}

func (f fixture) open(t *testing.T, buyer string) string {
	t.Helper()
	h := &OpenChatHandler{UoWFactory: f.factory, Outbox: f.box, Now: f.now}
	chat, err := h.Handle(context.Background(), OpenChatCommand{BuyerID: buyer, ListingID: "l1"})
	if err != nil {
		t.Fatalf("open chat: %v", err)
	}
	return chat.ID
}

func TestOpenChatReturnsExistingChat(t *testing.T) {
	f := newFixture(t)
	first := f.open(t, "buyer")
	second := f.open(t, "buyer")
	if first != second {
		t.Fatalf("expected the same chat, got %s and %s", first, second)
	}
	if other := f.open(t, "someone-else"); other == first {
		t.Fatalf("different buyers must get different chats")
	}

	h := &OpenChatHandler{UoWFactory: f.factory, Now: f.now}
	if _, err := h.Handle(context.Background(), OpenChatCommand{BuyerID: "seller", ListingID: "l1"}); !errors.Is(err, domainchats.ErrSelfChat) {
		t.Fatalf("expected ErrSelfChat, got %v", err)
	}
	if _, err := h.Handle(context.Background(), OpenChatCommand{BuyerID: "buyer", ListingID: "missing"}); !errors.Is(err, domainlistings.ErrNotFound) {
		t.Fatalf("expected listing not found, got %v", err)
	}
}

func TestSendTextPublishesToParticipants(t *testing.T) {
	f := newFixture(t)
	chatID := f.open(t, "buyer")
	sub := f.hub.Subscribe(realtime.Topic{UserID: "seller"})
	defer sub.Close()

	h := &SendTextHandler{UoWFactory: f.factory, Outbox: f.box, Hub: f.hub, Now: f.now}
	msg, err := h.Handle(context.Background(), SendTextCommand{SenderID: "buyer", ChatID: chatID, Text: "  is it available?  "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Text != "is it available?" || msg.Kind != "text" {
		t.Fatalf("unexpected message %+v", msg)
	}

	inserted := <-sub.Events()
	if inserted.Type != realtime.TypeMessageInserted || inserted.MessageID != msg.ID {
		t.Fatalf("unexpected first event %+v", inserted)
	}
	unread := <-sub.Events()
	if unread.Type != realtime.TypeUnreadCount {
		t.Fatalf("unexpected second event %+v", unread)
	}

	var sent bool
	for _, rec := range f.box.Pending() {
		if rec.Name == "message.inserted" {
			sent = true
		}
	}
	if !sent {
		t.Fatalf("message.inserted not recorded in outbox")
	}

	if _, err := h.Handle(context.Background(), SendTextCommand{SenderID: "stranger", ChatID: chatID, Text: "hi"}); !errors.Is(err, domainchats.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := h.Handle(context.Background(), SendTextCommand{SenderID: "buyer", ChatID: chatID, Text: "   "}); !errors.Is(err, domainchats.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestMarkSoldOnlyOnce(t *testing.T) {
	f := newFixture(t)
	chatID := f.open(t, "buyer")
	h := &MarkSoldHandler{UoWFactory: f.factory, Outbox: f.box, Hub: f.hub, Now: f.now}
	ctx := context.Background()

	if _, err := h.Handle(ctx, MarkSoldCommand{SellerID: "buyer", ChatID: chatID}); !errors.Is(err, domainchats.ErrNotSeller) {
		t.Fatalf("expected ErrNotSeller, got %v", err)
	}
	deal, err := h.Handle(ctx, MarkSoldCommand{SellerID: "seller", ChatID: chatID})
	if err != nil {
		t.Fatalf("mark sold: %v", err)
	}
	if deal.Status != string(domainchats.DealCompleted) || deal.BuyerID != "buyer" {
		t.Fatalf("unexpected deal %+v", deal)
	}
	if _, err := h.Handle(ctx, MarkSoldCommand{SellerID: "seller", ChatID: chatID}); !errors.Is(err, domainchats.ErrDealExists) {
		t.Fatalf("expected ErrDealExists, got %v", err)
	}

	list, err := (&ListMessagesHandler{UoWFactory: f.factory}).Handle(ctx, ListMessagesQuery{UserID: "buyer", ChatID: chatID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Text != domainchats.SoldAnnouncement {
		t.Fatalf("expected a single sold announcement, got %+v", list.Items)
	}

	got, err := (&GetDealHandler{UoWFactory: f.factory}).Handle(ctx, GetDealQuery{UserID: "buyer", ChatID: chatID})
	if err != nil || got == nil || got.ID != deal.ID {
		t.Fatalf("get deal = %+v, %v", got, err)
	}
	stats, err := (&ProfileStatsHandler{UoWFactory: f.factory}).Handle(ctx, ProfileStatsQuery{UserID: "seller"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.DealsAsSeller != 1 || stats.DealsAsBuyer != 0 || stats.Listings != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGetDealWithoutDealIsEmpty(t *testing.T) {
	f := newFixture(t)
	chatID := f.open(t, "buyer")
	got, err := (&GetDealHandler{UoWFactory: f.factory}).Handle(context.Background(), GetDealQuery{UserID: "seller", ChatID: chatID})
	if err != nil || got != nil {
		t.Fatalf("expected no deal, got %+v %v", got, err)
	}
}

func TestMarkReadAndConversations(t *testing.T) {
	f := newFixture(t)
	chatID := f.open(t, "buyer")
	ctx := context.Background()
	send := &SendTextHandler{UoWFactory: f.factory, Outbox: f.box, Now: f.now}
	for _, text := range []string{"hello", "still there?"} {
		if _, err := send.Handle(ctx, SendTextCommand{SenderID: "buyer", ChatID: chatID, Text: text}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	count, err := (&CountUnreadHandler{UoWFactory: f.factory}).Handle(ctx, CountUnreadQuery{UserID: "seller"})
	if err != nil || count.Count != 2 {
		t.Fatalf("unread = %+v %v", count, err)
	}

	inbox, err := (&ListConversationsHandler{UoWFactory: f.factory}).Handle(ctx, ListConversationsQuery{UserID: "seller"})
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(inbox.Items) != 1 {
		t.Fatalf("expected one conversation, got %d", len(inbox.Items))
	}
	conv := inbox.Items[0]
	if conv.UnreadCount != 2 || conv.Listing == nil || conv.Listing.Title != "Calculator" || conv.LastMessage == nil {
		t.Fatalf("unexpected conversation %+v", conv)
	}

	sub := f.hub.Subscribe(realtime.Topic{ChatID: chatID})
	defer sub.Close()
	read := &MarkReadHandler{UoWFactory: f.factory, Outbox: f.box, Hub: f.hub, Now: f.now}
	left, err := read.Handle(ctx, MarkReadCommand{ReaderID: "seller", ChatID: chatID})
	if err != nil || left.Count != 0 {
		t.Fatalf("mark read = %+v %v", left, err)
	}
	for i := 0; i < 2; i++ {
		if ev := <-sub.Events(); ev.Type != realtime.TypeMessageUpdated {
			t.Fatalf("expected message.updated, got %+v", ev)
		}
	}
}
