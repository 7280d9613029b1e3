package chats

import (
	"context"
	"errors"
	"time"

	"unimate/internal/domain/shared/events"
)

var (
	ErrDealExists = errors.New("chats: deal already exists for chat")
	ErrNotSeller  = errors.New("chats: only the seller can mark the item as sold")
)

// SoldAnnouncement is posted by the seller right after the deal is stored.
const SoldAnnouncement = "🎉 I have marked this item as SOLD! Transaction complete."

type DealID string

type DealStatus string

const DealCompleted DealStatus = "completed"

type Deal struct {
	ID        DealID
	ChatID    ChatID
	ListingID string
	BuyerID   string
	SellerID  string
	Status    DealStatus
	CreatedAt time.Time
	events.EventRecorder
}

// CompleteDeal finalizes the sale for a chat; only the seller may do so.
func CompleteDeal(id DealID, chat *Chat, actor string, now time.Time) (*Deal, error) {
	if chat == nil {
		return nil, ErrNotFound
	}
	if actor != chat.SellerID {
		return nil, ErrNotSeller
	}
	deal := &Deal{
		ID:        id,
		ChatID:    chat.ID,
		ListingID: chat.ListingID,
		BuyerID:   chat.BuyerID,
		SellerID:  chat.SellerID,
		Status:    DealCompleted,
		CreatedAt: now.UTC(),
	}
	deal.Record(DealCompletedEvent{DealID: deal.ID, ChatID: deal.ChatID, ListingID: deal.ListingID, BuyerID: deal.BuyerID, SellerID: deal.SellerID, At: deal.CreatedAt})
	return deal, nil
}

// DealRepository enforces at most one deal per chat.
type DealRepository interface {
	// Insert returns ErrDealExists when the chat already has a deal.
	Insert(ctx context.Context, deal *Deal) error
	ByChat(ctx context.Context, chatID ChatID) (*Deal, error)
	// ListForUser returns deals where the user is buyer or seller, newest first.
	ListForUser(ctx context.Context, userID string) ([]*Deal, error)
}
