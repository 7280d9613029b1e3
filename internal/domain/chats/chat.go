package chats

import (
	"context"
	"errors"
	"strings"
	"time"

	"unimate/internal/domain/shared/events"
)

var (
	ErrNotFound       = errors.New("chats: not found")
	ErrSelfChat       = errors.New("chats: you cannot chat with yourself")
	ErrChatExists     = errors.New("chats: chat already exists for listing and buyer")
	ErrNotParticipant = errors.New("chats: user is not a participant")
)

type ChatID string

// Chat is scoped to exactly one (listing, buyer) pair.
type Chat struct {
	ID        ChatID
	ListingID string
	SellerID  string
	BuyerID   string
	CreatedAt time.Time
	events.EventRecorder
}

type OpenParams struct {
	ID        ChatID
	ListingID string
	SellerID  string
	BuyerID   string
	Now       time.Time
}

func Open(p OpenParams) (*Chat, error) {
	listing := strings.TrimSpace(p.ListingID)
	seller := strings.TrimSpace(p.SellerID)
	buyer := strings.TrimSpace(p.BuyerID)
	if listing == "" || seller == "" || buyer == "" {
		return nil, errors.New("chats: listing, seller and buyer are required")
	}
	if seller == buyer {
		return nil, ErrSelfChat
	}
	chat := &Chat{ID: p.ID, ListingID: listing, SellerID: seller, BuyerID: buyer, CreatedAt: p.Now.UTC()}
	chat.Record(ChatOpenedEvent{ChatID: chat.ID, ListingID: listing, SellerID: seller, BuyerID: buyer, At: chat.CreatedAt})
	return chat, nil
}

func (c *Chat) IsParticipant(userID string) bool {
	return userID != "" && (userID == c.SellerID || userID == c.BuyerID)
}

// Counterpart returns the other participant.
func (c *Chat) Counterpart(userID string) string {
	if userID == c.SellerID {
		return c.BuyerID
	}
	return c.SellerID
}

// ChatRepository enforces one chat per (listing, buyer).
type ChatRepository interface {
	ByID(ctx context.Context, id ChatID) (*Chat, error)
	ByListingBuyer(ctx context.Context, listingID, buyerID string) (*Chat, error)
	// Insert returns ErrChatExists when the pair is already taken.
	Insert(ctx context.Context, chat *Chat) error
	// ListForUser returns chats where the user is buyer or seller, newest first.
	ListForUser(ctx context.Context, userID string) ([]*Chat, error)
}
