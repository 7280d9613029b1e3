package dto

import (
	"time"

	domainchats "unimate/internal/domain/chats"
)

// Chat describes one buyer/seller conversation about a listing.
type Chat struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	SellerID  string    `json:"seller_id"`
	BuyerID   string    `json:"buyer_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage contains a single message payload.
type ChatMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text,omitempty"`
	MediaURL  string    `json:"media_url,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessageList struct {
	Items []ChatMessage `json:"items"`
}

// ListingSummary is the small listing card shown next to a chat.
type ListingSummary struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	ImageURL string  `json:"image_url,omitempty"`
}

// Conversation is a row of the messages inbox.
type Conversation struct {
	Chat        Chat            `json:"chat"`
	Listing     *ListingSummary `json:"listing,omitempty"`
	LastMessage *ChatMessage    `json:"last_message,omitempty"`
	UnreadCount int             `json:"unread_count"`
}

type ConversationList struct {
	Items []Conversation `json:"items"`
}

type Deal struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	ListingID string    `json:"listing_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type DealList struct {
	Items []Deal `json:"items"`
}

type UnreadCount struct {
	Count int `json:"count"`
}

type ProfileStats struct {
	UnreadMessages int `json:"unread_messages"`
	Listings       int `json:"listings"`
	DealsAsSeller  int `json:"deals_as_seller"`
	DealsAsBuyer   int `json:"deals_as_buyer"`
}

func MapChat(c *domainchats.Chat) Chat {
	if c == nil {
		return Chat{}
	}
	return Chat{ID: string(c.ID), ListingID: c.ListingID, SellerID: c.SellerID, BuyerID: c.BuyerID, CreatedAt: c.CreatedAt}
}

func MapMessage(m *domainchats.Message) ChatMessage {
	if m == nil {
		return ChatMessage{}
	}
	content := m.Content()
	return ChatMessage{
		ID:        string(m.ID),
		ChatID:    string(m.ChatID),
		SenderID:  m.SenderID,
		Kind:      string(content.Kind),
		Text:      content.Text,
		MediaURL:  content.URL,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func MapDeal(d *domainchats.Deal) Deal {
	if d == nil {
		return Deal{}
	}
	return Deal{
		ID:        string(d.ID),
		ChatID:    string(d.ChatID),
		ListingID: d.ListingID,
		BuyerID:   d.BuyerID,
		SellerID:  d.SellerID,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
	}
}
