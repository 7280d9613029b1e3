package chats

import "time"

type ChatOpenedEvent struct {
	ChatID    ChatID    `json:"chat_id"`
	ListingID string    `json:"listing_id"`
	SellerID  string    `json:"seller_id"`
	BuyerID   string    `json:"buyer_id"`
	At        time.Time `json:"at"`
}

func (e ChatOpenedEvent) EventName() string     { return "chat.opened" }
func (e ChatOpenedEvent) AggregateID() string   { return string(e.ChatID) }
func (e ChatOpenedEvent) OccurredAt() time.Time { return e.At }

// MessageSentEvent carries enough for push fan-out without a chat lookup.
type MessageSentEvent struct {
	MessageID   MessageID `json:"message_id"`
	ChatID      ChatID    `json:"chat_id"`
	ListingID   string    `json:"listing_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text"`
	MediaKind   string    `json:"media_kind,omitempty"`
	At          time.Time `json:"at"`
}

func (e MessageSentEvent) EventName() string     { return "message.inserted" }
func (e MessageSentEvent) AggregateID() string   { return string(e.ChatID) }
func (e MessageSentEvent) OccurredAt() time.Time { return e.At }

type MessagesReadEvent struct {
	ChatID     ChatID      `json:"chat_id"`
	ReaderID   string      `json:"reader_id"`
	MessageIDs []MessageID `json:"message_ids"`
	At         time.Time   `json:"at"`
}

func (e MessagesReadEvent) EventName() string     { return "message.read" }
func (e MessagesReadEvent) AggregateID() string   { return string(e.ChatID) }
func (e MessagesReadEvent) OccurredAt() time.Time { return e.At }

type DealCompletedEvent struct {
	DealID    DealID    `json:"deal_id"`
	ChatID    ChatID    `json:"chat_id"`
	ListingID string    `json:"listing_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	At        time.Time `json:"at"`
}

func (e DealCompletedEvent) EventName() string     { return "deal.completed" }
func (e DealCompletedEvent) AggregateID() string   { return string(e.ChatID) }
func (e DealCompletedEvent) OccurredAt() time.Time { return e.At }
