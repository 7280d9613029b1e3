package chats

import (
	"context"
	"errors"
	"strings"
	"time"

	"unimate/internal/domain/shared/events"
	"unimate/internal/domain/shared/media"
)

var ErrEmptyMessage = errors.New("chats: message text or media is required")

type MessageID string

type Message struct {
	ID        MessageID
	ChatID    ChatID
	SenderID  string
	Text      string
	MediaURL  string
	MediaKind media.Kind
	IsRead    bool
	CreatedAt time.Time
	events.EventRecorder
}

type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
	ContentVideo ContentKind = "video"
)

// Content is what a client renders for a message.
type Content struct {
	Kind ContentKind
	Text string
	URL  string
}

func (m *Message) Content() Content {
	if m.MediaURL != "" {
		switch m.MediaKind {
		case media.KindImage:
			return Content{Kind: ContentImage, URL: m.MediaURL, Text: m.Text}
		case media.KindVideo:
			return Content{Kind: ContentVideo, URL: m.MediaURL, Text: m.Text}
		}
	}
	return Content{Kind: ContentText, Text: m.Text}
}

type NewMessageParams struct {
	ID        MessageID
	Chat      *Chat
	SenderID  string
	Text      string
	MediaURL  string
	MediaKind media.Kind
	Now       time.Time
}

// NewMessage builds a message from a chat participant.
func NewMessage(p NewMessageParams) (*Message, error) {
	if p.Chat == nil {
		return nil, ErrNotFound
	}
	if !p.Chat.IsParticipant(p.SenderID) {
		return nil, ErrNotParticipant
	}
	text := strings.TrimSpace(p.Text)
	url := strings.TrimSpace(p.MediaURL)
	if text == "" && url == "" {
		return nil, ErrEmptyMessage
	}
	kind := p.MediaKind
	if url == "" {
		kind = ""
	}
	msg := &Message{
		ID:        p.ID,
		ChatID:    p.Chat.ID,
		SenderID:  p.SenderID,
		Text:      text,
		MediaURL:  url,
		MediaKind: kind,
		CreatedAt: p.Now.UTC(),
	}
	msg.Record(MessageSentEvent{
		MessageID:   msg.ID,
		ChatID:      msg.ChatID,
		ListingID:   p.Chat.ListingID,
		SenderID:    msg.SenderID,
		RecipientID: p.Chat.Counterpart(msg.SenderID),
		Text:        msg.Text,
		MediaKind:   string(msg.MediaKind),
		At:          msg.CreatedAt,
	})
	return msg, nil
}

// MessageRepository stores chat messages.
type MessageRepository interface {
	Append(ctx context.Context, msg *Message) error
	// ListByChat returns messages oldest first.
	ListByChat(ctx context.Context, chatID ChatID) ([]*Message, error)
	// Last returns the newest message or ErrNotFound.
	Last(ctx context.Context, chatID ChatID) (*Message, error)
	// MarkRead flips is_read on messages in chatID not sent by reader and
	// returns the ids that changed.
	MarkRead(ctx context.Context, chatID ChatID, reader string) ([]MessageID, error)
	// CountUnread counts unread messages in the chats not sent by reader.
	CountUnread(ctx context.Context, chatIDs []ChatID, reader string) (int, error)
}
