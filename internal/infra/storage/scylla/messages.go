package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	domainchats "unimate/internal/domain/chats"
	"unimate/internal/domain/shared/media"
)

const messageColumns = `chat_id, created_at, message_id, sender_id, text, media_url, media_kind, is_read`

// MessageRepository stores one partition per chat, oldest message first.
type MessageRepository struct {
	session *gocql.Session
}

func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainchats.Message) error {
	if r.session == nil {
		return errNoSession
	}
	msg.CreatedAt = timeOrNow(msg.CreatedAt)
	return r.session.
		Query(`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(msg.ChatID), msg.CreatedAt, string(msg.ID), msg.SenderID, msg.Text, msg.MediaURL, string(msg.MediaKind), msg.IsRead).
		WithContext(ctx).
		Exec()
}

func (r *MessageRepository) ListByChat(ctx context.Context, chatID domainchats.ChatID) ([]*domainchats.Message, error) {
	if r.session == nil {
		return nil, errNoSession
	}
	return scanMessages(r.session.
		Query(`SELECT `+messageColumns+` FROM messages WHERE chat_id = ?`, string(chatID)).
		WithContext(ctx).
		Iter())
}

func (r *MessageRepository) Last(ctx context.Context, chatID domainchats.ChatID) (*domainchats.Message, error) {
	if r.session == nil {
		return nil, errNoSession
	}
	msgs, err := scanMessages(r.session.
		Query(`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? ORDER BY created_at DESC LIMIT 1`, string(chatID)).
		WithContext(ctx).
		Iter())
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, domainchats.ErrNotFound
	}
	return msgs[0], nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, chatID domainchats.ChatID, reader string) ([]domainchats.MessageID, error) {
	msgs, err := r.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	batch := r.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	var changed []domainchats.MessageID
	for _, m := range msgs {
		if m.IsRead || m.SenderID == reader {
			continue
		}
		batch.Query(`UPDATE messages SET is_read = true WHERE chat_id = ? AND created_at = ? AND message_id = ?`,
			string(chatID), m.CreatedAt, string(m.ID))
		changed = append(changed, m.ID)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if err := r.session.ExecuteBatch(batch); err != nil {
		return nil, fmt.Errorf("scylla: mark read: %w", err)
	}
	return changed, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, chatIDs []domainchats.ChatID, reader string) (int, error) {
	if r.session == nil {
		return 0, errNoSession
	}
	total := 0
	for _, id := range chatIDs {
		iter := r.session.
			Query(`SELECT sender_id, is_read FROM messages WHERE chat_id = ?`, string(id)).
			WithContext(ctx).
			Iter()
		var sender string
		var read bool
		for iter.Scan(&sender, &read) {
			if !read && sender != reader {
				total++
			}
		}
		if err := iter.Close(); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func scanMessages(iter *gocql.Iter) ([]*domainchats.Message, error) {
	var out []*domainchats.Message
	var (
		chatID, messageID, sender, text, url, kind string
		createdAt                                  time.Time
		read                                       bool
	)
	for iter.Scan(&chatID, &createdAt, &messageID, &sender, &text, &url, &kind, &read) {
		out = append(out, &domainchats.Message{
			ID:        domainchats.MessageID(messageID),
			ChatID:    domainchats.ChatID(chatID),
			SenderID:  sender,
			Text:      text,
			MediaURL:  url,
			MediaKind: media.Kind(kind),
			IsRead:    read,
			CreatedAt: createdAt.UTC(),
		})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ domainchats.MessageRepository = (*MessageRepository)(nil)
