package pushnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"unimate/internal/app/policies"
	"unimate/internal/app/realtime"
	domainchats "unimate/internal/domain/chats"
	domainpush "unimate/internal/domain/push"
)

// MessageInserted is the event name the bridge reacts to; every other event
// is ignored.
const MessageInserted = "message.inserted"

// Inbox remembers handled event ids across consumer restarts.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Bridge turns new-message events into push notifications for the recipient.
// Redelivered events are dropped by message id, in memory and in Inbox when set.
type Bridge struct {
	Notifier policies.Notifier
	Inbox    Inbox
	Logger   *slog.Logger

	mu   sync.Mutex
	seen *realtime.Dedup
}

func NewBridge(notifier policies.Notifier, logger *slog.Logger) *Bridge {
	return &Bridge{Notifier: notifier, Logger: logger, seen: realtime.NewDedup(4096)}
}

// HandleEvent receives an event name and its JSON body.
func (b *Bridge) HandleEvent(ctx context.Context, name string, data []byte) error {
	if name != MessageInserted {
		return nil
	}
	var ev domainchats.MessageSentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("pushnotify: decode %s: %w", name, err)
	}
	if ev.RecipientID == "" || ev.RecipientID == ev.SenderID {
		return nil
	}
	id := string(ev.MessageID)
	if b.duplicate(id) {
		return nil
	}
	if b.Inbox != nil {
		seen, err := b.Inbox.Seen(ctx, id)
		if err != nil {
			b.forget(id)
			return err
		}
		if seen {
			return nil
		}
	}
	sent, err := b.Notifier.NotifyUser(ctx, ev.RecipientID, domainpush.NewMessagePayload(ev.Text))
	if err != nil {
		b.forget(id)
		if b.Inbox != nil {
			if fErr := b.Inbox.Forget(ctx, id); fErr != nil {
				err = errors.Join(err, fErr)
			}
		}
		return err
	}
	if b.Logger != nil {
		b.Logger.Debug("message push delivered", "message_id", ev.MessageID, "recipient_id", ev.RecipientID, "sent", sent)
	}
	return nil
}

func (b *Bridge) forget(messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen != nil {
		b.seen.Forget(realtime.Event{Type: MessageInserted, MessageID: messageID})
	}
}

func (b *Bridge) duplicate(messageID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen == nil {
		b.seen = realtime.NewDedup(4096)
	}
	return b.seen.Seen(realtime.Event{Type: MessageInserted, MessageID: messageID})
}
