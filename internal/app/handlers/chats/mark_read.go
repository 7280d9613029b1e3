package chats

import (
	"context"
	"time"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/outbox"
	"unimate/internal/app/realtime"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	"unimate/internal/domain/shared/events"
)

const markReadKey = "chats.messages.mark_read"

// MarkReadCommand flags every message the reader received in a chat as read.
type MarkReadCommand struct {
	ReaderID string
	ChatID   string
}

func (c MarkReadCommand) Key() string     { return markReadKey }
func (c MarkReadCommand) ActorID() string { return c.ReaderID }

type MarkReadHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Hub        *realtime.Hub
	Now        func() time.Time
}

// Handle returns the reader's remaining unread count across all chats.
func (h *MarkReadHandler) Handle(ctx context.Context, cmd MarkReadCommand) (dto.UnreadCount, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	chat, err := participantChat(ctx, unit.UnitOfWork, cmd.ChatID, cmd.ReaderID)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	changed, err := unit.Messages().MarkRead(ctx, chat.ID, cmd.ReaderID)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	if len(changed) > 0 {
		ev := domainchats.MessagesReadEvent{ChatID: chat.ID, ReaderID: cmd.ReaderID, MessageIDs: changed, At: clock(h.Now)}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), []events.DomainEvent{ev}); err != nil {
			return dto.UnreadCount{}, err
		}
	}
	count, err := unreadFor(ctx, unit.UnitOfWork, cmd.ReaderID)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.UnreadCount{}, err
	}

	notes := make([]realtime.Event, 0, len(changed)+1)
	for _, id := range changed {
		notes = append(notes, realtime.Event{
			Type:      realtime.TypeMessageUpdated,
			ChatID:    string(chat.ID),
			MessageID: string(id),
			Data:      map[string]any{"id": string(id), "is_read": true},
			Users:     []string{chat.SellerID, chat.BuyerID},
		})
	}
	publish(h.Hub, append(notes, unreadEvent(cmd.ReaderID, count))...)
	return dto.UnreadCount{Count: count}, nil
}

var _ commands.Handler[MarkReadCommand, dto.UnreadCount] = (*MarkReadHandler)(nil)
