package chats

import (
	"context"
	"errors"
	"time"

	"unimate/internal/app/dto"
	"unimate/internal/app/outbox"
	"unimate/internal/app/realtime"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
)

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

func publish(hub *realtime.Hub, evs ...realtime.Event) {
	if hub == nil {
		return
	}
	for _, ev := range evs {
		hub.Publish(ev)
	}
}

// participantChat loads a chat and checks that actor takes part in it.
func participantChat(ctx context.Context, unit uow.UnitOfWork, chatID, actor string) (*domainchats.Chat, error) {
	chat, err := unit.Chats().ByID(ctx, domainchats.ChatID(chatID))
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(actor) {
		return nil, domainchats.ErrNotParticipant
	}
	return chat, nil
}

// unreadFor counts unread messages across every chat of the user.
func unreadFor(ctx context.Context, unit uow.UnitOfWork, userID string) (int, error) {
	list, err := unit.Chats().ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}
	ids := make([]domainchats.ChatID, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	return unit.Messages().CountUnread(ctx, ids, userID)
}

func insertedEvent(chat *domainchats.Chat, msg *domainchats.Message) realtime.Event {
	return realtime.Event{
		Type:      realtime.TypeMessageInserted,
		ChatID:    string(chat.ID),
		MessageID: string(msg.ID),
		Data:      dto.MapMessage(msg),
		Users:     []string{chat.SellerID, chat.BuyerID},
	}
}

func unreadEvent(userID string, count int) realtime.Event {
	return realtime.Event{
		Type:  realtime.TypeUnreadCount,
		Data:  dto.UnreadCount{Count: count},
		Users: []string{userID},
	}
}

// deliver stores a new message, records its events and returns the realtime
// notifications to publish once the unit is committed.
func deliver(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, enc outbox.EventEncoder, chat *domainchats.Chat, msg *domainchats.Message) ([]realtime.Event, error) {
	if err := unit.Messages().Append(ctx, msg); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, box, encoderOrDefault(enc), msg); err != nil {
		return nil, err
	}
	recipient := chat.Counterpart(msg.SenderID)
	evs := []realtime.Event{insertedEvent(chat, msg)}
	count, err := unreadFor(ctx, unit, recipient)
	if err != nil {
		return nil, err
	}
	return append(evs, unreadEvent(recipient, count)), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domainchats.ErrNotFound)
}
