package chats

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/outbox"
	"unimate/internal/app/realtime"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
)

const markSoldKey = "chats.deals.mark_sold"

// MarkSoldCommand completes the deal for a chat on behalf of its seller.
type MarkSoldCommand struct {
	SellerID string
	ChatID   string
}

func (c MarkSoldCommand) Key() string     { return markSoldKey }
func (c MarkSoldCommand) ActorID() string { return c.SellerID }

type MarkSoldHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Hub        *realtime.Hub
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle stores the deal first; the sold announcement is only posted once the
// deal exists, so a rejected second attempt leaves the chat untouched.
func (h *MarkSoldHandler) Handle(ctx context.Context, cmd MarkSoldCommand) (*dto.Deal, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	chat, err := participantChat(ctx, unit.UnitOfWork, cmd.ChatID, cmd.SellerID)
	if err != nil {
		return nil, err
	}
	now := clock(h.Now)
	deal, err := domainchats.CompleteDeal(domainchats.DealID(uuid.NewString()), chat, cmd.SellerID, now)
	if err != nil {
		return nil, err
	}
	if err := unit.Deals().Insert(ctx, deal); err != nil {
		return nil, err
	}

	msg, err := domainchats.NewMessage(domainchats.NewMessageParams{
		ID:       domainchats.MessageID(uuid.NewString()),
		Chat:     chat,
		SenderID: cmd.SellerID,
		Text:     domainchats.SoldAnnouncement,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, encoderOrDefault(h.Encoder), deal); err != nil {
		return nil, err
	}
	notes, err := deliver(ctx, unit.UnitOfWork, h.Outbox, h.Encoder, chat, msg)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	publish(h.Hub, notes...)

	if h.Logger != nil {
		h.Logger.Info("deal completed", "deal_id", deal.ID, "chat_id", chat.ID, "listing_id", deal.ListingID, "buyer_id", deal.BuyerID)
	}
	result := dto.MapDeal(deal)
	return &result, nil
}

var _ commands.Handler[MarkSoldCommand, *dto.Deal] = (*MarkSoldHandler)(nil)
