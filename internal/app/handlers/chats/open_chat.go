package chats

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/outbox"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
)

const openChatKey = "chats.open"

// OpenChatCommand finds or creates the chat between the buyer and the seller
// of a listing.
type OpenChatCommand struct {
	BuyerID   string
	ListingID string
}

func (c OpenChatCommand) Key() string     { return openChatKey }
func (c OpenChatCommand) ActorID() string { return c.BuyerID }

func (c OpenChatCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return errors.New("chats: listing id is required")
	}
	return nil
}

type OpenChatHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *OpenChatHandler) Handle(ctx context.Context, cmd OpenChatCommand) (*dto.Chat, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	existing, err := unit.Chats().ByListingBuyer(ctx, cmd.ListingID, cmd.BuyerID)
	switch {
	case err == nil:
		result := dto.MapChat(existing)
		return &result, nil
	case !isNotFound(err):
		return nil, err
	}

	chat, err := domainchats.Open(domainchats.OpenParams{
		ID:        domainchats.ChatID(uuid.NewString()),
		ListingID: string(listing.ID),
		SellerID:  string(listing.Seller),
		BuyerID:   cmd.BuyerID,
		Now:       clock(h.Now),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Chats().Insert(ctx, chat); err != nil {
		if !errors.Is(err, domainchats.ErrChatExists) {
			return nil, err
		}
		// Lost the race to a concurrent open; the stored chat wins.
		winner, lookupErr := unit.Chats().ByListingBuyer(ctx, cmd.ListingID, cmd.BuyerID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		result := dto.MapChat(winner)
		return &result, nil
	}
	if err := outbox.Drain(ctx, h.Outbox, encoderOrDefault(h.Encoder), chat); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("chat created", "chat_id", chat.ID, "listing_id", chat.ListingID, "buyer_id", chat.BuyerID)
	}
	result := dto.MapChat(chat)
	return &result, nil
}

var _ commands.Handler[OpenChatCommand, *dto.Chat] = (*OpenChatHandler)(nil)
