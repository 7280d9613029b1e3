package chats

import (
	"context"
	"errors"
	"log/slog"

	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/queries"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
)

const (
	listMessagesKey      = "chats.messages.list"
	countUnreadKey       = "chats.unread.count"
	listConversationsKey = "chats.conversations.list"
	getChatKey           = "chats.get"
	getDealKey           = "chats.deals.get"
	listDealsKey         = "chats.deals.list"
	profileStatsKey      = "chats.profile.stats"
)

type ListMessagesQuery struct {
	UserID string
	ChatID string
}

func (q ListMessagesQuery) Key() string     { return listMessagesKey }
func (q ListMessagesQuery) ActorID() string { return q.UserID }

type ListMessagesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMessagesHandler) Handle(ctx context.Context, q ListMessagesQuery) (dto.ChatMessageList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	chat, err := participantChat(execCtx, unit, q.ChatID, q.UserID)
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	msgs, err := unit.Messages().ListByChat(execCtx, chat.ID)
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	out := dto.ChatMessageList{Items: make([]dto.ChatMessage, 0, len(msgs))}
	for _, m := range msgs {
		out.Items = append(out.Items, dto.MapMessage(m))
	}
	return out, nil
}

type CountUnreadQuery struct {
	UserID string
}

func (q CountUnreadQuery) Key() string     { return countUnreadKey }
func (q CountUnreadQuery) ActorID() string { return q.UserID }

type CountUnreadHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CountUnreadHandler) Handle(ctx context.Context, q CountUnreadQuery) (dto.UnreadCount, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	count, err := unreadFor(execCtx, unit, q.UserID)
	if err != nil {
		return dto.UnreadCount{}, err
	}
	return dto.UnreadCount{Count: count}, nil
}

// ListConversationsQuery returns the inbox of a user: every chat with its
// listing card, last message and unread count.
type ListConversationsQuery struct {
	UserID string
}

func (q ListConversationsQuery) Key() string     { return listConversationsKey }
func (q ListConversationsQuery) ActorID() string { return q.UserID }

type ListConversationsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListConversationsHandler) Handle(ctx context.Context, q ListConversationsQuery) (dto.ConversationList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ConversationList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	list, err := unit.Chats().ListForUser(execCtx, q.UserID)
	if err != nil {
		return dto.ConversationList{}, err
	}
	out := dto.ConversationList{Items: make([]dto.Conversation, 0, len(list))}
	for _, chat := range list {
		conv := dto.Conversation{Chat: dto.MapChat(chat)}

		listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(chat.ListingID))
		switch {
		case err == nil:
			conv.Listing = &dto.ListingSummary{
				ID:       string(listing.ID),
				Title:    listing.Title,
				Price:    listing.Price.Major(),
				Currency: listing.Price.Currency,
				ImageURL: listing.PrimaryImageURL(),
			}
		case errors.Is(err, domainlistings.ErrNotFound):
			// expired or deleted listings keep their chats
		default:
			return dto.ConversationList{}, err
		}

		last, err := unit.Messages().Last(execCtx, chat.ID)
		switch {
		case err == nil:
			m := dto.MapMessage(last)
			conv.LastMessage = &m
		case !isNotFound(err):
			return dto.ConversationList{}, err
		}

		conv.UnreadCount, err = unit.Messages().CountUnread(execCtx, []domainchats.ChatID{chat.ID}, q.UserID)
		if err != nil {
			return dto.ConversationList{}, err
		}
		out.Items = append(out.Items, conv)
	}
	if h.Logger != nil {
		h.Logger.Debug("conversations listed", "user_id", q.UserID, "count", len(out.Items))
	}
	return out, nil
}

type GetChatQuery struct {
	UserID string
	ChatID string
}

func (q GetChatQuery) Key() string     { return getChatKey }
func (q GetChatQuery) ActorID() string { return q.UserID }

type GetChatHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetChatHandler) Handle(ctx context.Context, q GetChatQuery) (dto.Chat, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Chat{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	chat, err := participantChat(execCtx, unit, q.ChatID, q.UserID)
	if err != nil {
		return dto.Chat{}, err
	}
	return dto.MapChat(chat), nil
}

type GetDealQuery struct {
	UserID string
	ChatID string
}

func (q GetDealQuery) Key() string     { return getDealKey }
func (q GetDealQuery) ActorID() string { return q.UserID }

type GetDealHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns nil when the chat has no deal yet.
func (h *GetDealHandler) Handle(ctx context.Context, q GetDealQuery) (*dto.Deal, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	chat, err := participantChat(execCtx, unit, q.ChatID, q.UserID)
	if err != nil {
		return nil, err
	}
	deal, err := unit.Deals().ByChat(execCtx, chat.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	result := dto.MapDeal(deal)
	return &result, nil
}

type ListDealsQuery struct {
	UserID string
}

func (q ListDealsQuery) Key() string     { return listDealsKey }
func (q ListDealsQuery) ActorID() string { return q.UserID }

type ListDealsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListDealsHandler) Handle(ctx context.Context, q ListDealsQuery) (dto.DealList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.DealList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	deals, err := unit.Deals().ListForUser(execCtx, q.UserID)
	if err != nil {
		return dto.DealList{}, err
	}
	out := dto.DealList{Items: make([]dto.Deal, 0, len(deals))}
	for _, d := range deals {
		out.Items = append(out.Items, dto.MapDeal(d))
	}
	return out, nil
}

type ProfileStatsQuery struct {
	UserID string
}

func (q ProfileStatsQuery) Key() string     { return profileStatsKey }
func (q ProfileStatsQuery) ActorID() string { return q.UserID }

type ProfileStatsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ProfileStatsHandler) Handle(ctx context.Context, q ProfileStatsQuery) (dto.ProfileStats, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ProfileStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	var stats dto.ProfileStats
	if stats.UnreadMessages, err = unreadFor(execCtx, unit, q.UserID); err != nil {
		return dto.ProfileStats{}, err
	}
	own, err := unit.Listings().ListBySeller(execCtx, domainlistings.SellerID(q.UserID))
	if err != nil {
		return dto.ProfileStats{}, err
	}
	stats.Listings = len(own)
	deals, err := unit.Deals().ListForUser(execCtx, q.UserID)
	if err != nil {
		return dto.ProfileStats{}, err
	}
	for _, d := range deals {
		if d.SellerID == q.UserID {
			stats.DealsAsSeller++
		}
		if d.BuyerID == q.UserID {
			stats.DealsAsBuyer++
		}
	}
	return stats, nil
}

var (
	_ queries.Handler[ListMessagesQuery, dto.ChatMessageList]       = (*ListMessagesHandler)(nil)
	_ queries.Handler[CountUnreadQuery, dto.UnreadCount]            = (*CountUnreadHandler)(nil)
	_ queries.Handler[ListConversationsQuery, dto.ConversationList] = (*ListConversationsHandler)(nil)
	_ queries.Handler[GetChatQuery, dto.Chat]                       = (*GetChatHandler)(nil)
	_ queries.Handler[GetDealQuery, *dto.Deal]                      = (*GetDealHandler)(nil)
	_ queries.Handler[ListDealsQuery, dto.DealList]                 = (*ListDealsHandler)(nil)
	_ queries.Handler[ProfileStatsQuery, dto.ProfileStats]          = (*ProfileStatsHandler)(nil)
)
