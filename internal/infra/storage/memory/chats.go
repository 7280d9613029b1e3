package memory

import (
	"context"
	"sort"
	"sync"

	domainchats "unimate/internal/domain/chats"
)

type listingBuyer struct {
	listing string
	buyer   string
}

// ChatRepository guards the (listing, buyer) pair under a single lock, which
// makes Insert the point where duplicate opens are rejected.
type ChatRepository struct {
	mu     sync.RWMutex
	items  map[domainchats.ChatID]domainchats.Chat
	byPair map[listingBuyer]domainchats.ChatID
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{
		items:  make(map[domainchats.ChatID]domainchats.Chat),
		byPair: make(map[listingBuyer]domainchats.ChatID),
	}
}

func (r *ChatRepository) ByID(ctx context.Context, id domainchats.ChatID) (*domainchats.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chat, ok := r.items[id]
	if !ok {
		return nil, domainchats.ErrNotFound
	}
	return &chat, nil
}

func (r *ChatRepository) ByListingBuyer(ctx context.Context, listingID, buyerID string) (*domainchats.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[listingBuyer{listingID, buyerID}]
	if !ok {
		return nil, domainchats.ErrNotFound
	}
	chat := r.items[id]
	return &chat, nil
}

func (r *ChatRepository) Insert(ctx context.Context, chat *domainchats.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := listingBuyer{chat.ListingID, chat.BuyerID}
	if _, ok := r.byPair[key]; ok {
		return domainchats.ErrChatExists
	}
	stored := *chat
	stored.ClearEvents()
	r.items[chat.ID] = stored
	r.byPair[key] = chat.ID
	return nil
}

func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]*domainchats.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainchats.Chat, 0)
	for _, chat := range r.items {
		if chat.IsParticipant(userID) {
			c := chat
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type MessageRepository struct {
	mu     sync.RWMutex
	byChat map[domainchats.ChatID][]domainchats.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{byChat: make(map[domainchats.ChatID][]domainchats.Message)}
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainchats.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *msg
	stored.ClearEvents()
	r.byChat[msg.ChatID] = append(r.byChat[msg.ChatID], stored)
	return nil
}

func (r *MessageRepository) ListByChat(ctx context.Context, chatID domainchats.ChatID) ([]*domainchats.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.byChat[chatID]
	out := make([]*domainchats.Message, 0, len(msgs))
	for i := range msgs {
		m := msgs[i]
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MessageRepository) Last(ctx context.Context, chatID domainchats.ChatID) (*domainchats.Message, error) {
	msgs, _ := r.ListByChat(ctx, chatID)
	if len(msgs) == 0 {
		return nil, domainchats.ErrNotFound
	}
	return msgs[len(msgs)-1], nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, chatID domainchats.ChatID, reader string) ([]domainchats.MessageID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.byChat[chatID]
	var changed []domainchats.MessageID
	for i := range msgs {
		if msgs[i].SenderID != reader && !msgs[i].IsRead {
			msgs[i].IsRead = true
			changed = append(changed, msgs[i].ID)
		}
	}
	return changed, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, chatIDs []domainchats.ChatID, reader string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, id := range chatIDs {
		for _, m := range r.byChat[id] {
			if m.SenderID != reader && !m.IsRead {
				count++
			}
		}
	}
	return count, nil
}

type DealRepository struct {
	mu     sync.RWMutex
	byChat map[domainchats.ChatID]domainchats.Deal
}

func NewDealRepository() *DealRepository {
	return &DealRepository{byChat: make(map[domainchats.ChatID]domainchats.Deal)}
}

func (r *DealRepository) Insert(ctx context.Context, deal *domainchats.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byChat[deal.ChatID]; ok {
		return domainchats.ErrDealExists
	}
	stored := *deal
	stored.ClearEvents()
	r.byChat[deal.ChatID] = stored
	return nil
}

func (r *DealRepository) ByChat(ctx context.Context, chatID domainchats.ChatID) (*domainchats.Deal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	deal, ok := r.byChat[chatID]
	if !ok {
		return nil, domainchats.ErrNotFound
	}
	return &deal, nil
}

func (r *DealRepository) ListForUser(ctx context.Context, userID string) ([]*domainchats.Deal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainchats.Deal, 0)
	for _, deal := range r.byChat {
		if deal.BuyerID == userID || deal.SellerID == userID {
			d := deal
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var (
	_ domainchats.ChatRepository    = (*ChatRepository)(nil)
	_ domainchats.MessageRepository = (*MessageRepository)(nil)
	_ domainchats.DealRepository    = (*DealRepository)(nil)
)
