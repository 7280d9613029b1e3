package scylla

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"

	domainchats "unimate/internal/domain/chats"
)

var errNoSession = errors.New("scylla: session not initialized")

// ChatRepository keeps one chat per (listing, buyer) through an LWT on chats_by_pair.
type ChatRepository struct {
	session *gocql.Session
}

func NewChatRepository(session *gocql.Session) *ChatRepository {
	return &ChatRepository{session: session}
}

func (r *ChatRepository) ByID(ctx context.Context, id domainchats.ChatID) (*domainchats.Chat, error) {
	if r.session == nil {
		return nil, errNoSession
	}
	chat := &domainchats.Chat{ID: id}
	err := r.session.
		Query(`SELECT listing_id, seller_id, buyer_id, created_at FROM chats WHERE id = ?`, string(id)).
		WithContext(ctx).
		Scan(&chat.ListingID, &chat.SellerID, &chat.BuyerID, &chat.CreatedAt)
	if err != nil {
		return nil, notFound(err, domainchats.ErrNotFound)
	}
	chat.CreatedAt = chat.CreatedAt.UTC()
	return chat, nil
}

func (r *ChatRepository) ByListingBuyer(ctx context.Context, listingID, buyerID string) (*domainchats.Chat, error) {
	if r.session == nil {
		return nil, errNoSession
	}
	var chatID string
	err := r.session.
		Query(`SELECT chat_id FROM chats_by_pair WHERE listing_id = ? AND buyer_id = ?`, listingID, buyerID).
		WithContext(ctx).
		SerialConsistency(gocql.LocalSerial).
		Scan(&chatID)
	if err != nil {
		return nil, notFound(err, domainchats.ErrNotFound)
	}
	return r.ByID(ctx, domainchats.ChatID(chatID))
}

// Insert writes the chat row before claiming the pair, so whoever reads the
// pair can always load the chat it points to.
func (r *ChatRepository) Insert(ctx context.Context, chat *domainchats.Chat) error {
	if r.session == nil {
		return errNoSession
	}
	return insertChat(ctx, r, chat)
}

// chatWrites are the individual statements behind ChatRepository.Insert.
type chatWrites interface {
	putChat(ctx context.Context, chat *domainchats.Chat) error
	claimPair(ctx context.Context, chat *domainchats.Chat) (bool, error)
	indexChat(ctx context.Context, chat *domainchats.Chat) error
	releasePair(ctx context.Context, chat *domainchats.Chat) error
	dropChat(ctx context.Context, id domainchats.ChatID) error
}

func insertChat(ctx context.Context, w chatWrites, chat *domainchats.Chat) error {
	if err := w.putChat(ctx, chat); err != nil {
		return fmt.Errorf("scylla: insert chat: %w", err)
	}
	applied, err := w.claimPair(ctx, chat)
	if err != nil {
		return fmt.Errorf("scylla: claim chat pair: %w", err)
	}
	if !applied {
		// Nothing references the row yet.
		_ = w.dropChat(ctx, chat.ID)
		return domainchats.ErrChatExists
	}
	if err := w.indexChat(ctx, chat); err != nil {
		failure := fmt.Errorf("scylla: index chat: %w", err)
		if relErr := w.releasePair(ctx, chat); relErr != nil {
			failure = errors.Join(failure, fmt.Errorf("scylla: release chat pair: %w", relErr))
		}
		return failure
	}
	return nil
}

func (r *ChatRepository) putChat(ctx context.Context, chat *domainchats.Chat) error {
	return r.session.
		Query(`INSERT INTO chats (id, listing_id, seller_id, buyer_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			string(chat.ID), chat.ListingID, chat.SellerID, chat.BuyerID, chat.CreatedAt.UTC()).
		WithContext(ctx).
		Exec()
}

func (r *ChatRepository) claimPair(ctx context.Context, chat *domainchats.Chat) (bool, error) {
	existing := map[string]interface{}{}
	return r.session.
		Query(`INSERT INTO chats_by_pair (listing_id, buyer_id, chat_id) VALUES (?, ?, ?) IF NOT EXISTS`,
			chat.ListingID, chat.BuyerID, string(chat.ID)).
		WithContext(ctx).
		MapScanCAS(existing)
}

func (r *ChatRepository) indexChat(ctx context.Context, chat *domainchats.Chat) error {
	created := chat.CreatedAt.UTC()
	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO chats_by_user (user_id, created_at, chat_id) VALUES (?, ?, ?)`, chat.SellerID, created, string(chat.ID))
	batch.Query(`INSERT INTO chats_by_user (user_id, created_at, chat_id) VALUES (?, ?, ?)`, chat.BuyerID, created, string(chat.ID))
	return r.session.ExecuteBatch(batch)
}

// releasePair frees the pair only while it still points at chat.
func (r *ChatRepository) releasePair(ctx context.Context, chat *domainchats.Chat) error {
	existing := map[string]interface{}{}
	_, err := r.session.
		Query(`DELETE FROM chats_by_pair WHERE listing_id = ? AND buyer_id = ? IF chat_id = ?`,
			chat.ListingID, chat.BuyerID, string(chat.ID)).
		WithContext(ctx).
		MapScanCAS(existing)
	return err
}

func (r *ChatRepository) dropChat(ctx context.Context, id domainchats.ChatID) error {
	return r.session.Query(`DELETE FROM chats WHERE id = ?`, string(id)).WithContext(ctx).Exec()
}

func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]*domainchats.Chat, error) {
	if r.session == nil {
		return nil, errNoSession
	}
	iter := r.session.
		Query(`SELECT chat_id FROM chats_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).
		Iter()
	var ids []string
	var id string
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	out := make([]*domainchats.Chat, 0, len(ids))
	for _, id := range ids {
		chat, err := r.ByID(ctx, domainchats.ChatID(id))
		if errors.Is(err, domainchats.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, chat)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DealRepository stores deals keyed by chat; the LWT keeps one per chat.
type DealRepository struct {
	session *gocql.Session
}

func NewDealRepository(session *gocql.Session) *DealRepository {
	return &DealRepository{session: session}
}

// Insert claims the chat's deal slot, then indexes it for both parties. A
// failed index write gives the slot back so MarkSold can be retried.
func (r *DealRepository) Insert(ctx context.Context, deal *domainchats.Deal) error {
	if r.session == nil {
		return errNoSession
	}
	return insertDeal(ctx, r, deal)
}

type dealWrites interface {
	claimDeal(ctx context.Context, deal *domainchats.Deal) (bool, error)
	indexDeal(ctx context.Context, deal *domainchats.Deal) error
	releaseDeal(ctx context.Context, deal *domainchats.Deal) error
}

func insertDeal(ctx context.Context, w dealWrites, deal *domainchats.Deal) error {
	applied, err := w.claimDeal(ctx, deal)
	if err != nil {
		return fmt.Errorf("scylla: insert deal: %w", err)
	}
	if !applied {
		return domainchats.ErrDealExists
	}
	if err := w.indexDeal(ctx, deal); err != nil {
		failure := fmt.Errorf("scylla: index deal: %w", err)
		if relErr := w.releaseDeal(ctx, deal); relErr != nil {
			failure = errors.Join(failure, fmt.Errorf("scylla: release deal: %w", relErr))
		}
		return failure
	}
	return nil
}

func (r *DealRepository) claimDeal(ctx context.Context, deal *domainchats.Deal) (bool, error) {
	existing := map[string]interface{}{}
	return r.session.
		Query(`INSERT INTO deals (chat_id, deal_id, listing_id, buyer_id, seller_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
			string(deal.ChatID), string(deal.ID), deal.ListingID, deal.BuyerID, deal.SellerID, string(deal.Status), deal.CreatedAt.UTC()).
		WithContext(ctx).
		MapScanCAS(existing)
}

func (r *DealRepository) indexDeal(ctx context.Context, deal *domainchats.Deal) error {
	created := deal.CreatedAt.UTC()
	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO deals_by_user (user_id, created_at, chat_id) VALUES (?, ?, ?)`, deal.SellerID, created, string(deal.ChatID))
	batch.Query(`INSERT INTO deals_by_user (user_id, created_at, chat_id) VALUES (?, ?, ?)`, deal.BuyerID, created, string(deal.ChatID))
	return r.session.ExecuteBatch(batch)
}

func (r *DealRepository) releaseDeal(ctx context.Context, deal *domainchats.Deal) error {
	existing := map[string]interface{}{}
	_, err := r.session.
		Query(`DELETE FROM deals WHERE chat_id = ? IF deal_id = ?`, string(deal.ChatID), string(deal.ID)).
		WithContext(ctx).
		MapScanCAS(existing)
	return err
}

func (r *DealRepository) ByChat(ctx context.Context, chatID domainchats.ChatID) (*domainchats.Deal, error) {
	if r.session == nil {
		return nil, errNoSession
	}
	deal := &domainchats.Deal{ChatID: chatID}
	var id, status string
	err := r.session.
		Query(`SELECT deal_id, listing_id, buyer_id, seller_id, status, created_at FROM deals WHERE chat_id = ?`, string(chatID)).
		WithContext(ctx).
		SerialConsistency(gocql.LocalSerial).
		Scan(&id, &deal.ListingID, &deal.BuyerID, &deal.SellerID, &status, &deal.CreatedAt)
	if err != nil {
		return nil, notFound(err, domainchats.ErrNotFound)
	}
	deal.ID = domainchats.DealID(id)
	deal.Status = domainchats.DealStatus(status)
	deal.CreatedAt = deal.CreatedAt.UTC()
	return deal, nil
}

func (r *DealRepository) ListForUser(ctx context.Context, userID string) ([]*domainchats.Deal, error) {
	if r.session == nil {
		return nil, errNoSession
	}
	iter := r.session.
		Query(`SELECT chat_id FROM deals_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).
		Iter()
	var chatIDs []string
	var chatID string
	for iter.Scan(&chatID) {
		chatIDs = append(chatIDs, chatID)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	out := make([]*domainchats.Deal, 0, len(chatIDs))
	for _, id := range chatIDs {
		deal, err := r.ByChat(ctx, domainchats.ChatID(id))
		if errors.Is(err, domainchats.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, deal)
	}
	return out, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return sentinel
	}
	return err
}

// timeOrNow keeps zero timestamps out of clustering keys.
func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

var _ domainchats.ChatRepository = (*ChatRepository)(nil)
var _ domainchats.DealRepository = (*DealRepository)(nil)
