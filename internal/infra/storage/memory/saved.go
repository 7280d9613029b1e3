package memory

import (
	"context"
	"sort"
	"sync"

	domainsaved "unimate/internal/domain/saved"
)

type savedKey struct {
	user    string
	listing string
}

type SavedRepository struct {
	mu    sync.RWMutex
	items map[savedKey]domainsaved.Item
}

func NewSavedRepository() *SavedRepository {
	return &SavedRepository{items: make(map[savedKey]domainsaved.Item)}
}

func (r *SavedRepository) Add(ctx context.Context, item domainsaved.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := savedKey{item.UserID, item.ListingID}
	if _, ok := r.items[key]; ok {
		return domainsaved.ErrAlreadySaved
	}
	r.items[key] = item
	return nil
}

func (r *SavedRepository) Remove(ctx context.Context, userID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, savedKey{userID, listingID})
	return nil
}

func (r *SavedRepository) ListByUser(ctx context.Context, userID string) ([]domainsaved.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainsaved.Item, 0)
	for key, item := range r.items {
		if key.user == userID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *SavedRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[savedKey{userID, listingID}]
	return ok, nil
}

var _ domainsaved.Repository = (*SavedRepository)(nil)
