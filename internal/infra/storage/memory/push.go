package memory

import (
	"context"
	"sort"
	"sync"

	domainpush "unimate/internal/domain/push"
)

// PushSubscriptionRepository is keyed by endpoint.
type PushSubscriptionRepository struct {
	mu    sync.RWMutex
	items map[string]domainpush.Subscription
}

func NewPushSubscriptionRepository() *PushSubscriptionRepository {
	return &PushSubscriptionRepository{items: make(map[string]domainpush.Subscription)}
}

func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub domainpush.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.items[sub.Endpoint]; ok && !prev.CreatedAt.IsZero() {
		sub.CreatedAt = prev.CreatedAt
	}
	r.items[sub.Endpoint] = sub
	return nil
}

func (r *PushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, endpoint)
	return nil
}

func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domainpush.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainpush.Subscription, 0)
	for _, sub := range r.items {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out, nil
}

var _ domainpush.Repository = (*PushSubscriptionRepository)(nil)
