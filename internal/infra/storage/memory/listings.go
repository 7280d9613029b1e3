package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainlistings "unimate/internal/domain/listings"
)

// ListingRepository keeps listings in a map; stored values are copies so
// callers never share state with the store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ListingRepository) ListActive(ctx context.Context) ([]*domainlistings.Listing, error) {
	return r.collect(func(l *domainlistings.Listing) bool {
		return l.Status == domainlistings.StatusActive
	}, newestFirst), nil
}

func (r *ListingRepository) ListBySeller(ctx context.Context, seller domainlistings.SellerID) ([]*domainlistings.Listing, error) {
	return r.collect(func(l *domainlistings.Listing) bool {
		return l.Seller == seller
	}, newestFirst), nil
}

func (r *ListingRepository) Related(ctx context.Context, category domainlistings.CategoryID, exclude domainlistings.ListingID, limit int) ([]*domainlistings.Listing, error) {
	out := r.collect(func(l *domainlistings.Listing) bool {
		return l.Status == domainlistings.StatusActive && l.Category.ID == category && l.ID != exclude
	}, newestFirst)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ListingRepository) CreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domainlistings.Listing, error) {
	out := r.collect(func(l *domainlistings.Listing) bool {
		return l.CreatedAt.Before(cutoff)
	}, oldestFirst)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ListingRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]*domainlistings.Listing, error) {
	return r.collect(func(l *domainlistings.Listing) bool {
		return l.CreatedAt.After(from) && !l.CreatedAt.After(to)
	}, oldestFirst), nil
}

func (r *ListingRepository) collect(keep func(*domainlistings.Listing) bool, less func(a, b *domainlistings.Listing) bool) []*domainlistings.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0, len(r.items))
	for _, l := range r.items {
		if keep(l) {
			out = append(out, cloneListing(l))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirst(a, b *domainlistings.Listing) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func oldestFirst(a, b *domainlistings.Listing) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	cp := *l
	cp.Images = append([]domainlistings.Image(nil), l.Images...)
	cp.Videos = append([]domainlistings.Video(nil), l.Videos...)
	cp.ClearEvents()
	return &cp
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
