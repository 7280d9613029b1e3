// Package saved tracks listings a user bookmarked.
package saved

import (
	"context"
	"errors"
	"time"
)

var ErrAlreadySaved = errors.New("saved: listing already saved")

type Item struct {
	UserID    string
	ListingID string
	CreatedAt time.Time
}

// Repository keeps (user, listing) unique.
type Repository interface {
	// Add returns ErrAlreadySaved on a duplicate pair.
	Add(ctx context.Context, item Item) error
	Remove(ctx context.Context, userID, listingID string) error
	// ListByUser returns items newest first.
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	Exists(ctx context.Context, userID, listingID string) (bool, error)
}
