package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"unimate/internal/domain/shared/events"
)

var (
	ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")
	ErrNotFound      = errors.New("reviews: not found")
	ErrOwnListing    = errors.New("reviews: sellers cannot review their own listing")
	ErrNotAuthor     = errors.New("reviews: review does not belong to current user")
)

type ReviewID string

type Review struct {
	ID         ReviewID
	ListingID  string
	ReviewerID string
	Rating     int
	// Text is empty when the reviewer left no comment.
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	// ListByListing returns reviews newest first.
	ListByListing(ctx context.Context, listingID string) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id ReviewID) error
}

type SubmitParams struct {
	ID         ReviewID
	ListingID  string
	SellerID   string
	ReviewerID string
	Rating     int
	Text       string
	Now        time.Time
}

func Submit(p SubmitParams) (*Review, error) {
	if p.Rating < 1 || p.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if p.ReviewerID == "" || p.ReviewerID == p.SellerID {
		return nil, ErrOwnListing
	}
	now := p.Now.UTC()
	review := &Review{
		ID:         p.ID,
		ListingID:  p.ListingID,
		ReviewerID: p.ReviewerID,
		Rating:     p.Rating,
		Text:       strings.TrimSpace(p.Text),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, ListingID: review.ListingID, Rating: review.Rating, At: now})
	return review, nil
}

// Edit changes rating and text; only the author may edit.
func (r *Review) Edit(actor string, rating int, text string, now time.Time) error {
	if actor != r.ReviewerID {
		return ErrNotAuthor
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	r.Rating = rating
	r.Text = strings.TrimSpace(text)
	r.UpdatedAt = now.UTC()
	r.Record(ReviewUpdated{ReviewID: r.ID, ListingID: r.ListingID, At: r.UpdatedAt})
	return nil
}

// Average returns nil for an empty set.
func Average(items []*Review) *float64 {
	if len(items) == 0 {
		return nil
	}
	total := 0
	for _, r := range items {
		total += r.Rating
	}
	avg := float64(total) / float64(len(items))
	return &avg
}
