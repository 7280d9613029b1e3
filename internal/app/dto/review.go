package dto

import (
	"time"

	domainreviews "unimate/internal/domain/reviews"
)

// Review represents a public review payload.
type Review struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	ReviewerID string    `json:"reviewer_id"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	// Mine is set when the requesting user wrote the review.
	Mine bool `json:"mine,omitempty"`
}

type ReviewCollection struct {
	Items   []Review `json:"items"`
	Total   int      `json:"total"`
	Average *float64 `json:"average,omitempty"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:         string(review.ID),
		ListingID:  review.ListingID,
		ReviewerID: review.ReviewerID,
		Rating:     review.Rating,
		Text:       review.Text,
		CreatedAt:  review.CreatedAt,
		UpdatedAt:  review.UpdatedAt,
	}
}
