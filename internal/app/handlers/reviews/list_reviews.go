package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/queries"
	"unimate/internal/app/uow"
	domainlistings "unimate/internal/domain/listings"
	domainreviews "unimate/internal/domain/reviews"
)

const (
	listListingReviewsKey = "reviews.listing.list"
	defaultReviewPage     = 20
	maxReviewPage         = 100
)

// ListListingReviewsQuery is public; ViewerID only marks the viewer's own reviews.
type ListListingReviewsQuery struct {
	ListingID string
	ViewerID  string
	Limit     int
	Offset    int
}

func (q ListListingReviewsQuery) Key() string { return listListingReviewsKey }

type ListListingReviewsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle returns one page, newest first. Total and Average cover every review
// of the listing.
func (h *ListListingReviewsHandler) Handle(ctx context.Context, q ListListingReviewsQuery) (dto.ReviewCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if _, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID)); err != nil {
		return dto.ReviewCollection{}, fmt.Errorf("reviews: listing %s: %w", q.ListingID, err)
	}
	all, err := unit.Reviews().ListByListing(execCtx, q.ListingID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}

	page := window(all, q.Offset, q.Limit)
	items := make([]dto.Review, 0, len(page))
	for _, review := range page {
		item := dto.MapReview(review)
		item.Mine = q.ViewerID != "" && review.ReviewerID == q.ViewerID
		items = append(items, item)
	}
	if h.Logger != nil {
		h.Logger.Debug("listing reviews listed", "listing_id", q.ListingID, "count", len(items), "total", len(all))
	}
	return dto.ReviewCollection{Items: items, Total: len(all), Average: domainreviews.Average(all)}, nil
}

func window(all []*domainreviews.Review, offset, limit int) []*domainreviews.Review {
	if limit <= 0 {
		limit = defaultReviewPage
	}
	if limit > maxReviewPage {
		limit = maxReviewPage
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

var _ queries.Handler[ListListingReviewsQuery, dto.ReviewCollection] = (*ListListingReviewsHandler)(nil)
