package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/outbox"
	"unimate/internal/app/uow"
	domainlistings "unimate/internal/domain/listings"
	domainreviews "unimate/internal/domain/reviews"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand adds a review to a listing.
type SubmitReviewCommand struct {
	ListingID  string
	ReviewerID string
	Rating     int
	Text       string
}

func (c SubmitReviewCommand) Key() string     { return submitReviewKey }
func (c SubmitReviewCommand) ActorID() string { return c.ReviewerID }

// SubmitReviewHandler validates and stores a new review, updating listing rating.
type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer unit.Close()
	ctx = unit.Ctx
	now := clock(h.Now)

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return dto.Review{}, err
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:         domainreviews.ReviewID(uuid.NewString()),
		ListingID:  string(listing.ID),
		SellerID:   string(listing.Seller),
		ReviewerID: cmd.ReviewerID,
		Rating:     cmd.Rating,
		Text:       cmd.Text,
		Now:        now,
	})
	if err != nil {
		return dto.Review{}, err
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}
	if err := recalculateListingRating(ctx, unit.UnitOfWork, review.ListingID, now); err != nil {
		return dto.Review{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.Review{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.Review{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", review.ID, "listing_id", review.ListingID, "reviewer_id", cmd.ReviewerID, "rating", cmd.Rating)
	}

	return dto.MapReview(review), nil
}

var _ commands.Handler[SubmitReviewCommand, dto.Review] = (*SubmitReviewHandler)(nil)
