package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/outbox"
	"unimate/internal/app/uow"
	domainreviews "unimate/internal/domain/reviews"
)

const (
	updateReviewKey = "reviews.update"
	deleteReviewKey = "reviews.delete"
)

// UpdateReviewCommand edits a review; only its author may do so.
type UpdateReviewCommand struct {
	ReviewID   string
	ReviewerID string
	Rating     int
	Text       string
}

func (c UpdateReviewCommand) Key() string     { return updateReviewKey }
func (c UpdateReviewCommand) ActorID() string { return c.ReviewerID }

func (c UpdateReviewCommand) Validate() error {
	if c.ReviewID == "" {
		return errors.New("reviews: review id is required")
	}
	return nil
}

// UpdateReviewHandler updates the review and recalculates listing rating.
type UpdateReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *UpdateReviewHandler) Handle(ctx context.Context, cmd UpdateReviewCommand) (dto.Review, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer unit.Close()
	ctx = unit.Ctx
	now := clock(h.Now)

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return dto.Review{}, err
	}
	if err := review.Edit(cmd.ReviewerID, cmd.Rating, cmd.Text, now); err != nil {
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
		h.Logger.Info("review updated", "review_id", review.ID, "listing_id", review.ListingID, "reviewer_id", review.ReviewerID)
	}

	return dto.MapReview(review), nil
}

type DeleteReviewCommand struct {
	ReviewID   string
	ReviewerID string
}

func (c DeleteReviewCommand) Key() string     { return deleteReviewKey }
func (c DeleteReviewCommand) ActorID() string { return c.ReviewerID }

type DeleteReviewHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *DeleteReviewHandler) Handle(ctx context.Context, cmd DeleteReviewCommand) (struct{}, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return struct{}{}, err
	}
	if review.ReviewerID != cmd.ReviewerID {
		return struct{}{}, domainreviews.ErrNotAuthor
	}
	if err := unit.Reviews().Delete(ctx, review.ID); err != nil {
		return struct{}{}, err
	}
	if err := recalculateListingRating(ctx, unit.UnitOfWork, review.ListingID, clock(h.Now)); err != nil {
		return struct{}{}, err
	}
	if err := unit.Commit(); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("review deleted", "review_id", review.ID, "listing_id", review.ListingID)
	}
	return struct{}{}, nil
}

var _ commands.Handler[UpdateReviewCommand, dto.Review] = (*UpdateReviewHandler)(nil)
var _ commands.Handler[DeleteReviewCommand, struct{}] = (*DeleteReviewHandler)(nil)
