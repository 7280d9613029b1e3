package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	domainlistings "unimate/internal/domain/listings"
	domainreviews "unimate/internal/domain/reviews"
	"unimate/internal/domain/shared/money"
	"unimate/internal/infra/storage/memory"
)

func seedListing(t *testing.T, factory memory.Factory) {
	t.Helper()
	category, _ := domainlistings.CategoryByID("books")
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID: "l1", Seller: "seller", Title: "Algorithms", Price: money.Must(50000, ""), Category: category, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := factory.ListingsRepo.Save(context.Background(), listing); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func rating(t *testing.T, factory memory.Factory) *float64 {
	t.Helper()
	l, err := factory.ListingsRepo.ByID(context.Background(), "l1")
	if err != nil {
		t.Fatalf("load listing: %v", err)
	}
	return l.Rating
}

func TestReviewLifecycleRecomputesRating(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory)
	ctx := context.Background()
	submit := &SubmitReviewHandler{UoWFactory: factory}

	if _, err := submit.Handle(ctx, SubmitReviewCommand{ListingID: "l1", ReviewerID: "seller", Rating: 5}); !errors.Is(err, domainreviews.ErrOwnListing) {
		t.Fatalf("expected ErrOwnListing, got %v", err)
	}
	if _, err := submit.Handle(ctx, SubmitReviewCommand{ListingID: "l1", ReviewerID: "a", Rating: 6}); !errors.Is(err, domainreviews.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}

	first, err := submit.Handle(ctx, SubmitReviewCommand{ListingID: "l1", ReviewerID: "a", Rating: 4, Text: "  good  "})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Text != "good" {
		t.Fatalf("text not trimmed: %q", first.Text)
	}
	if _, err := submit.Handle(ctx, SubmitReviewCommand{ListingID: "l1", ReviewerID: "b", Rating: 2}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if r := rating(t, factory); r == nil || *r != 3 {
		t.Fatalf("rating = %v, want 3", r)
	}

	update := &UpdateReviewHandler{UoWFactory: factory}
	if _, err := update.Handle(ctx, UpdateReviewCommand{ReviewID: first.ID, ReviewerID: "b", Rating: 1}); !errors.Is(err, domainreviews.ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if _, err := update.Handle(ctx, UpdateReviewCommand{ReviewID: first.ID, ReviewerID: "a", Rating: 5}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if r := rating(t, factory); r == nil || *r != 3.5 {
		t.Fatalf("rating = %v, want 3.5", r)
	}

	list, err := (&ListListingReviewsHandler{UoWFactory: factory}).Handle(ctx, ListListingReviewsQuery{ListingID: "l1"})
	if err != nil || list.Total != 2 {
		t.Fatalf("list = %+v %v", list, err)
	}
	viewer := list.Items[0].ReviewerID
	mine, err := (&ListListingReviewsHandler{UoWFactory: factory}).Handle(ctx, ListListingReviewsQuery{ListingID: "l1", ViewerID: viewer, Limit: 1, Offset: 0})
	if err != nil || len(mine.Items) != 1 || !mine.Items[0].Mine || mine.Total != 2 {
		t.Fatalf("viewer page = %+v %v", mine, err)
	}
	if rest, _ := (&ListListingReviewsHandler{UoWFactory: factory}).Handle(ctx, ListListingReviewsQuery{ListingID: "l1", ViewerID: viewer, Offset: 1}); len(rest.Items) != 1 || rest.Items[0].Mine {
		t.Fatalf("second page = %+v", rest)
	}

	del := &DeleteReviewHandler{UoWFactory: factory}
	for _, item := range list.Items {
		if _, err := del.Handle(ctx, DeleteReviewCommand{ReviewID: item.ID, ReviewerID: item.ReviewerID}); err != nil {
			t.Fatalf("delete: %v", err)
		}
	}
	if r := rating(t, factory); r != nil {
		t.Fatalf("rating should be cleared, got %v", *r)
	}
}
