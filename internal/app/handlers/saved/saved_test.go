package saved

import (
	"context"
	"testing"
	"time"

	domainlistings "unimate/internal/domain/listings"
	"unimate/internal/domain/shared/money"
	"unimate/internal/infra/storage/memory"
)

func TestSaveIsIdempotentAndSurvivesDeletedListing(t *testing.T) {
	factory := memory.NewFactory()
	ctx := context.Background()
	category, _ := domainlistings.CategoryByID("others")
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{ID: "l1", Seller: "s", Title: "Bike", Price: money.Must(100, ""), Category: category, Now: time.Now()})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	_ = factory.ListingsRepo.Save(ctx, listing)

	save := &SaveListingHandler{UoWFactory: factory}
	for i := 0; i < 2; i++ {
		if _, err := save.Handle(ctx, SaveListingCommand{UserID: "u", ListingID: "l1"}); err != nil {
			t.Fatalf("save #%d: %v", i, err)
		}
	}
	list, err := (&ListSavedHandler{UoWFactory: factory}).Handle(ctx, ListSavedQuery{UserID: "u"})
	if err != nil || len(list.Items) != 1 || list.Items[0].Listing == nil {
		t.Fatalf("list = %+v %v", list, err)
	}

	_ = factory.ListingsRepo.Delete(ctx, "l1")
	list, _ = (&ListSavedHandler{UoWFactory: factory}).Handle(ctx, ListSavedQuery{UserID: "u"})
	if len(list.Items) != 1 || list.Items[0].Listing != nil {
		t.Fatalf("deleted listing should keep a bare entry: %+v", list)
	}

	if _, err := (&UnsaveListingHandler{UoWFactory: factory}).Handle(ctx, UnsaveListingCommand{UserID: "u", ListingID: "l1"}); err != nil {
		t.Fatalf("unsave: %v", err)
	}
	list, _ = (&ListSavedHandler{UoWFactory: factory}).Handle(ctx, ListSavedQuery{UserID: "u"})
	if len(list.Items) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}
