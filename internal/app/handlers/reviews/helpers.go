package reviews

import (
	"context"
	"time"

	"unimate/internal/app/uow"
	domainlistings "unimate/internal/domain/listings"
	domainreviews "unimate/internal/domain/reviews"
)

// recalculateListingRating stores the average of all reviews on the listing;
// a listing without reviews has no rating.
func recalculateListingRating(ctx context.Context, unit uow.UnitOfWork, listingID string, now time.Time) error {
	reviews, err := unit.Reviews().ListByListing(ctx, listingID)
	if err != nil {
		return err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return err
	}
	listing.UpdateRating(domainreviews.Average(reviews), now)
	listing.ClearEvents()
	return unit.Listings().Save(ctx, listing)
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
