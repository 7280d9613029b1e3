package listings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"unimate/internal/app/outbox"
	domainlistings "unimate/internal/domain/listings"
	"unimate/internal/domain/shared/media"
)

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

func ownedListing(ctx context.Context, repo domainlistings.Repository, id, seller string) (*domainlistings.Listing, error) {
	listing, err := repo.ByID(ctx, domainlistings.ListingID(id))
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(seller) {
		return nil, domainlistings.ErrNotOwner
	}
	return listing, nil
}

// objectKey places listing media under the listing id in the listing bucket.
func objectKey(id domainlistings.ListingID, up Upload) string {
	return fmt.Sprintf("%s/%s.%s", id, uuid.NewString(), media.Extension(up.Filename, up.ContentType))
}
