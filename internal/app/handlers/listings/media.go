package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/outbox"
	"unimate/internal/app/uow"
	"unimate/internal/domain/expiry"
	domainlistings "unimate/internal/domain/listings"
	"unimate/internal/domain/shared/media"
	"unimate/internal/infra/storage/s3"
)

const (
	addListingMediaKey    = "listings.media.add"
	removeListingMediaKey = "listings.media.remove"
	setPrimaryImageKey    = "listings.media.primary"
)

type AddListingMediaCommand struct {
	SellerID  string
	ListingID string
	File      Upload
}

func (c AddListingMediaCommand) Key() string     { return addListingMediaKey }
func (c AddListingMediaCommand) ActorID() string { return c.SellerID }

func (c AddListingMediaCommand) Validate() error {
	if c.File.Reader == nil {
		return errors.New("listings: media file is required")
	}
	return nil
}

type AddListingMediaHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Uploader   s3.Uploader
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *AddListingMediaHandler) Handle(ctx context.Context, cmd AddListingMediaCommand) (*dto.Listing, error) {
	if h.Uploader == nil {
		return nil, errors.New("listings: media uploader unavailable")
	}
	kind, err := media.ListingLimits.Validate(cmd.File.ContentType, cmd.File.Size)
	if err != nil {
		return nil, err
	}
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.SellerID)
	if err != nil {
		return nil, err
	}
	// Check the limits before uploading so a full listing does not leave blobs behind.
	switch {
	case kind == media.KindImage && len(listing.Images) >= domainlistings.MaxImages:
		return nil, domainlistings.ErrTooManyImages
	case kind == media.KindVideo && len(listing.Videos) >= domainlistings.MaxVideos:
		return nil, domainlistings.ErrTooManyVideos
	}
	url, err := h.Uploader.Upload(ctx, objectKey(listing.ID, cmd.File), cmd.File.Reader, cmd.File.Size, cmd.File.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload listing media: %w", err)
	}

	now := clock(h.Now)
	if kind == media.KindImage {
		_, err = listing.AddImage(uuid.NewString(), url, now)
	} else {
		_, err = listing.AddVideo(uuid.NewString(), url, now)
	}
	if err != nil {
		return nil, err
	}
	return saveListing(ctx, unit, h.Outbox, h.Encoder, h.Expiry, listing, now)
}

type RemoveListingMediaCommand struct {
	SellerID  string
	ListingID string
	MediaID   string
}

func (c RemoveListingMediaCommand) Key() string     { return removeListingMediaKey }
func (c RemoveListingMediaCommand) ActorID() string { return c.SellerID }

type RemoveListingMediaHandler struct {
	UoWFactory uow.UoWFactory
	// Storage, when set, also deletes the object once the row is gone.
	Storage s3.Remover
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Expiry  expiry.Policy
	Now     func() time.Time
	Logger  *slog.Logger
}

// Handle removes an image or a video, whichever carries the id.
func (h *RemoveListingMediaHandler) Handle(ctx context.Context, cmd RemoveListingMediaCommand) (*dto.Listing, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.SellerID)
	if err != nil {
		return nil, err
	}
	now := clock(h.Now)
	objectURL := mediaURL(listing, cmd.MediaID)
	err = listing.RemoveImage(cmd.MediaID, now)
	if errors.Is(err, domainlistings.ErrMediaNotFound) {
		err = listing.RemoveVideo(cmd.MediaID, now)
	}
	if err != nil {
		return nil, err
	}
	listing.ImageURL = listing.PrimaryImageURL()
	result, err := saveListing(ctx, unit, h.Outbox, h.Encoder, h.Expiry, listing, now)
	if err != nil {
		return nil, err
	}
	if h.Storage != nil && objectURL != "" {
		if err := h.Storage.Remove(ctx, objectURL); err != nil && h.Logger != nil {
			h.Logger.Warn("listing media object left in bucket", "listing_id", listing.ID, "media_id", cmd.MediaID, "err", err)
		}
	}
	return result, nil
}

func mediaURL(listing *domainlistings.Listing, mediaID string) string {
	for _, img := range listing.Images {
		if img.ID == mediaID {
			return img.URL
		}
	}
	for _, v := range listing.Videos {
		if v.ID == mediaID {
			return v.URL
		}
	}
	return ""
}

type SetPrimaryImageCommand struct {
	SellerID  string
	ListingID string
	ImageID   string
}

func (c SetPrimaryImageCommand) Key() string     { return setPrimaryImageKey }
func (c SetPrimaryImageCommand) ActorID() string { return c.SellerID }

type SetPrimaryImageHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *SetPrimaryImageHandler) Handle(ctx context.Context, cmd SetPrimaryImageCommand) (*dto.Listing, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.SellerID)
	if err != nil {
		return nil, err
	}
	now := clock(h.Now)
	if err := listing.SetPrimaryImage(cmd.ImageID, now); err != nil {
		return nil, err
	}
	listing.ImageURL = listing.PrimaryImageURL()
	return saveListing(ctx, unit, h.Outbox, h.Encoder, h.Expiry, listing, now)
}

func saveListing(ctx context.Context, unit *handlersupport.ManagedUnit, box outbox.Outbox, enc outbox.EventEncoder, policy expiry.Policy, listing *domainlistings.Listing, now time.Time) (*dto.Listing, error) {
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, box, encoderOrDefault(enc), listing); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	result := dto.MapListing(listing, policy, now)
	return &result, nil
}

var _ commands.Handler[AddListingMediaCommand, *dto.Listing] = (*AddListingMediaHandler)(nil)
var _ commands.Handler[RemoveListingMediaCommand, *dto.Listing] = (*RemoveListingMediaHandler)(nil)
var _ commands.Handler[SetPrimaryImageCommand, *dto.Listing] = (*SetPrimaryImageHandler)(nil)
