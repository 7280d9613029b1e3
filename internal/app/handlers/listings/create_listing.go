package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/outbox"
	"unimate/internal/app/saga"
	"unimate/internal/app/uow"
	"unimate/internal/domain/expiry"
	domainlistings "unimate/internal/domain/listings"
	"unimate/internal/domain/shared/media"
	"unimate/internal/domain/shared/money"
	"unimate/internal/infra/storage/s3"
)

const (
	createListingKey = "listings.create"
	updateListingKey = "listings.update"
	deleteListingKey = "listings.delete"
)

var ErrImageRequired = errors.New("listings: at least one image is required")

// ListingPayload carries the editable listing fields.
type ListingPayload struct {
	Title       string
	Description string
	Price       float64
	Currency    string
	Condition   string
	Negotiable  bool
	Location    string
	CategoryID  string
	Attributes  map[string]string
	Stock       *int
	InStock     *bool
}

func (p ListingPayload) resolve() (money.Money, domainlistings.Condition, domainlistings.Category, error) {
	price, err := money.FromMajor(p.Price, p.Currency)
	if err != nil {
		return money.Money{}, "", domainlistings.Category{}, err
	}
	condition, err := domainlistings.ParseCondition(p.Condition)
	if err != nil {
		return money.Money{}, "", domainlistings.Category{}, err
	}
	category, err := domainlistings.CategoryByID(p.CategoryID)
	if err != nil {
		return money.Money{}, "", domainlistings.Category{}, err
	}
	return price, condition, category, nil
}

// Upload is one file received with a request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type CreateListingCommand struct {
	SellerID    string
	SellerEmail string
	Payload     ListingPayload
	Images      []Upload
	Videos      []Upload
}

func (c CreateListingCommand) Key() string     { return createListingKey }
func (c CreateListingCommand) ActorID() string { return c.SellerID }

// Validate checks the media set up front so that nothing is written for a
// request that can never succeed.
func (c CreateListingCommand) Validate() error {
	if len(c.Images) == 0 {
		return ErrImageRequired
	}
	if len(c.Images) > domainlistings.MaxImages {
		return domainlistings.ErrTooManyImages
	}
	if len(c.Videos) > domainlistings.MaxVideos {
		return domainlistings.ErrTooManyVideos
	}
	for _, up := range c.Images {
		kind, err := media.ListingLimits.Validate(up.ContentType, up.Size)
		if err != nil {
			return err
		}
		if kind != media.KindImage {
			return fmt.Errorf("%w: %s is not an image", media.ErrUnsupportedType, up.Filename)
		}
	}
	for _, up := range c.Videos {
		kind, err := media.ListingLimits.Validate(up.ContentType, up.Size)
		if err != nil {
			return err
		}
		if kind != media.KindVideo {
			return fmt.Errorf("%w: %s is not a video", media.ErrUnsupportedType, up.Filename)
		}
	}
	return nil
}

// CreateListingHandler runs the create → upload → attach → primary steps and
// deletes the listing again if a later step fails.
type CreateListingHandler struct {
	UoWFactory        uow.UoWFactory
	Outbox            outbox.Outbox
	Encoder           outbox.EventEncoder
	Uploader          s3.Uploader
	Expiry            expiry.Policy
	StudentEmailCheck bool
	Logger            *slog.Logger
	Now               func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.Listing, error) {
	if h.StudentEmailCheck && !IsStudentEmail(cmd.SellerEmail) {
		return nil, ErrStudentEmailRequired
	}
	if h.Uploader == nil {
		return nil, errors.New("listings: media uploader unavailable")
	}
	price, condition, category, err := cmd.Payload.resolve()
	if err != nil {
		return nil, err
	}

	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx
	repo := unit.Listings()
	now := clock(h.Now)

	var listing *domainlistings.Listing
	var imageURLs, videoURLs []string

	err = saga.Run(ctx,
		saga.Step{
			Name: "create listing",
			Execute: func(ctx context.Context) error {
				var err error
				listing, err = domainlistings.NewListing(domainlistings.CreateParams{
					ID:          domainlistings.ListingID(uuid.NewString()),
					Seller:      domainlistings.SellerID(cmd.SellerID),
					Title:       cmd.Payload.Title,
					Description: cmd.Payload.Description,
					Price:       price,
					Condition:   condition,
					Negotiable:  cmd.Payload.Negotiable,
					Location:    cmd.Payload.Location,
					Category:    category,
					Attributes:  cmd.Payload.Attributes,
					Stock:       cmd.Payload.Stock,
					InStock:     cmd.Payload.InStock,
					Now:         now,
				})
				if err != nil {
					return err
				}
				return repo.Save(ctx, listing)
			},
			Compensate: func(ctx context.Context) error {
				return repo.Delete(ctx, listing.ID)
			},
		},
		saga.Step{
			Name: "upload media",
			Execute: func(ctx context.Context) error {
				var err error
				if imageURLs, err = h.uploadAll(ctx, listing.ID, cmd.Images); err != nil {
					return err
				}
				videoURLs, err = h.uploadAll(ctx, listing.ID, cmd.Videos)
				return err
			},
		},
		saga.Step{
			Name: "attach media",
			Execute: func(ctx context.Context) error {
				for _, url := range imageURLs {
					if _, err := listing.AddImage(uuid.NewString(), url, now); err != nil {
						return err
					}
				}
				for _, url := range videoURLs {
					if _, err := listing.AddVideo(uuid.NewString(), url, now); err != nil {
						return err
					}
				}
				return repo.Save(ctx, listing)
			},
		},
		saga.Step{
			Name: "set primary image",
			Execute: func(ctx context.Context) error {
				if len(listing.Images) == 0 {
					return ErrImageRequired
				}
				if err := listing.SetPrimaryImage(listing.Images[0].ID, now); err != nil {
					return err
				}
				listing.ImageURL = listing.PrimaryImageURL()
				return repo.Save(ctx, listing)
			},
		},
	)
	if err != nil {
		if h.Logger != nil && listing != nil {
			h.Logger.Warn("listing creation rolled back", "listing_id", listing.ID, "seller_id", cmd.SellerID, "err", err)
		}
		return nil, err
	}

	if err := outbox.Drain(ctx, h.Outbox, encoderOrDefault(h.Encoder), listing); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "seller_id", cmd.SellerID, "images", len(imageURLs), "videos", len(videoURLs))
	}
	result := dto.MapListing(listing, h.Expiry, now)
	return &result, nil
}

func (h *CreateListingHandler) uploadAll(ctx context.Context, id domainlistings.ListingID, files []Upload) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, up := range files {
		url, err := h.Uploader.Upload(ctx, objectKey(id, up), up.Reader, up.Size, up.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload listing media: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

type UpdateListingCommand struct {
	SellerID  string
	ListingID string
	Payload   ListingPayload
}

func (c UpdateListingCommand) Key() string     { return updateListingKey }
func (c UpdateListingCommand) ActorID() string { return c.SellerID }

type UpdateListingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*dto.Listing, error) {
	price, condition, category, err := cmd.Payload.resolve()
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
	now := clock(h.Now)
	if err := listing.Update(domainlistings.UpdateParams{
		Title:       cmd.Payload.Title,
		Description: cmd.Payload.Description,
		Price:       price,
		Condition:   condition,
		Negotiable:  cmd.Payload.Negotiable,
		Location:    cmd.Payload.Location,
		Category:    category,
		Attributes:  cmd.Payload.Attributes,
		Stock:       cmd.Payload.Stock,
		InStock:     cmd.Payload.InStock,
		Now:         now,
	}); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, encoderOrDefault(h.Encoder), listing); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	result := dto.MapListing(listing, h.Expiry, now)
	return &result, nil
}

type DeleteListingCommand struct {
	SellerID  string
	ListingID string
}

func (c DeleteListingCommand) Key() string     { return deleteListingKey }
func (c DeleteListingCommand) ActorID() string { return c.SellerID }

type DeleteListingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (struct{}, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.SellerID)
	if err != nil {
		return struct{}{}, err
	}
	if err := unit.Listings().Delete(ctx, listing.ID); err != nil {
		return struct{}{}, err
	}
	ev := domainlistings.ListingDeletedEvent{ListingID: listing.ID, SellerID: listing.Seller, Reason: "seller", At: clock(h.Now)}
	listing.ClearEvents()
	listing.Record(ev)
	if err := outbox.Drain(ctx, h.Outbox, encoderOrDefault(h.Encoder), listing); err != nil {
		return struct{}{}, err
	}
	if err := unit.Commit(); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing deleted", "listing_id", listing.ID, "seller_id", cmd.SellerID)
	}
	return struct{}{}, nil
}

var _ commands.Handler[CreateListingCommand, *dto.Listing] = (*CreateListingHandler)(nil)
var _ commands.Handler[UpdateListingCommand, *dto.Listing] = (*UpdateListingHandler)(nil)
var _ commands.Handler[DeleteListingCommand, struct{}] = (*DeleteListingHandler)(nil)
