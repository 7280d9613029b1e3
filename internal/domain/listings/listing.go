package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"unimate/internal/domain/shared/events"
	"unimate/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("listings: not found")
	ErrTitleRequired    = errors.New("listings: title is required")
	ErrSellerRequired   = errors.New("listings: seller is required")
	ErrCategoryRequired = errors.New("listings: category is required")
	ErrInvalidCondition = errors.New("listings: condition must be new, used or refurbished")
	ErrInvalidStock     = errors.New("listings: stock must be non-negative")
	ErrNotOwner         = errors.New("listings: listing does not belong to current user")
)

type ListingID string
type SellerID string

type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

func ParseCondition(raw string) (Condition, error) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(raw))); c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return c, nil
	case "":
		return ConditionUsed, nil
	default:
		return "", ErrInvalidCondition
	}
}

type Status string

const (
	StatusActive  Status = "active"
	StatusRemoved Status = "removed"
)

// Listing is an item offered for sale by a student seller.
type Listing struct {
	ID          ListingID
	Seller      SellerID
	Title       string
	Description string
	Price       money.Money
	Condition   Condition
	Negotiable  bool
	Location    string
	Category    Category
	Attributes  Attributes
	Status      Status
	// Stock and InStock are optional; see InStockNow for resolution order.
	Stock    *int
	InStock  *bool
	Rating   *float64
	ImageURL string
	Images   []Image
	Videos   []Video

	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

// Repository persists listings together with their media.
type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	// ListActive returns active listings, newest first.
	ListActive(ctx context.Context) ([]*Listing, error)
	ListBySeller(ctx context.Context, seller SellerID) ([]*Listing, error)
	Related(ctx context.Context, category CategoryID, exclude ListingID, limit int) ([]*Listing, error)
	// CreatedBefore returns up to limit listings with created_at < cutoff, oldest first.
	CreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Listing, error)
	// CreatedBetween returns listings with from < created_at <= to.
	CreatedBetween(ctx context.Context, from, to time.Time) ([]*Listing, error)
}

type CreateParams struct {
	ID          ListingID
	Seller      SellerID
	Title       string
	Description string
	Price       money.Money
	Condition   Condition
	Negotiable  bool
	Location    string
	Category    Category
	Attributes  map[string]string
	Stock       *int
	InStock     *bool
	Now         time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Seller)) == "" {
		return nil, ErrSellerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.Category.ID == "" {
		return nil, ErrCategoryRequired
	}
	if params.Stock != nil && *params.Stock < 0 {
		return nil, ErrInvalidStock
	}
	condition := params.Condition
	if condition == "" {
		condition = ConditionUsed
	}
	attrs, err := ParseAttributes(params.Category.Kind(), params.Attributes)
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:          params.ID,
		Seller:      params.Seller,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Price:       params.Price,
		Condition:   condition,
		Negotiable:  params.Negotiable,
		Location:    strings.TrimSpace(params.Location),
		Category:    params.Category,
		Attributes:  attrs,
		Status:      StatusActive,
		Stock:       params.Stock,
		InStock:     params.InStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, SellerID: listing.Seller, At: now})
	return listing, nil
}

type UpdateParams struct {
	Title       string
	Description string
	Price       money.Money
	Condition   Condition
	Negotiable  bool
	Location    string
	Category    Category
	Attributes  map[string]string
	Stock       *int
	InStock     *bool
	Now         time.Time
}

// Update replaces the editable fields; attributes are re-validated against
// the (possibly new) category schema.
func (l *Listing) Update(params UpdateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	if params.Category.ID == "" {
		return ErrCategoryRequired
	}
	if params.Stock != nil && *params.Stock < 0 {
		return ErrInvalidStock
	}
	attrs, err := ParseAttributes(params.Category.Kind(), params.Attributes)
	if err != nil {
		return err
	}
	if params.Condition != "" {
		l.Condition = params.Condition
	}
	l.Title = strings.TrimSpace(params.Title)
	l.Description = strings.TrimSpace(params.Description)
	l.Price = params.Price
	l.Negotiable = params.Negotiable
	l.Location = strings.TrimSpace(params.Location)
	l.Category = params.Category
	l.Attributes = attrs
	l.Stock = params.Stock
	l.InStock = params.InStock
	l.touch(params.Now)
	return nil
}

// OwnedBy reports whether seller is the listing owner.
func (l *Listing) OwnedBy(seller string) bool {
	return seller != "" && string(l.Seller) == seller
}

// InStockNow resolves stock availability: explicit flag, then count, then true.
func (l *Listing) InStockNow() bool {
	if l.InStock != nil {
		return *l.InStock
	}
	if l.Stock != nil {
		return *l.Stock > 0
	}
	return true
}

// UpdateRating stores the average review rating; nil clears it.
func (l *Listing) UpdateRating(avg *float64, now time.Time) {
	l.Rating = avg
	l.touch(now)
}

// MarkRemoved hides the listing from the marketplace.
func (l *Listing) MarkRemoved(now time.Time) {
	if l.Status == StatusRemoved {
		return
	}
	l.Status = StatusRemoved
	l.touch(now)
	l.Record(ListingRemovedEvent{ListingID: l.ID, At: l.UpdatedAt})
}

func (l *Listing) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
}
