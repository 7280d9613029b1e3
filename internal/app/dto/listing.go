package dto

import (
	"time"

	"unimate/internal/domain/expiry"
	domainlistings "unimate/internal/domain/listings"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	// AttributeKeys lists the attributes accepted for the category.
	AttributeKeys []string `json:"attribute_keys"`
}

type ListingImage struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	SortOrder int    `json:"sort_order"`
	IsPrimary bool   `json:"is_primary"`
}

type ListingVideo struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	SortOrder int    `json:"sort_order"`
}

// Listing is the public listing payload with its expiry countdown.
type Listing struct {
	ID          string            `json:"id"`
	SellerID    string            `json:"seller_id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Condition   string            `json:"condition"`
	Negotiable  bool              `json:"negotiable"`
	Location    string            `json:"location,omitempty"`
	Category    Category          `json:"category"`
	Attributes  map[string]string `json:"attributes"`
	Status      string            `json:"status"`
	Stock       *int              `json:"stock,omitempty"`
	InStock     bool              `json:"in_stock"`
	Rating      *float64          `json:"rating,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Images      []ListingImage    `json:"images"`
	Videos      []ListingVideo    `json:"videos"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Countdown   string            `json:"countdown"`
}

type ListingCollection struct {
	Items []Listing `json:"items"`
	Total int       `json:"total"`
}

func MapCategory(c domainlistings.Category) Category {
	kind := c.Kind()
	return Category{ID: string(c.ID), Name: c.Name, Kind: string(kind), AttributeKeys: domainlistings.AllowedKeys(kind)}
}

func MapListing(l *domainlistings.Listing, policy expiry.Policy, now time.Time) Listing {
	if l == nil {
		return Listing{}
	}
	out := Listing{
		ID:          string(l.ID),
		SellerID:    string(l.Seller),
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price.Major(),
		Currency:    l.Price.Currency,
		Condition:   string(l.Condition),
		Negotiable:  l.Negotiable,
		Location:    l.Location,
		Category:    MapCategory(l.Category),
		Attributes:  map[string]string{},
		Status:      string(l.Status),
		Stock:       l.Stock,
		InStock:     l.InStockNow(),
		Rating:      l.Rating,
		ImageURL:    l.PrimaryImageURL(),
		Images:      make([]ListingImage, 0, len(l.Images)),
		Videos:      make([]ListingVideo, 0, len(l.Videos)),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
		ExpiresAt:   policy.ExpiresAt(l.CreatedAt),
		Countdown:   expiry.Countdown(policy.Remaining(l.CreatedAt, now)),
	}
	if l.Attributes != nil {
		out.Attributes = l.Attributes.Fields()
	}
	for _, img := range l.SortedImages() {
		out.Images = append(out.Images, ListingImage{ID: img.ID, URL: img.URL, SortOrder: img.SortOrder, IsPrimary: img.IsPrimary})
	}
	for _, v := range l.Videos {
		out.Videos = append(out.Videos, ListingVideo{ID: v.ID, URL: v.URL, SortOrder: v.SortOrder})
	}
	return out
}

func MapListings(items []*domainlistings.Listing, policy expiry.Policy, now time.Time) []Listing {
	out := make([]Listing, 0, len(items))
	for _, l := range items {
		out = append(out, MapListing(l, policy, now))
	}
	return out
}
