package listings

import (
	"context"
	"log/slog"
	"time"

	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/queries"
	"unimate/internal/app/uow"
	"unimate/internal/domain/discovery"
	"unimate/internal/domain/expiry"
	domainlistings "unimate/internal/domain/listings"
)

const (
	getListingKey       = "listings.get"
	relatedListingsKey  = "listings.related"
	myListingsKey       = "listings.mine"
	sellerListingsKey   = "listings.seller"
	marketplaceKey      = "listings.marketplace"
	listCategoriesKey   = "listings.categories"
	relatedListingLimit = 5
)

type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

// GetListingHandler returns a listing with its countdown. Removed listings are
// reported as not found; expired ones stay visible until the cleanup job runs.
type GetListingHandler struct {
	UoWFactory uow.UoWFactory
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Listing{}, err
	}
	if listing.Status != domainlistings.StatusActive {
		return dto.Listing{}, domainlistings.ErrNotFound
	}
	return dto.MapListing(listing, h.Expiry, clock(h.Now)), nil
}

type RelatedListingsQuery struct {
	ListingID string
}

func (q RelatedListingsQuery) Key() string { return relatedListingsKey }

type RelatedListingsHandler struct {
	UoWFactory uow.UoWFactory
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *RelatedListingsHandler) Handle(ctx context.Context, q RelatedListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	related, err := unit.Listings().Related(execCtx, listing.Category.ID, listing.ID, relatedListingLimit)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	now := clock(h.Now)
	items := unexpired(related, h.Expiry, now)
	return dto.ListingCollection{Items: dto.MapListings(items, h.Expiry, now), Total: len(items)}, nil
}

// MyListingsQuery is the seller dashboard: every listing of the seller,
// expired ones included so the countdown shows "Expired".
type MyListingsQuery struct {
	SellerID string
}

func (q MyListingsQuery) Key() string     { return myListingsKey }
func (q MyListingsQuery) ActorID() string { return q.SellerID }

type MyListingsHandler struct {
	UoWFactory uow.UoWFactory
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *MyListingsHandler) Handle(ctx context.Context, q MyListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Listings().ListBySeller(execCtx, domainlistings.SellerID(q.SellerID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.ListingCollection{Items: dto.MapListings(items, h.Expiry, clock(h.Now)), Total: len(items)}, nil
}

// SellerListingsQuery backs a public profile: active, unexpired listings only.
type SellerListingsQuery struct {
	SellerID string
}

func (q SellerListingsQuery) Key() string { return sellerListingsKey }

type SellerListingsHandler struct {
	UoWFactory uow.UoWFactory
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *SellerListingsHandler) Handle(ctx context.Context, q SellerListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	all, err := unit.Listings().ListBySeller(execCtx, domainlistings.SellerID(q.SellerID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	now := clock(h.Now)
	active := make([]*domainlistings.Listing, 0, len(all))
	for _, l := range all {
		if l.Status == domainlistings.StatusActive {
			active = append(active, l)
		}
	}
	items := unexpired(active, h.Expiry, now)
	return dto.ListingCollection{Items: dto.MapListings(items, h.Expiry, now), Total: len(items)}, nil
}

// MarketplaceQuery carries the discovery filter state.
type MarketplaceQuery struct {
	Filter discovery.Filter
}

func (q MarketplaceQuery) Key() string { return marketplaceKey }

type MarketplaceHandler struct {
	UoWFactory uow.UoWFactory
	Engine     discovery.Engine
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *MarketplaceHandler) Handle(ctx context.Context, q MarketplaceQuery) (dto.Marketplace, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Marketplace{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	all, err := unit.Listings().ListActive(execCtx)
	if err != nil {
		return dto.Marketplace{}, err
	}
	now := clock(h.Now)
	result := h.Engine.Apply(all, q.Filter, now)
	if h.Logger != nil {
		h.Logger.Debug("marketplace filtered", "total", len(all), "count", result.Count, "sort", q.Filter.Sort)
	}
	return dto.Marketplace{
		Items:  dto.MapListings(result.Items, h.Engine.Expiry, now),
		Facets: dto.MapFacets(result.Facets),
		Count:  result.Count,
	}, nil
}

type ListCategoriesQuery struct{}

func (ListCategoriesQuery) Key() string { return listCategoriesKey }

type ListCategoriesHandler struct{}

func (ListCategoriesHandler) Handle(context.Context, ListCategoriesQuery) ([]dto.Category, error) {
	out := make([]dto.Category, 0, len(domainlistings.Catalog))
	for _, c := range domainlistings.Catalog {
		out = append(out, dto.MapCategory(c))
	}
	return out, nil
}

func unexpired(items []*domainlistings.Listing, policy expiry.Policy, now time.Time) []*domainlistings.Listing {
	out := make([]*domainlistings.Listing, 0, len(items))
	for _, l := range items {
		if !policy.Expired(l.CreatedAt, now) {
			out = append(out, l)
		}
	}
	return out
}

var (
	_ queries.Handler[GetListingQuery, dto.Listing]                = (*GetListingHandler)(nil)
	_ queries.Handler[RelatedListingsQuery, dto.ListingCollection] = (*RelatedListingsHandler)(nil)
	_ queries.Handler[MyListingsQuery, dto.ListingCollection]      = (*MyListingsHandler)(nil)
	_ queries.Handler[SellerListingsQuery, dto.ListingCollection]  = (*SellerListingsHandler)(nil)
	_ queries.Handler[MarketplaceQuery, dto.Marketplace]           = (*MarketplaceHandler)(nil)
	_ queries.Handler[ListCategoriesQuery, []dto.Category]         = ListCategoriesHandler{}
)
