package saved

import (
	"context"
	"errors"
	"strings"
	"time"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/queries"
	"unimate/internal/app/uow"
	"unimate/internal/domain/expiry"
	domainlistings "unimate/internal/domain/listings"
	domainsaved "unimate/internal/domain/saved"
)

const (
	saveListingKey   = "saved.add"
	unsaveListingKey = "saved.remove"
	listSavedKey     = "saved.list"
)

type SaveListingCommand struct {
	UserID    string
	ListingID string
}

func (c SaveListingCommand) Key() string     { return saveListingKey }
func (c SaveListingCommand) ActorID() string { return c.UserID }

func (c SaveListingCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return errors.New("saved: listing id is required")
	}
	return nil
}

// SaveListingHandler bookmarks a listing; saving twice is not an error.
type SaveListingHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *SaveListingHandler) Handle(ctx context.Context, cmd SaveListingCommand) (struct{}, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	if _, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID)); err != nil {
		return struct{}{}, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	err = unit.Saved().Add(ctx, domainsaved.Item{UserID: cmd.UserID, ListingID: cmd.ListingID, CreatedAt: now})
	if err != nil && !errors.Is(err, domainsaved.ErrAlreadySaved) {
		return struct{}{}, err
	}
	return struct{}{}, unit.Commit()
}

type UnsaveListingCommand struct {
	UserID    string
	ListingID string
}

func (c UnsaveListingCommand) Key() string     { return unsaveListingKey }
func (c UnsaveListingCommand) ActorID() string { return c.UserID }

type UnsaveListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnsaveListingHandler) Handle(ctx context.Context, cmd UnsaveListingCommand) (struct{}, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer unit.Close()
	if err := unit.Saved().Remove(unit.Ctx, cmd.UserID, cmd.ListingID); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, unit.Commit()
}

type ListSavedQuery struct {
	UserID string
}

func (q ListSavedQuery) Key() string     { return listSavedKey }
func (q ListSavedQuery) ActorID() string { return q.UserID }

// ListSavedHandler returns saved items newest first; listings that were
// deleted since are returned without a listing card.
type ListSavedHandler struct {
	UoWFactory uow.UoWFactory
	Expiry     expiry.Policy
	Now        func() time.Time
}

func (h *ListSavedHandler) Handle(ctx context.Context, q ListSavedQuery) (dto.SavedList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SavedList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Saved().ListByUser(execCtx, q.UserID)
	if err != nil {
		return dto.SavedList{}, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	out := dto.SavedList{Items: make([]dto.SavedItem, 0, len(items))}
	for _, item := range items {
		entry := dto.SavedItem{ListingID: item.ListingID, SavedAt: item.CreatedAt}
		listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(item.ListingID))
		switch {
		case err == nil:
			card := dto.MapListing(listing, h.Expiry, now)
			entry.Listing = &card
		case !errors.Is(err, domainlistings.ErrNotFound):
			return dto.SavedList{}, err
		}
		out.Items = append(out.Items, entry)
	}
	return out, nil
}

var _ commands.Handler[SaveListingCommand, struct{}] = (*SaveListingHandler)(nil)
var _ commands.Handler[UnsaveListingCommand, struct{}] = (*UnsaveListingHandler)(nil)
var _ queries.Handler[ListSavedQuery, dto.SavedList] = (*ListSavedHandler)(nil)
