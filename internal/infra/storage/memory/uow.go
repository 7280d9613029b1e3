package memory

import (
	"context"
	"errors"

	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
	domainpush "unimate/internal/domain/push"
	domainreviews "unimate/internal/domain/reviews"
	domainsaved "unimate/internal/domain/saved"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.Repository
	ChatsRepo    domainchats.ChatRepository
	MessagesRepo domainchats.MessageRepository
	DealsRepo    domainchats.DealRepository
	ReviewsRepo  domainreviews.Repository
	SavedRepo    domainsaved.Repository
	PushRepo     domainpush.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// NewFactory builds a factory with fresh empty repositories.
func NewFactory() Factory {
	return Factory{
		ListingsRepo: NewListingRepository(),
		ChatsRepo:    NewChatRepository(),
		MessagesRepo: NewMessageRepository(),
		DealsRepo:    NewDealRepository(),
		ReviewsRepo:  NewReviewRepository(),
		SavedRepo:    NewSavedRepository(),
		PushRepo:     NewPushSubscriptionRepository(),
	}
}

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.ChatsRepo == nil || f.MessagesRepo == nil || f.DealsRepo == nil ||
		f.ReviewsRepo == nil || f.SavedRepo == nil || f.PushRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	factory Factory
}

func (u *Unit) Listings() domainlistings.Repository      { return u.factory.ListingsRepo }
func (u *Unit) Chats() domainchats.ChatRepository        { return u.factory.ChatsRepo }
func (u *Unit) Messages() domainchats.MessageRepository  { return u.factory.MessagesRepo }
func (u *Unit) Deals() domainchats.DealRepository        { return u.factory.DealsRepo }
func (u *Unit) Reviews() domainreviews.Repository        { return u.factory.ReviewsRepo }
func (u *Unit) Saved() domainsaved.Repository            { return u.factory.SavedRepo }
func (u *Unit) PushSubscriptions() domainpush.Repository { return u.factory.PushRepo }
func (u *Unit) Commit(ctx context.Context) error         { return nil }
func (u *Unit) Rollback(ctx context.Context) error       { return nil }

var _ uow.UoWFactory = Factory{}
