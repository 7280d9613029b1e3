package uow

import (
	"context"

	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
	domainpush "unimate/internal/domain/push"
	domainreviews "unimate/internal/domain/reviews"
	domainsaved "unimate/internal/domain/saved"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Chats() domainchats.ChatRepository
	Messages() domainchats.MessageRepository
	Deals() domainchats.DealRepository
	Reviews() domainreviews.Repository
	Saved() domainsaved.Repository
	PushSubscriptions() domainpush.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
