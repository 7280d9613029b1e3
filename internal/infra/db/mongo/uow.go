package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	driversession "go.mongodb.org/mongo-driver/x/mongo/driver/session"

	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
	domainpush "unimate/internal/domain/push"
	domainreviews "unimate/internal/domain/reviews"
	domainsaved "unimate/internal/domain/saved"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Chat repositories live in another store and are passed through untouched.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.Repository
	ReviewsRepo  domainreviews.Repository
	SavedRepo    domainsaved.Repository
	PushRepo     domainpush.Repository

	ChatsRepo    domainchats.ChatRepository
	MessagesRepo domainchats.MessageRepository
	DealsRepo    domainchats.DealRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds the Mongo-backed repositories; chat storage is supplied by the caller.
func NewFactory(db *mongo.Database, chats domainchats.ChatRepository, messages domainchats.MessageRepository, deals domainchats.DealRepository) Factory {
	return Factory{
		DB:           db,
		ListingsRepo: NewListingRepository(db),
		ReviewsRepo:  NewReviewRepository(db),
		SavedRepo:    NewSavedRepository(db),
		PushRepo:     NewPushSubscriptionRepository(db),
		ChatsRepo:    chats,
		MessagesRepo: messages,
		DealsRepo:    deals,
	}
}

// Begin starts a MongoDB session. Read-only units skip the transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{factory: f, session: session, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	factory  Factory
	session  mongo.Session
	readOnly bool
}

func (u *Unit) Listings() domainlistings.Repository      { return u.factory.ListingsRepo }
func (u *Unit) Chats() domainchats.ChatRepository        { return u.factory.ChatsRepo }
func (u *Unit) Messages() domainchats.MessageRepository  { return u.factory.MessagesRepo }
func (u *Unit) Deals() domainchats.DealRepository        { return u.factory.DealsRepo }
func (u *Unit) Reviews() domainreviews.Repository        { return u.factory.ReviewsRepo }
func (u *Unit) Saved() domainsaved.Repository            { return u.factory.SavedRepo }
func (u *Unit) PushSubscriptions() domainpush.Repository { return u.factory.PushRepo }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	if err := u.session.AbortTransaction(ctx); !abortSettled(err) {
		return err
	}
	return nil
}

// abortSettled reports whether an abort error only means the transaction
// already ended, which happens when Rollback is deferred after Commit.
func abortSettled(err error) bool {
	return err == nil ||
		errors.Is(err, driversession.ErrAbortAfterCommit) ||
		errors.Is(err, driversession.ErrAbortTwice) ||
		errors.Is(err, driversession.ErrSessionEnded)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
