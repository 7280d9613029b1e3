// Package platform opens the storage adapters selected by configuration and
// falls back to in-memory ones for local runs.
package platform

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gocql/gocql"
	"go.mongodb.org/mongo-driver/mongo"

	"unimate/internal/app/middleware"
	appoutbox "unimate/internal/app/outbox"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
	domainpush "unimate/internal/domain/push"
	"unimate/internal/infra/config"
	mongostore "unimate/internal/infra/db/mongo"
	"unimate/internal/infra/inbox"
	"unimate/internal/infra/obs"
	infraoutbox "unimate/internal/infra/outbox"
	"unimate/internal/infra/storage/memory"
	"unimate/internal/infra/storage/scylla"
)

// Stores bundles the repositories and stores one process works against.
type Stores struct {
	Factory     uow.UoWFactory
	Listings    domainlistings.Repository
	Push        domainpush.Repository
	Outbox      appoutbox.Outbox
	Idempotency middleware.IdempotencyStore
	Probes      map[string]obs.Probe

	// Queue is the durable outbox; nil when events are dispatched in-process.
	Queue infraoutbox.Queue
	// Memory is set when the in-process outbox is used.
	Memory *memory.Outbox

	db      *mongo.Database
	closers []func(context.Context) error
}

// Open connects to Mongo and Scylla when configured. Missing endpoints select
// in-memory adapters and are logged, since their data does not survive a restart.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	s := &Stores{Probes: map[string]obs.Probe{}}

	chats, messages, deals, err := s.openChats(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MongoURI == "" {
		logger.Warn("MONGO_URI not set, using in-memory listings, reviews and push stores")
		factory := memory.NewFactory()
		factory.ChatsRepo, factory.MessagesRepo, factory.DealsRepo = chats, messages, deals
		s.Factory = factory
		s.Listings = factory.ListingsRepo
		s.Push = factory.PushRepo
		s.Memory = memory.NewOutbox()
		s.Outbox = s.Memory
		s.Idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		return s, nil
	}

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.closers = append(s.closers, client.Close)
	s.Probes["mongo"] = client.Ping
	if err := client.EnsureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	s.db = client.DB
	factory := mongostore.NewFactory(client.DB, chats, messages, deals)
	s.Factory = factory
	s.Listings = factory.ListingsRepo
	s.Push = factory.PushRepo

	store, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Outbox = store
	s.Queue = store

	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Idempotency = idem
	return s, nil
}

// Inbox opens the consumer inbox in Mongo. It returns nil without error when
// Mongo is not configured.
func (s *Stores) Inbox(ctx context.Context, consumer string, retention time.Duration) (*inbox.Store, error) {
	if s.db == nil {
		return nil, nil
	}
	return inbox.NewStore(ctx, s.db, consumer, retention)
}

func (s *Stores) openChats(ctx context.Context, cfg config.Config, logger *slog.Logger) (domainchats.ChatRepository, domainchats.MessageRepository, domainchats.DealRepository, error) {
	if len(cfg.ScyllaHosts) == 0 {
		logger.Warn("SCYLLA_HOSTS not set, using in-memory chat store")
		return memory.NewChatRepository(), memory.NewMessageRepository(), memory.NewDealRepository(), nil
	}
	session, err := scylla.NewSession(ctx, scylla.Options{
		Hosts:             cfg.ScyllaHosts,
		Keyspace:          cfg.ScyllaKeyspace,
		Username:          cfg.ScyllaUsername,
		Password:          cfg.ScyllaPassword,
		Consistency:       cfg.ScyllaConsistency,
		Timeout:           cfg.ScyllaTimeout,
		ReplicationFactor: cfg.ScyllaReplicationFactor,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	s.closers = append(s.closers, func(context.Context) error {
		session.Close()
		return nil
	})
	s.Probes["scylla"] = func(ctx context.Context) error {
		return session.Query("SELECT now() FROM system.local").WithContext(ctx).Consistency(gocql.One).Exec()
	}
	return scylla.NewChatRepository(session), scylla.NewMessageRepository(session), scylla.NewDealRepository(session), nil
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
