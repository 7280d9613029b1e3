package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"

	"unimate/internal/app/busy"
	"unimate/internal/app/commands"
	"unimate/internal/app/middleware"
	"unimate/internal/app/outbox"
	"unimate/internal/app/pushnotify"
	"unimate/internal/app/queries"
	"unimate/internal/app/realtime"
	"unimate/internal/domain/expiry"
	"unimate/internal/infra/auth"
	"unimate/internal/infra/broker/kafka"
	"unimate/internal/infra/config"
	ginserver "unimate/internal/infra/http/gin"
	"unimate/internal/infra/obs"
	infraoutbox "unimate/internal/infra/outbox"
	"unimate/internal/infra/platform"
	"unimate/internal/infra/webpush"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	fixturesPath := getenv("LISTINGS_FIXTURES", "")
	if fixturesPath == "" && cfg.Dev() {
		fixturesPath = defaultListingFixturesPath()
	}
	if fixturesPath != "" {
		if err := loadListingFixtures(ctx, app.stores.Listings, fixturesPath, logger); err != nil {
			logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready:   app.stores.Probes,
		Timeout: 2 * time.Second,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	stores   *platform.Stores
	worker   *infraoutbox.Worker
	closers  []func()
}

func (a *application) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.stores.Close(ctx); err != nil {
		logger.Error("store shutdown failed", "error", err)
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	stores, err := platform.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &application{stores: stores}

	listingUploader, chatUploader, err := platform.Uploaders(cfg, logger)
	if err != nil {
		_ = stores.Close(ctx)
		return nil, err
	}

	hub := realtime.NewHub(128)
	tracker := busy.NewTracker()
	app.closers = append(app.closers, realtime.ForwardBusy(tracker, hub))

	fanout := &pushnotify.Fanout{Subscriptions: stores.Push, Logger: obs.Component(logger, "push")}
	if cfg.VapidPublicKey != "" && cfg.VapidPrivateKey != "" {
		sender, err := webpush.NewSender(cfg.VapidPublicKey, cfg.VapidPrivateKey, cfg.VapidSubject)
		if err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
		fanout.Sender = sender
	} else {
		logger.Warn("VAPID keys not set, web push is disabled")
	}

	if stores.Memory != nil && fanout.Sender != nil {
		bridge := pushnotify.NewBridge(fanout, obs.Component(logger, "push-bridge"))
		stores.Memory.AddDispatcher(func(ctx context.Context, rec outbox.EventRecord) {
			go func() {
				if err := bridge.HandleEvent(context.WithoutCancel(ctx), rec.Name, rec.Payload); err != nil {
					logger.Warn("in-process push failed", "event", rec.Name, "error", err)
				}
			}()
		})
	}

	if stores.Queue != nil {
		if len(cfg.KafkaBrokers) == 0 {
			logger.Warn("KAFKA_BROKERS not set, outbox events stay queued in mongo")
		} else {
			kcfg := sarama.NewConfig()
			kcfg.ClientID = "unimate-api"
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, kcfg)
			if err != nil {
				_ = stores.Close(ctx)
				return nil, err
			}
			app.closers = append(app.closers, func() { _ = producer.Close() })
			app.worker = &infraoutbox.Worker{
				Store:       stores.Queue,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				Logger:      obs.Component(logger, "outbox"),
			}
		}
	}

	reg := registry{
		stores:          stores,
		hub:             hub,
		policy:          expiry.Default(),
		listingUploader: listingUploader,
		chatUploader:    chatUploader,
		vapidPublicKey:  cfg.VapidPublicKey,
		studentCheck:    cfg.StudentEmailCheck,
		logger:          logger,
	}
	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	reg.registerCommands(commandBus)
	reg.registerQueries(queryBus)
	logger.Debug("application buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	busLog := obs.Component(logger, "bus")
	// Listing and chat handlers commit their own units: creation compensates
	// across several units and chat events are published after commit.
	unitCommands := middleware.ChainCommands(
		commandBus,
		middleware.Busy(tracker),
		middleware.Logging(busLog),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(middleware.SelfValidating{}),
		middleware.Idempotency(stores.Idempotency, nil, obs.Component(logger, "idempotency")),
		middleware.OutboxFlush(stores.Outbox, obs.Component(logger, "outbox")),
	)
	txCommands := middleware.ChainCommands(
		commandBus,
		middleware.Busy(tracker),
		middleware.Logging(busLog),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(middleware.SelfValidating{}),
		middleware.Idempotency(stores.Idempotency, nil, obs.Component(logger, "idempotency")),
		middleware.OutboxFlush(stores.Outbox, obs.Component(logger, "outbox")),
		middleware.Transaction(stores.Factory, nil),
	)
	queryChain := middleware.ChainQueries(
		queryBus,
		middleware.QueryBusy(tracker),
		middleware.QueryLogging(busLog),
		middleware.QueryAuthorization(middleware.RequireActor{}),
		middleware.QueryValidation(middleware.SelfValidating{}),
	)

	app.handlers = ginserver.Handlers{
		Listings: ginserver.ListingHandler{Commands: unitCommands, Queries: queryChain, Logger: logger},
		Chats:    ginserver.ChatHandler{Commands: unitCommands, Queries: queryChain, Logger: logger},
		Reviews:  ginserver.ReviewsHandler{Commands: txCommands, Queries: queryChain, Logger: logger},
		Saved:    ginserver.SavedHandler{Commands: txCommands, Queries: queryChain, Logger: logger},
		Push:     ginserver.PushHandler{Commands: txCommands, Queries: queryChain, Logger: logger},
		Realtime: ginserver.RealtimeHandler{Hub: hub, Queries: queryChain, Busy: tracker, Logger: obs.Component(logger, "realtime")},
		Status:   ginserver.StatusHandler{Tracker: tracker},
	}

	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, all requests are anonymous")
	} else {
		verifier, err := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)
		if err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
		app.handlers.AuthMiddleware = ginserver.AuthMiddleware{Verifier: verifier, Logger: logger}.Handle
	}
	return app, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
