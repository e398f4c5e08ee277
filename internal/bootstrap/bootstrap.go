// Package bootstrap assembles the services shared by the api and worker
// binaries from a loaded configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"charitymatch/internal/adapter/memstore"
	"charitymatch/internal/adapter/repo"
	"charitymatch/internal/domain"
	"charitymatch/internal/feedback"
	"charitymatch/internal/http/handlers"
	"charitymatch/internal/infra"
	"charitymatch/internal/lifecycle"
	"charitymatch/internal/matching"
	"charitymatch/internal/notify"
)

// Services holds the wired engine. Close releases every external connection.
type Services struct {
	Store         domain.Store
	Donations     *lifecycle.Registry
	Requests      *lifecycle.Registry
	Interests     *lifecycle.InterestRegistry
	Matches       *matching.Engine
	Notifications *notify.Dispatcher
	Feedback      *feedback.Service
	Relay         *notify.Relay

	closers []func()
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// App exposes the services to the HTTP handlers.
func (s *Services) App(logger zerolog.Logger) *handlers.App {
	return &handlers.App{
		Donations:     s.Donations,
		Requests:      s.Requests,
		Interests:     s.Interests,
		Matches:       s.Matches,
		Notifications: s.Notifications,
		Feedback:      s.Feedback,
		Relay:         s.Relay,
		Logger:        logger,
	}
}

// New connects the configured store and optional Redis and AMQP backends.
// Redis and AMQP failures degrade to running without them.
func New(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Services, error) {
	s := &Services{}

	store, err := openStore(ctx, cfg, logger, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store

	dispatcher := notify.NewDispatcher(store, logger)
	if cfg.RedisAddr != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, dedup disabled")
		} else {
			s.closers = append(s.closers, func() { _ = rdb.Close() })
			dispatcher.WithDeduper(infra.NewRedisDeduper(rdb, cfg.DedupTTL, logger))
		}
	}
	if cfg.AMQPURL != "" {
		pub, err := infra.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn().Err(err).Msg("amqp unavailable, external delivery disabled")
		} else {
			s.closers = append(s.closers, pub.Close)
			dispatcher.WithPublisher(pub)
		}
	}
	s.Notifications = dispatcher

	s.Donations = lifecycle.NewDonationRegistry(store, dispatcher, logger)
	s.Requests = lifecycle.NewRequestRegistry(store, dispatcher, logger)
	s.Interests = lifecycle.NewInterestRegistry(store, dispatcher, logger)
	s.Matches = matching.NewEngine(store, s.Donations, s.Requests, dispatcher, logger)
	s.Feedback = feedback.NewService(store, dispatcher, logger, cfg.FeedbackWindow)
	s.Relay = notify.NewRelay(store, dispatcher, logger).
		WithInterval(cfg.OutboxInterval).
		WithBatchSize(cfg.OutboxBatchSize).
		WithMaxRetries(cfg.OutboxMaxRetries)
	return s, nil
}

func openStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, s *Services) (domain.Store, error) {
	switch cfg.StoreDriver {
	case infra.StoreDriverMemory:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	case infra.StoreDriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		store := repo.NewStore(pool, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
