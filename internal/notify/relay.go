package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
)

// Relay redelivers outbox events whose synchronous fan-out did not complete.
type Relay struct {
	store      domain.Store
	dispatcher *Dispatcher
	logger     zerolog.Logger
	interval   time.Duration
	batchSize  int
	maxRetries int
	now        func() time.Time
}

func NewRelay(store domain.Store, dispatcher *Dispatcher, logger zerolog.Logger) *Relay {
	return &Relay{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "outbox_relay").Logger(),
		interval:   time.Second,
		batchSize:  100,
		maxRetries: 5,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *Relay) WithInterval(interval time.Duration) *Relay {
	if interval > 0 {
		r.interval = interval
	}
	return r
}

func (r *Relay) WithBatchSize(n int) *Relay {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

func (r *Relay) WithMaxRetries(n int) *Relay {
	if n > 0 {
		r.maxRetries = n
	}
	return r
}

func (r *Relay) WithClock(now func() time.Time) *Relay {
	r.now = now
	return r
}

// Start polls the outbox until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info().
		Dur("interval", r.interval).
		Int("batch_size", r.batchSize).
		Int("max_retries", r.maxRetries).
		Msg("outbox relay started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Msg("outbox scan failed")
			}
		}
	}
}

// ProcessPending delivers one batch of due events and returns how many succeeded.
func (r *Relay) ProcessPending(ctx context.Context) (int, error) {
	var pending []domain.OutboxEntry
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		pending, err = tx.Outbox().Pending(ctx, r.now(), r.batchSize)
		return err
	})
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, entry := range pending {
		if err := r.dispatcher.OnEvent(ctx, entry.Event); err != nil {
			infra.DispatchFailures.WithLabelValues("relay").Inc()
			r.logger.Error().Err(err).
				Str("event_id", entry.Event.ID).
				Int("retry_count", entry.RetryCount+1).
				Msg("relay delivery failed")
			markErr := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
				return tx.Outbox().MarkFailed(ctx, entry.Event.ID, r.maxRetries, r.now())
			})
			if markErr != nil {
				r.logger.Error().Err(markErr).Str("event_id", entry.Event.ID).Msg("failed to record relay failure")
			}
			continue
		}
		delivered++
	}
	if delivered > 0 {
		r.logger.Debug().Int("delivered", delivered).Msg("outbox batch relayed")
	}
	return delivered, nil
}

// Replay resets a failed event so the next scan delivers it again.
func (r *Relay) Replay(ctx context.Context, eventID string) error {
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Outbox().Replay(ctx, eventID, r.now())
	})
	if err != nil {
		return err
	}
	r.dispatcher.forget(ctx, eventID)
	return nil
}

// ReplayFailed resets up to limit failed events and returns how many were reset.
func (r *Relay) ReplayFailed(ctx context.Context, limit int) (int, error) {
	var ids []string
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		ids = ids[:0]
		failed, err := tx.Outbox().ListFailed(ctx, limit)
		if err != nil {
			return err
		}
		now := r.now()
		for _, e := range failed {
			if err := tx.Outbox().Replay(ctx, e.Event.ID, now); err != nil {
				return err
			}
			ids = append(ids, e.Event.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		r.dispatcher.forget(ctx, id)
	}
	return len(ids), nil
}
