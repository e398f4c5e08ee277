// Package notify turns lifecycle events into per-user notifications.
//
// Services append every event to the outbox inside their own transaction and
// call Notify after commit. OnEvent is idempotent per event id: an outbox entry
// already marked sent is not fanned out again, and notification rows are unique
// per (event, user) so a partial earlier attempt is only completed.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
)

// Publisher hands created notifications to an external delivery channel.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, body any) error
}

// Deduper short-circuits events that were already fanned out.
type Deduper interface {
	Seen(ctx context.Context, eventID string) bool
	Remember(ctx context.Context, eventID string)
	Forget(ctx context.Context, eventID string)
}

type Dispatcher struct {
	store     domain.Store
	publisher Publisher
	dedup     Deduper
	logger    zerolog.Logger
	now       func() time.Time
}

func NewDispatcher(store domain.Store, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		logger: logger.With().Str("component", "notify").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithPublisher enables external delivery of created notifications.
func (d *Dispatcher) WithPublisher(p Publisher) *Dispatcher {
	d.publisher = p
	return d
}

// WithDeduper enables the fast-path duplicate check.
func (d *Dispatcher) WithDeduper(dd Deduper) *Dispatcher {
	d.dedup = dd
	return d
}

func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Notify fans out events after their trigger has committed. Failures are
// logged and left in the outbox for the Relay; they never reach the caller.
func (d *Dispatcher) Notify(ctx context.Context, events ...domain.Event) {
	for _, ev := range events {
		if err := d.OnEvent(ctx, ev); err != nil {
			infra.DispatchFailures.WithLabelValues("fanout").Inc()
			d.logger.Error().Err(err).
				Str("event_id", ev.ID).
				Str("type", string(ev.Type)).
				Msg("notification fan-out failed, left for relay")
		}
	}
}

// OnEvent creates one notification per recipient of ev unless its outbox
// entry is already sent. Events that were never appended are still delivered.
func (d *Dispatcher) OnEvent(ctx context.Context, ev domain.Event) error {
	if d.dedup != nil && d.dedup.Seen(ctx, ev.ID) {
		d.logger.Debug().Str("event_id", ev.ID).Msg("duplicate event skipped")
		return nil
	}

	var (
		created   []domain.Notification
		delivered bool
	)
	err := d.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		created = created[:0]
		entry, err := tx.Outbox().Get(ctx, ev.ID)
		switch {
		case err == nil && entry.Status == domain.OutboxSent:
			delivered = true
			return nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return err
		}
		now := d.now()
		for _, userID := range ev.Recipients {
			n := &domain.Notification{
				ID:        uuid.NewString(),
				EventID:   ev.ID,
				UserID:    userID,
				Type:      ev.Type,
				Payload:   BuildPayload(ev, userID),
				CreatedAt: now,
			}
			inserted, err := tx.Notifications().Insert(ctx, n)
			if err != nil {
				return err
			}
			if inserted {
				created = append(created, *n)
			}
		}
		return tx.Outbox().MarkSent(ctx, ev.ID, now)
	})
	if err != nil {
		return err
	}
	if delivered {
		d.logger.Debug().Str("event_id", ev.ID).Msg("event already delivered")
	}

	if d.dedup != nil {
		d.dedup.Remember(ctx, ev.ID)
	}
	for _, n := range created {
		infra.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
		d.publish(ctx, n)
	}
	return nil
}

func (d *Dispatcher) forget(ctx context.Context, eventID string) {
	if d.dedup != nil {
		d.dedup.Forget(ctx, eventID)
	}
}

type deliveryMessage struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (d *Dispatcher) publish(ctx context.Context, n domain.Notification) {
	if d.publisher == nil {
		return
	}
	msg := deliveryMessage{
		ID:        n.ID,
		EventID:   n.EventID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Payload:   n.Payload,
		CreatedAt: n.CreatedAt,
	}
	if err := d.publisher.PublishJSON(ctx, "notification."+string(n.Type), msg); err != nil {
		infra.DispatchFailures.WithLabelValues("publish").Inc()
		d.logger.Warn().Err(err).Str("notification_id", n.ID).Msg("notification publish failed")
	}
}
