// Package lifecycle owns the approval pipelines of donations, requests and
// interests. Match driven transitions are exposed for the matching engine and
// run inside its unit of work.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
)

// Registry manages listings of a single kind.
type Registry struct {
	kind     domain.ListingKind
	store    domain.Store
	notifier domain.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRegistry creates a registry for kind. A nil notifier drops events.
func NewRegistry(kind domain.ListingKind, store domain.Store, notifier domain.Notifier, logger zerolog.Logger) *Registry {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &Registry{
		kind:     kind,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("registry", string(kind)).Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func NewDonationRegistry(store domain.Store, notifier domain.Notifier, logger zerolog.Logger) *Registry {
	return NewRegistry(domain.KindDonation, store, notifier, logger)
}

func NewRequestRegistry(store domain.Store, notifier domain.Notifier, logger zerolog.Logger) *Registry {
	return NewRegistry(domain.KindRequest, store, notifier, logger)
}

// WithClock overrides the time source.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

func (r *Registry) Kind() domain.ListingKind { return r.kind }

// Submit stores a new listing in pending state.
func (r *Registry) Submit(ctx context.Context, in domain.NewListing) (*domain.Listing, error) {
	l, err := r.build(in)
	if err != nil {
		return nil, err
	}
	err = r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Listings().Create(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	infra.RecordTransition(string(r.kind), string(domain.ListingPending))
	r.logger.Info().Str("id", l.ID).Str("owner_id", l.OwnerID).Msg("listing submitted")
	return l, nil
}

func (r *Registry) build(in domain.NewListing) (*domain.Listing, error) {
	owner := strings.TrimSpace(in.OwnerID)
	item := strings.TrimSpace(in.ItemName)
	category := strings.TrimSpace(in.Category)
	switch {
	case owner == "":
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidArgument)
	case item == "":
		return nil, fmt.Errorf("%w: item name is required", domain.ErrInvalidArgument)
	case category == "":
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidArgument)
	case in.Quantity <= 0:
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}
	var attachments []string
	for _, a := range in.Attachments {
		if a = strings.TrimSpace(a); a != "" {
			attachments = append(attachments, a)
		}
	}
	now := r.now()
	return &domain.Listing{
		ID:          uuid.NewString(),
		Kind:        r.kind,
		OwnerID:     owner,
		ItemName:    item,
		Category:    category,
		Quantity:    in.Quantity,
		Description: strings.TrimSpace(in.Description),
		Attachments: attachments,
		Status:      domain.ListingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *Registry) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var out *domain.Listing
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		l, err := tx.Listings().Get(ctx, r.kind, id)
		out = l
		return err
	})
	return out, err
}

// Approve moves a pending listing to approved.
func (r *Registry) Approve(ctx context.Context, id string) (*domain.Listing, error) {
	return r.decide(ctx, id, domain.ListingApproved, "")
}

// Reject moves a pending listing to the terminal rejected state.
func (r *Registry) Reject(ctx context.Context, id, reason string) (*domain.Listing, error) {
	return r.decide(ctx, id, domain.ListingRejected, strings.TrimSpace(reason))
}

func (r *Registry) decide(ctx context.Context, id string, to domain.ListingStatus, reason string) (*domain.Listing, error) {
	var (
		out *domain.Listing
		ev  domain.Event
	)
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		l, err := tx.Listings().Get(ctx, r.kind, id)
		if err != nil {
			return err
		}
		if l.Status != domain.ListingPending {
			return fmt.Errorf("%w: %s %s is %s", domain.ErrInvalidTransition, r.kind, id, l.Status)
		}
		now := r.now()
		l.Status = to
		l.UpdatedAt = now
		if to == domain.ListingApproved {
			l.ApprovedAt = &now
		} else {
			l.RejectReason = reason
		}
		if err := tx.Listings().SetStatus(ctx, l, domain.ListingPending); err != nil {
			if errors.Is(err, domain.ErrStale) {
				return fmt.Errorf("%w: %s %s changed concurrently", domain.ErrInvalidTransition, r.kind, id)
			}
			return err
		}
		ev = r.decisionEvent(l, now)
		if err := tx.Outbox().Append(ctx, ev); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	infra.RecordTransition(string(r.kind), string(to))
	r.logger.Info().Str("id", id).Str("status", string(to)).Msg("listing reviewed")
	r.notifier.Notify(ctx, ev)
	return out, nil
}

func (r *Registry) decisionEvent(l *domain.Listing, now time.Time) domain.Event {
	var t domain.EventType
	switch {
	case r.kind == domain.KindDonation && l.Status == domain.ListingApproved:
		t = domain.EventDonationApproved
	case r.kind == domain.KindDonation:
		t = domain.EventDonationRejected
	case l.Status == domain.ListingApproved:
		t = domain.EventRequestApproved
	default:
		t = domain.EventRequestRejected
	}
	data := map[string]any{
		"item_name": l.ItemName,
		"category":  l.Category,
		"quantity":  l.Quantity,
		"status":    string(l.Status),
	}
	if l.RejectReason != "" {
		data["reason"] = l.RejectReason
	}
	return domain.NewEvent(t, string(r.kind), l.ID, now, data, l.OwnerID)
}

// BulkApprove approves every id in its own unit of work and reports per-item outcomes.
func (r *Registry) BulkApprove(ctx context.Context, ids []string) []BulkResult[domain.Listing] {
	return bulk(ctx, ids, r.Approve)
}

func (r *Registry) ListByStatus(ctx context.Context, status domain.ListingStatus) ([]domain.Listing, error) {
	var out []domain.Listing
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Listings().ListByStatus(ctx, r.kind, status)
		return err
	})
	return out, err
}

func (r *Registry) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	var out []domain.Listing
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Listings().ListByOwner(ctx, r.kind, ownerID)
		return err
	})
	return out, err
}

// CountsByStatus returns a count for every listing status, zeros included.
func (r *Registry) CountsByStatus(ctx context.Context) (map[domain.ListingStatus]int, error) {
	var raw map[domain.ListingStatus]int
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		raw, err = tx.Listings().CountByStatus(ctx, r.kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.ListingStatus]int, len(domain.ListingStatuses))
	for _, s := range domain.ListingStatuses {
		counts[s] = raw[s]
	}
	return counts, nil
}

// MarkMatched moves an approved listing to matched inside the caller's unit of work.
func (r *Registry) MarkMatched(ctx context.Context, tx domain.Tx, id string) (*domain.Listing, error) {
	return r.advance(ctx, tx, id, domain.ListingApproved, domain.ListingMatched)
}

func (r *Registry) MarkExecuted(ctx context.Context, tx domain.Tx, id string) (*domain.Listing, error) {
	return r.advance(ctx, tx, id, domain.ListingMatched, domain.ListingExecuted)
}

func (r *Registry) MarkCompleted(ctx context.Context, tx domain.Tx, id string) (*domain.Listing, error) {
	return r.advance(ctx, tx, id, domain.ListingExecuted, domain.ListingCompleted)
}

func (r *Registry) advance(ctx context.Context, tx domain.Tx, id string, from, to domain.ListingStatus) (*domain.Listing, error) {
	l, err := tx.Listings().Get(ctx, r.kind, id)
	if err != nil {
		return nil, err
	}
	if l.Status != from || !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s %s is %s, want %s", domain.ErrInvalidTransition, r.kind, id, l.Status, from)
	}
	l.Status = to
	l.UpdatedAt = r.now()
	if err := tx.Listings().SetStatus(ctx, l, from); err != nil {
		if errors.Is(err, domain.ErrStale) {
			return nil, fmt.Errorf("%w: %s %s changed concurrently", domain.ErrInvalidTransition, r.kind, id)
		}
		return nil, err
	}
	return l, nil
}
