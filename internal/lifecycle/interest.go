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

// InterestRegistry manages donor interests in approved requests.
type InterestRegistry struct {
	store    domain.Store
	notifier domain.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewInterestRegistry(store domain.Store, notifier domain.Notifier, logger zerolog.Logger) *InterestRegistry {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &InterestRegistry{
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("registry", "interest").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *InterestRegistry) WithClock(now func() time.Time) *InterestRegistry {
	r.now = now
	return r
}

// Express records a donor's interest in an approved request. Duplicates of an
// active interest are refused rather than merged.
func (r *InterestRegistry) Express(ctx context.Context, donorID, requestID, note string) (*domain.Interest, error) {
	donorID = strings.TrimSpace(donorID)
	if donorID == "" {
		return nil, fmt.Errorf("%w: donor is required", domain.ErrInvalidArgument)
	}
	var (
		out *domain.Interest
		ev  domain.Event
	)
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		req, err := tx.Listings().Get(ctx, domain.KindRequest, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.ListingApproved {
			return fmt.Errorf("%w: request %s is %s", domain.ErrNotEligible, requestID, req.Status)
		}
		if _, err := tx.Interests().FindActive(ctx, donorID, requestID); err == nil {
			return fmt.Errorf("%w: donor %s already expressed interest in request %s", domain.ErrConflict, donorID, requestID)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		now := r.now()
		i := &domain.Interest{
			ID:        uuid.NewString(),
			DonorID:   donorID,
			RequestID: requestID,
			Note:      strings.TrimSpace(note),
			Status:    domain.InterestPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Interests().Create(ctx, i); err != nil {
			return err
		}
		ev = domain.NewEvent(domain.EventInterestExpressed, "interest", i.ID, now, map[string]any{
			"request_id": req.ID,
			"item_name":  req.ItemName,
			"donor_id":   donorID,
		}, req.OwnerID)
		if err := tx.Outbox().Append(ctx, ev); err != nil {
			return err
		}
		out = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	infra.RecordTransition("interest", string(domain.InterestPending))
	r.notifier.Notify(ctx, ev)
	return out, nil
}

func (r *InterestRegistry) Get(ctx context.Context, id string) (*domain.Interest, error) {
	var out *domain.Interest
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		i, err := tx.Interests().Get(ctx, id)
		out = i
		return err
	})
	return out, err
}

// Approve makes a pending interest eligible for matching.
func (r *InterestRegistry) Approve(ctx context.Context, id string) (*domain.Interest, error) {
	return r.decide(ctx, id, domain.InterestApproved, "")
}

func (r *InterestRegistry) Reject(ctx context.Context, id, reason string) (*domain.Interest, error) {
	return r.decide(ctx, id, domain.InterestRejected, strings.TrimSpace(reason))
}

func (r *InterestRegistry) BulkApprove(ctx context.Context, ids []string) []BulkResult[domain.Interest] {
	return bulk(ctx, ids, r.Approve)
}

func (r *InterestRegistry) decide(ctx context.Context, id string, to domain.InterestStatus, reason string) (*domain.Interest, error) {
	var (
		out *domain.Interest
		ev  domain.Event
	)
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		i, err := tx.Interests().Get(ctx, id)
		if err != nil {
			return err
		}
		if i.Status != domain.InterestPending {
			return fmt.Errorf("%w: interest %s is %s", domain.ErrInvalidTransition, id, i.Status)
		}
		req, err := tx.Listings().Get(ctx, domain.KindRequest, i.RequestID)
		if err != nil {
			return err
		}
		now := r.now()
		i.Status = to
		i.UpdatedAt = now
		i.RejectReason = reason
		if err := tx.Interests().SetStatus(ctx, i, domain.InterestPending); err != nil {
			if errors.Is(err, domain.ErrStale) {
				return fmt.Errorf("%w: interest %s changed concurrently", domain.ErrInvalidTransition, id)
			}
			return err
		}
		data := map[string]any{
			"request_id": req.ID,
			"item_name":  req.ItemName,
			"status":     string(to),
		}
		if to == domain.InterestApproved {
			ev = domain.NewEvent(domain.EventInterestApproved, "interest", i.ID, now, data, i.DonorID, req.OwnerID)
		} else {
			if reason != "" {
				data["reason"] = reason
			}
			ev = domain.NewEvent(domain.EventInterestRejected, "interest", i.ID, now, data, i.DonorID)
		}
		if err := tx.Outbox().Append(ctx, ev); err != nil {
			return err
		}
		out = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	infra.RecordTransition("interest", string(to))
	r.notifier.Notify(ctx, ev)
	return out, nil
}

func (r *InterestRegistry) ListByStatus(ctx context.Context, status domain.InterestStatus) ([]domain.Interest, error) {
	var out []domain.Interest
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Interests().ListByStatus(ctx, status)
		return err
	})
	return out, err
}

func (r *InterestRegistry) ListForRequest(ctx context.Context, requestID string) ([]domain.Interest, error) {
	var out []domain.Interest
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.Listings().Get(ctx, domain.KindRequest, requestID); err != nil {
			return err
		}
		var err error
		out, err = tx.Interests().ListForRequest(ctx, requestID)
		return err
	})
	return out, err
}

func (r *InterestRegistry) CountsByStatus(ctx context.Context) (map[domain.InterestStatus]int, error) {
	var raw map[domain.InterestStatus]int
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		raw, err = tx.Interests().CountByStatus(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.InterestStatus]int, len(domain.InterestStatuses))
	for _, s := range domain.InterestStatuses {
		counts[s] = raw[s]
	}
	return counts, nil
}
