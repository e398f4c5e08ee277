// Package matching pairs approved supply with approved requests and drives
// each match through execution to completion.
//
// A donation, an interest and a request can each be bound to at most one
// active (approved or executed) match. The binding is checked and written in
// a single unit of work: listing status moves are compare-and-set, and the
// match insert itself is guarded by the store, so of two concurrent attempts
// on the same side exactly one commits and the other fails with
// domain.ErrAlreadyMatched.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/lifecycle"
)

type Engine struct {
	store     domain.Store
	donations *lifecycle.Registry
	requests  *lifecycle.Registry
	notifier  domain.Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

func NewEngine(store domain.Store, donations, requests *lifecycle.Registry, notifier domain.Notifier, logger zerolog.Logger) *Engine {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &Engine{
		store:     store,
		donations: donations,
		requests:  requests,
		notifier:  notifier,
		logger:    logger.With().Str("component", "match_engine").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CreateManualMatch binds an approved donation to an approved request.
func (e *Engine) CreateManualMatch(ctx context.Context, donationID, requestID string) (*domain.Match, error) {
	var (
		out *domain.Match
		ev  domain.Event
	)
	err := e.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		donation, err := tx.Listings().Get(ctx, domain.KindDonation, donationID)
		if err != nil {
			return err
		}
		request, err := tx.Listings().Get(ctx, domain.KindRequest, requestID)
		if err != nil {
			return err
		}
		if err := bindable(donation); err != nil {
			return err
		}
		if err := bindable(request); err != nil {
			return err
		}
		supply := domain.DonationSupply(donation.ID)
		if err := ensureUnbound(ctx, tx, supply, request.ID); err != nil {
			return err
		}
		if _, err := e.donations.MarkMatched(ctx, tx, donation.ID); err != nil {
			return raced(err)
		}
		if _, err := e.requests.MarkMatched(ctx, tx, request.ID); err != nil {
			return raced(err)
		}
		now := e.now()
		m := &domain.Match{
			ID:         uuid.NewString(),
			Type:       domain.MatchManual,
			Supply:     supply,
			RequestID:  request.ID,
			DonorID:    donation.OwnerID,
			ReceiverID: request.OwnerID,
			Status:     domain.MatchApproved,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Matches().Create(ctx, m); err != nil {
			return err
		}
		ev = matchEvent(domain.EventMatchCreated, m, request.ItemName, now)
		ev.Data["donation_item_name"] = donation.ItemName
		if err := tx.Outbox().Append(ctx, ev); err != nil {
			return err
		}
		out = m
		return nil
	})
	return e.finishCreate(ctx, out, ev, err)
}

// CreateInterestMatch binds an approved interest to the request it targets.
func (e *Engine) CreateInterestMatch(ctx context.Context, interestID string) (*domain.Match, error) {
	var (
		out *domain.Match
		ev  domain.Event
	)
	err := e.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		interest, err := tx.Interests().Get(ctx, interestID)
		if err != nil {
			return err
		}
		if interest.Status != domain.InterestApproved {
			return fmt.Errorf("%w: interest %s is %s", domain.ErrNotEligible, interest.ID, interest.Status)
		}
		request, err := tx.Listings().Get(ctx, domain.KindRequest, interest.RequestID)
		if err != nil {
			return err
		}
		if err := bindable(request); err != nil {
			return err
		}
		supply := domain.InterestSupply(interest.ID)
		if err := ensureUnbound(ctx, tx, supply, request.ID); err != nil {
			return err
		}
		if _, err := e.requests.MarkMatched(ctx, tx, request.ID); err != nil {
			return raced(err)
		}
		now := e.now()
		m := &domain.Match{
			ID:         uuid.NewString(),
			Type:       domain.MatchInterest,
			Supply:     supply,
			RequestID:  request.ID,
			DonorID:    interest.DonorID,
			ReceiverID: request.OwnerID,
			Status:     domain.MatchApproved,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Matches().Create(ctx, m); err != nil {
			return err
		}
		ev = matchEvent(domain.EventMatchCreated, m, request.ItemName, now)
		if err := tx.Outbox().Append(ctx, ev); err != nil {
			return err
		}
		out = m
		return nil
	})
	return e.finishCreate(ctx, out, ev, err)
}

func (e *Engine) finishCreate(ctx context.Context, m *domain.Match, ev domain.Event, err error) (*domain.Match, error) {
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyMatched) {
			infra.MatchConflicts.Inc()
		}
		return nil, err
	}
	infra.MatchesCreated.WithLabelValues(string(m.Type)).Inc()
	infra.RecordTransition("match", string(m.Status))
	e.logger.Info().
		Str("match_id", m.ID).
		Str("type", string(m.Type)).
		Str("supply_id", m.Supply.ID).
		Str("request_id", m.RequestID).
		Msg("match created")
	e.notifier.Notify(ctx, ev)
	return m, nil
}

// AdvanceToExecuted records the physical handover of an approved match.
func (e *Engine) AdvanceToExecuted(ctx context.Context, matchID string) (*domain.Match, error) {
	return e.advance(ctx, matchID, domain.MatchApproved)
}

// AdvanceToCompleted closes an executed match and opens its feedback window.
func (e *Engine) AdvanceToCompleted(ctx context.Context, matchID string) (*domain.Match, error) {
	return e.advance(ctx, matchID, domain.MatchExecuted)
}

func (e *Engine) advance(ctx context.Context, matchID string, from domain.MatchStatus) (*domain.Match, error) {
	to, _ := from.Next()
	var (
		out *domain.Match
		ev  domain.Event
	)
	err := e.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		m, err := tx.Matches().Get(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != from {
			return fmt.Errorf("%w: match %s is %s, want %s", domain.ErrInvalidTransition, m.ID, m.Status, from)
		}
		var request *domain.Listing
		switch to {
		case domain.MatchExecuted:
			if id := m.Supply.DonationID(); id != "" {
				if _, err := e.donations.MarkExecuted(ctx, tx, id); err != nil {
					return err
				}
			}
			if request, err = e.requests.MarkExecuted(ctx, tx, m.RequestID); err != nil {
				return err
			}
		case domain.MatchCompleted:
			if id := m.Supply.DonationID(); id != "" {
				if _, err := e.donations.MarkCompleted(ctx, tx, id); err != nil {
					return err
				}
			}
			if request, err = e.requests.MarkCompleted(ctx, tx, m.RequestID); err != nil {
				return err
			}
		}
		now := e.now()
		m.Status = to
		m.UpdatedAt = now
		evType := domain.EventMatchExecuted
		if to == domain.MatchExecuted {
			m.ExecutedAt = &now
		} else {
			m.CompletedAt = &now
			evType = domain.EventMatchCompleted
		}
		if err := tx.Matches().SetStatus(ctx, m, from); err != nil {
			if errors.Is(err, domain.ErrStale) {
				return fmt.Errorf("%w: match %s changed concurrently", domain.ErrInvalidTransition, m.ID)
			}
			return err
		}
		ev = matchEvent(evType, m, request.ItemName, now)
		if err := tx.Outbox().Append(ctx, ev); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	infra.RecordTransition("match", string(to))
	e.logger.Info().Str("match_id", out.ID).Str("status", string(to)).Msg("match advanced")
	e.notifier.Notify(ctx, ev)
	return out, nil
}

func (e *Engine) Get(ctx context.Context, id string) (*domain.Match, error) {
	var out *domain.Match
	err := e.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		m, err := tx.Matches().Get(ctx, id)
		out = m
		return err
	})
	return out, err
}

func (e *Engine) ListByStatus(ctx context.Context, status domain.MatchStatus) ([]domain.Match, error) {
	var out []domain.Match
	err := e.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Matches().ListByStatus(ctx, status)
		return err
	})
	return out, err
}

// ListForUser returns the matches where userID is the donor or the receiver.
func (e *Engine) ListForUser(ctx context.Context, userID string) ([]domain.Match, error) {
	var out []domain.Match
	err := e.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Matches().ListForUser(ctx, userID)
		return err
	})
	return out, err
}

func (e *Engine) CountsByStatus(ctx context.Context) (map[domain.MatchStatus]int, error) {
	var raw map[domain.MatchStatus]int
	err := e.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		raw, err = tx.Matches().CountByStatus(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.MatchStatus]int, len(domain.MatchStatuses))
	for _, s := range domain.MatchStatuses {
		counts[s] = raw[s]
	}
	return counts, nil
}

// bindable checks that a listing may be placed into a new match.
func bindable(l *domain.Listing) error {
	switch {
	case l.Status == domain.ListingApproved:
		return nil
	case l.Status.Bound():
		return fmt.Errorf("%w: %s %s is %s", domain.ErrAlreadyMatched, l.Kind, l.ID, l.Status)
	default:
		return fmt.Errorf("%w: %s %s is %s", domain.ErrNotEligible, l.Kind, l.ID, l.Status)
	}
}

func ensureUnbound(ctx context.Context, tx domain.Tx, supply domain.Supply, requestID string) error {
	if m, err := tx.Matches().ActiveForSupply(ctx, supply); err == nil {
		return fmt.Errorf("%w: %s %s is bound to match %s", domain.ErrAlreadyMatched, supply.Kind, supply.ID, m.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if m, err := tx.Matches().ActiveForRequest(ctx, requestID); err == nil {
		return fmt.Errorf("%w: request %s is bound to match %s", domain.ErrAlreadyMatched, requestID, m.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// raced converts a lost compare-and-set on a listing into ErrAlreadyMatched.
func raced(err error) error {
	if errors.Is(err, domain.ErrInvalidTransition) {
		return fmt.Errorf("%w: %v", domain.ErrAlreadyMatched, err)
	}
	return err
}

func matchEvent(t domain.EventType, m *domain.Match, itemName string, now time.Time) domain.Event {
	data := map[string]any{
		"match_id":    m.ID,
		"match_type":  string(m.Type),
		"request_id":  m.RequestID,
		"supply_kind": string(m.Supply.Kind),
		"supply_id":   m.Supply.ID,
		"item_name":   itemName,
		"status":      string(m.Status),
		"donor_id":    m.DonorID,
		"receiver_id": m.ReceiverID,
	}
	return domain.NewEvent(t, "match", m.ID, now, data, m.DonorID, m.ReceiverID)
}
