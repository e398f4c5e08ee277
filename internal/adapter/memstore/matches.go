package memstore

import (
	"context"
	"fmt"
	"time"

	"charitymatch/internal/domain"
)

type matches struct{ st *state }

func (r matches) Create(ctx context.Context, m *domain.Match) error {
	if _, err := r.ActiveForSupply(ctx, m.Supply); err == nil {
		return fmt.Errorf("%w: %s %s", domain.ErrAlreadyMatched, m.Supply.Kind, m.Supply.ID)
	}
	if _, err := r.ActiveForRequest(ctx, m.RequestID); err == nil {
		return fmt.Errorf("%w: request %s", domain.ErrAlreadyMatched, m.RequestID)
	}
	r.st.writeMatches()[m.ID] = *m
	r.st.track(m.ID)
	return nil
}

func (r matches) Get(_ context.Context, id string) (*domain.Match, error) {
	m, ok := r.st.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: match %s", domain.ErrNotFound, id)
	}
	return &m, nil
}

func (r matches) ActiveForSupply(_ context.Context, s domain.Supply) (*domain.Match, error) {
	for _, m := range r.st.matches {
		if m.Supply == s && m.Status.Active() {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: no active match for %s %s", domain.ErrNotFound, s.Kind, s.ID)
}

func (r matches) ActiveForRequest(_ context.Context, requestID string) (*domain.Match, error) {
	for _, m := range r.st.matches {
		if m.RequestID == requestID && m.Status.Active() {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: no active match for request %s", domain.ErrNotFound, requestID)
}

func (r matches) SetStatus(_ context.Context, m *domain.Match, from domain.MatchStatus) error {
	cur, ok := r.st.matches[m.ID]
	if !ok {
		return fmt.Errorf("%w: match %s", domain.ErrNotFound, m.ID)
	}
	if cur.Status != from {
		return domain.ErrStale
	}
	cur.Status = m.Status
	cur.UpdatedAt = m.UpdatedAt
	cur.ExecutedAt = m.ExecutedAt
	cur.CompletedAt = m.CompletedAt
	r.st.writeMatches()[m.ID] = cur
	return nil
}

func (r matches) ListByStatus(_ context.Context, status domain.MatchStatus) ([]domain.Match, error) {
	return r.collect(func(m domain.Match) bool { return m.Status == status }), nil
}

func (r matches) ListForUser(_ context.Context, userID string) ([]domain.Match, error) {
	return r.collect(func(m domain.Match) bool { return m.Participant(userID) }), nil
}

func (r matches) ListCompletedFor(_ context.Context, userID string, since time.Time) ([]domain.Match, error) {
	return r.collect(func(m domain.Match) bool {
		return m.Status == domain.MatchCompleted && m.Participant(userID) &&
			m.CompletedAt != nil && !m.CompletedAt.Before(since)
	}), nil
}

func (r matches) CountByStatus(context.Context) (map[domain.MatchStatus]int, error) {
	counts := map[domain.MatchStatus]int{}
	for _, m := range r.st.matches {
		counts[m.Status]++
	}
	return counts, nil
}

func (r matches) collect(keep func(domain.Match) bool) []domain.Match {
	var ids []string
	for id, m := range r.st.matches {
		if keep(m) {
			ids = append(ids, id)
		}
	}
	r.st.newestFirst(ids)
	out := make([]domain.Match, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.st.matches[id])
	}
	return out
}
