package memstore

import (
	"context"
	"fmt"
	"time"

	"charitymatch/internal/domain"
)

type outbox struct{ st *state }

func (r outbox) Append(_ context.Context, ev domain.Event) error {
	if _, ok := r.st.outbox[ev.ID]; ok {
		return nil
	}
	r.st.writeOutbox()[ev.ID] = domain.OutboxEntry{Event: ev, Status: domain.OutboxPending, UpdatedAt: ev.OccurredAt}
	r.st.track(ev.ID)
	return nil
}

func (r outbox) Get(_ context.Context, eventID string) (*domain.OutboxEntry, error) {
	e, ok := r.st.outbox[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}
	return &e, nil
}

func (r outbox) Pending(_ context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	var ids []string
	for id, e := range r.st.outbox {
		if e.Status != domain.OutboxPending {
			continue
		}
		if e.NextRetryAt != nil && e.NextRetryAt.After(now) {
			continue
		}
		ids = append(ids, id)
	}
	r.st.newestFirst(ids)
	// oldest first for delivery
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]domain.OutboxEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.st.outbox[id])
	}
	return out, nil
}

func (r outbox) MarkSent(_ context.Context, eventID string, at time.Time) error {
	e, ok := r.st.outbox[eventID]
	if !ok {
		return nil
	}
	e.Status = domain.OutboxSent
	e.NextRetryAt = nil
	e.UpdatedAt = at
	r.st.writeOutbox()[eventID] = e
	return nil
}

func (r outbox) MarkFailed(_ context.Context, eventID string, maxRetries int, now time.Time) error {
	e, ok := r.st.outbox[eventID]
	if !ok {
		return fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}
	e.RetryCount++
	if e.RetryCount >= maxRetries {
		e.Status = domain.OutboxFailed
		e.NextRetryAt = nil
	} else {
		next := now.Add(domain.RetryDelay(e.RetryCount))
		e.Status = domain.OutboxPending
		e.NextRetryAt = &next
	}
	e.UpdatedAt = now
	r.st.writeOutbox()[eventID] = e
	return nil
}

func (r outbox) ListFailed(_ context.Context, limit int) ([]domain.OutboxEntry, error) {
	var ids []string
	for id, e := range r.st.outbox {
		if e.Status == domain.OutboxFailed {
			ids = append(ids, id)
		}
	}
	r.st.newestFirst(ids)
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]domain.OutboxEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.st.outbox[id])
	}
	return out, nil
}

func (r outbox) Replay(_ context.Context, eventID string, now time.Time) error {
	e, ok := r.st.outbox[eventID]
	if !ok {
		return fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}
	e.Status = domain.OutboxPending
	e.RetryCount = 0
	e.NextRetryAt = nil
	e.UpdatedAt = now
	r.st.writeOutbox()[eventID] = e
	return nil
}
