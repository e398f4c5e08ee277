package memstore

import (
	"context"
	"fmt"

	"charitymatch/internal/domain"
)

type interests struct{ st *state }

func (r interests) Create(ctx context.Context, i *domain.Interest) error {
	if _, err := r.FindActive(ctx, i.DonorID, i.RequestID); err == nil {
		return fmt.Errorf("%w: donor %s already expressed interest in request %s", domain.ErrConflict, i.DonorID, i.RequestID)
	}
	r.st.writeInterests()[i.ID] = *i
	r.st.track(i.ID)
	return nil
}

func (r interests) Get(_ context.Context, id string) (*domain.Interest, error) {
	i, ok := r.st.interests[id]
	if !ok {
		return nil, fmt.Errorf("%w: interest %s", domain.ErrNotFound, id)
	}
	return &i, nil
}

func (r interests) FindActive(_ context.Context, donorID, requestID string) (*domain.Interest, error) {
	for _, i := range r.st.interests {
		if i.DonorID == donorID && i.RequestID == requestID && i.Status.Active() {
			return &i, nil
		}
	}
	return nil, fmt.Errorf("%w: no active interest", domain.ErrNotFound)
}

func (r interests) SetStatus(_ context.Context, i *domain.Interest, from domain.InterestStatus) error {
	cur, ok := r.st.interests[i.ID]
	if !ok {
		return fmt.Errorf("%w: interest %s", domain.ErrNotFound, i.ID)
	}
	if cur.Status != from {
		return domain.ErrStale
	}
	cur.Status = i.Status
	cur.RejectReason = i.RejectReason
	cur.UpdatedAt = i.UpdatedAt
	r.st.writeInterests()[i.ID] = cur
	return nil
}

func (r interests) ListByStatus(_ context.Context, status domain.InterestStatus) ([]domain.Interest, error) {
	return r.collect(func(i domain.Interest) bool { return i.Status == status }), nil
}

func (r interests) ListForRequest(_ context.Context, requestID string) ([]domain.Interest, error) {
	return r.collect(func(i domain.Interest) bool { return i.RequestID == requestID }), nil
}

func (r interests) CountByStatus(context.Context) (map[domain.InterestStatus]int, error) {
	counts := map[domain.InterestStatus]int{}
	for _, i := range r.st.interests {
		counts[i.Status]++
	}
	return counts, nil
}

func (r interests) collect(keep func(domain.Interest) bool) []domain.Interest {
	var ids []string
	for id, i := range r.st.interests {
		if keep(i) {
			ids = append(ids, id)
		}
	}
	r.st.newestFirst(ids)
	out := make([]domain.Interest, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.st.interests[id])
	}
	return out
}
