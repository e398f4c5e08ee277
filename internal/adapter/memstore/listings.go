package memstore

import (
	"context"
	"fmt"

	"charitymatch/internal/domain"
)

type listings struct{ st *state }

func (r listings) Create(_ context.Context, l *domain.Listing) error {
	if _, ok := r.st.listings[l.ID]; ok {
		return fmt.Errorf("%w: listing %s exists", domain.ErrConflict, l.ID)
	}
	cp := *l
	cp.Attachments = append([]string(nil), l.Attachments...)
	r.st.writeListings()[l.ID] = cp
	r.st.track(l.ID)
	return nil
}

func (r listings) Get(_ context.Context, kind domain.ListingKind, id string) (*domain.Listing, error) {
	l, ok := r.st.listings[id]
	if !ok || l.Kind != kind {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
	}
	return &l, nil
}

func (r listings) SetStatus(_ context.Context, l *domain.Listing, from domain.ListingStatus) error {
	cur, ok := r.st.listings[l.ID]
	if !ok || cur.Kind != l.Kind {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, l.Kind, l.ID)
	}
	if cur.Status != from {
		return domain.ErrStale
	}
	cur.Status = l.Status
	cur.RejectReason = l.RejectReason
	cur.ApprovedAt = l.ApprovedAt
	cur.UpdatedAt = l.UpdatedAt
	r.st.writeListings()[l.ID] = cur
	return nil
}

func (r listings) ListByStatus(_ context.Context, kind domain.ListingKind, status domain.ListingStatus) ([]domain.Listing, error) {
	return r.collect(func(l domain.Listing) bool { return l.Kind == kind && l.Status == status }), nil
}

func (r listings) ListByOwner(_ context.Context, kind domain.ListingKind, ownerID string) ([]domain.Listing, error) {
	return r.collect(func(l domain.Listing) bool { return l.Kind == kind && l.OwnerID == ownerID }), nil
}

func (r listings) CountByStatus(_ context.Context, kind domain.ListingKind) (map[domain.ListingStatus]int, error) {
	counts := map[domain.ListingStatus]int{}
	for _, l := range r.st.listings {
		if l.Kind == kind {
			counts[l.Status]++
		}
	}
	return counts, nil
}

func (r listings) collect(keep func(domain.Listing) bool) []domain.Listing {
	var ids []string
	for id, l := range r.st.listings {
		if keep(l) {
			ids = append(ids, id)
		}
	}
	r.st.newestFirst(ids)
	out := make([]domain.Listing, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.st.listings[id])
	}
	return out
}
