package memstore

import (
	"context"
	"fmt"
	"sort"

	"charitymatch/internal/domain"
)

type feedback struct{ st *state }

func (r feedback) Create(_ context.Context, f *domain.Feedback) error {
	for _, existing := range r.st.feedback {
		if existing.MatchID == f.MatchID && existing.AuthorID == f.AuthorID {
			return fmt.Errorf("%w: feedback for match %s by %s exists", domain.ErrConflict, f.MatchID, f.AuthorID)
		}
	}
	r.st.writeFeedback()[f.ID] = *f
	r.st.track(f.ID)
	return nil
}

func (r feedback) Get(_ context.Context, id string) (*domain.Feedback, error) {
	f, ok := r.st.feedback[id]
	if !ok {
		return nil, fmt.Errorf("%w: feedback %s", domain.ErrNotFound, id)
	}
	return &f, nil
}

// GetForUpdate is Get: transactions already run one at a time.
func (r feedback) GetForUpdate(ctx context.Context, id string) (*domain.Feedback, error) {
	return r.Get(ctx, id)
}

func (r feedback) ListByAuthor(_ context.Context, authorID string) ([]domain.Feedback, error) {
	return r.collect(func(f domain.Feedback) bool { return f.AuthorID == authorID }, 0), nil
}

func (r feedback) ListByStatus(_ context.Context, status domain.ModerationStatus, limit int) ([]domain.Feedback, error) {
	return r.collect(func(f domain.Feedback) bool { return f.Status == status }, limit), nil
}

// ListPublished returns featured feedback first, then approved, newest first within each.
func (r feedback) ListPublished(_ context.Context, limit int) ([]domain.Feedback, error) {
	out := r.collect(func(f domain.Feedback) bool { return f.Status.Published() }, 0)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status == domain.ModerationFeatured && out[j].Status != domain.ModerationFeatured
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r feedback) Update(_ context.Context, f *domain.Feedback) error {
	if _, ok := r.st.feedback[f.ID]; !ok {
		return fmt.Errorf("%w: feedback %s", domain.ErrNotFound, f.ID)
	}
	r.st.writeFeedback()[f.ID] = *f
	return nil
}

func (r feedback) Delete(_ context.Context, id string) error {
	if _, ok := r.st.feedback[id]; !ok {
		return fmt.Errorf("%w: feedback %s", domain.ErrNotFound, id)
	}
	delete(r.st.writeFeedback(), id)
	return nil
}

func (r feedback) CountByStatus(context.Context) (map[domain.ModerationStatus]int, error) {
	counts := map[domain.ModerationStatus]int{}
	for _, f := range r.st.feedback {
		counts[f.Status]++
	}
	return counts, nil
}

func (r feedback) collect(keep func(domain.Feedback) bool, limit int) []domain.Feedback {
	var ids []string
	for id, f := range r.st.feedback {
		if keep(f) {
			ids = append(ids, id)
		}
	}
	r.st.newestFirst(ids)
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]domain.Feedback, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.st.feedback[id])
	}
	return out
}
