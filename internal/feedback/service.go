// Package feedback lets the two participants of a completed match rate it
// once each within a bounded window, and lets admins moderate the result.
// Moderation never touches match state.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
)

const (
	DefaultWindow     = 30 * 24 * time.Hour
	DefaultCategory   = "general"
	maxCategoryLength = 50
	maxCommentLength  = 2000
	maxResponseLength = 2000
	defaultListLimit  = 50
	maxPublishedLimit = 100
)

type Service struct {
	store    domain.Store
	notifier domain.Notifier
	logger   zerolog.Logger
	window   time.Duration
	now      func() time.Time
}

// NewService creates a feedback service. A non-positive window falls back to DefaultWindow.
func NewService(store domain.Store, notifier domain.Notifier, logger zerolog.Logger, window time.Duration) *Service {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "feedback").Logger(),
		window:   window,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SubmitInput carries a participant's rating of a match.
type SubmitInput struct {
	MatchID   string
	UserID    string
	Rating    int
	Category  string
	Comment   string
	Anonymous bool
}

// Patch holds the author editable fields; nil fields are left untouched.
type Patch struct {
	Rating    *int
	Category  *string
	Comment   *string
	Anonymous *bool
}

// EligibleMatches returns the completed matches userID may still review.
func (s *Service) EligibleMatches(ctx context.Context, userID string) ([]domain.Match, error) {
	var out []domain.Match
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		completed, err := tx.Matches().ListCompletedFor(ctx, userID, s.now().Add(-s.window))
		if err != nil {
			return err
		}
		authored, err := tx.Feedback().ListByAuthor(ctx, userID)
		if err != nil {
			return err
		}
		reviewed := make(map[string]struct{}, len(authored))
		for _, f := range authored {
			reviewed[f.MatchID] = struct{}{}
		}
		out = make([]domain.Match, 0, len(completed))
		for _, m := range completed {
			if _, done := reviewed[m.ID]; !done {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// Submit records feedback for a completed match. A second submission by the
// same participant fails with domain.ErrConflict.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Feedback, error) {
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}
	category, err := normalizeCategory(in.Category)
	if err != nil {
		return nil, err
	}
	comment, err := normalizeComment(in.Comment)
	if err != nil {
		return nil, err
	}

	var out *domain.Feedback
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		m, err := tx.Matches().Get(ctx, in.MatchID)
		if err != nil {
			return err
		}
		if m.Status != domain.MatchCompleted {
			return fmt.Errorf("%w: match %s is %s", domain.ErrNotEligible, m.ID, m.Status)
		}
		role, ok := m.RoleOf(in.UserID)
		if !ok {
			return fmt.Errorf("%w: user is not a participant of match %s", domain.ErrNotEligible, m.ID)
		}
		now := s.now()
		if m.CompletedAt != nil && now.Sub(*m.CompletedAt) > s.window {
			return fmt.Errorf("%w: feedback window for match %s closed", domain.ErrNotEligible, m.ID)
		}
		f := &domain.Feedback{
			ID:        uuid.NewString(),
			MatchID:   m.ID,
			AuthorID:  in.UserID,
			Role:      role,
			Rating:    in.Rating,
			Category:  category,
			Comment:   comment,
			Anonymous: in.Anonymous,
			Status:    domain.ModerationPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Feedback().Create(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	infra.FeedbackSubmitted.WithLabelValues(string(out.Role)).Inc()
	s.logger.Info().Str("feedback_id", out.ID).Str("match_id", out.MatchID).Int("rating", out.Rating).Msg("feedback submitted")
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Feedback, error) {
	var out *domain.Feedback
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		f, err := tx.Feedback().Get(ctx, id)
		out = f
		return err
	})
	return out, err
}

// Update edits the author's own feedback while it awaits moderation.
func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*domain.Feedback, error) {
	if p.Rating != nil {
		if err := validateRating(*p.Rating); err != nil {
			return nil, err
		}
	}
	var out *domain.Feedback
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		f, err := authorPending(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if p.Rating != nil {
			f.Rating = *p.Rating
		}
		if p.Category != nil {
			if f.Category, err = normalizeCategory(*p.Category); err != nil {
				return err
			}
		}
		if p.Comment != nil {
			if f.Comment, err = normalizeComment(*p.Comment); err != nil {
				return err
			}
		}
		if p.Anonymous != nil {
			f.Anonymous = *p.Anonymous
		}
		f.UpdatedAt = s.now()
		if err := tx.Feedback().Update(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	return out, err
}

// Delete removes the author's own feedback while it awaits moderation.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := authorPending(ctx, tx, userID, id); err != nil {
			return err
		}
		return tx.Feedback().Delete(ctx, id)
	})
}

func authorPending(ctx context.Context, tx domain.Tx, userID, id string) (*domain.Feedback, error) {
	f, err := tx.Feedback().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.AuthorID != userID {
		return nil, fmt.Errorf("%w: feedback %s belongs to another user", domain.ErrForbidden, id)
	}
	if f.Status != domain.ModerationPending {
		return nil, fmt.Errorf("%w: feedback %s is %s", domain.ErrNotEligible, id, f.Status)
	}
	return f, nil
}

func (s *Service) Approve(ctx context.Context, id string) (*domain.Feedback, error) {
	return s.moderate(ctx, id, domain.ModerationApproved)
}

func (s *Service) Reject(ctx context.Context, id string) (*domain.Feedback, error) {
	return s.moderate(ctx, id, domain.ModerationRejected)
}

// Feature marks feedback for prominent display; it implies approval.
func (s *Service) Feature(ctx context.Context, id string) (*domain.Feedback, error) {
	return s.moderate(ctx, id, domain.ModerationFeatured)
}

func (s *Service) moderate(ctx context.Context, id string, to domain.ModerationStatus) (*domain.Feedback, error) {
	var out *domain.Feedback
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		f, err := tx.Feedback().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !f.Status.CanTransition(to) {
			return fmt.Errorf("%w: feedback %s is %s", domain.ErrInvalidTransition, id, f.Status)
		}
		f.Status = to
		f.UpdatedAt = s.now()
		if err := tx.Feedback().Update(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	infra.RecordTransition("feedback", string(to))
	return out, nil
}

// Respond attaches an admin response and notifies the author.
func (s *Service) Respond(ctx context.Context, id, response string) (*domain.Feedback, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, fmt.Errorf("%w: response is required", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(response) > maxResponseLength {
		return nil, fmt.Errorf("%w: response exceeds %d characters", domain.ErrInvalidArgument, maxResponseLength)
	}
	var (
		out *domain.Feedback
		ev  domain.Event
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		f, err := tx.Feedback().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		f.AdminResponse = response
		f.RespondedAt = &now
		f.UpdatedAt = now
		if err := tx.Feedback().Update(ctx, f); err != nil {
			return err
		}
		ev = domain.NewEvent(domain.EventFeedbackResponded, "feedback", f.ID, now, map[string]any{
			"match_id":    f.MatchID,
			"feedback_id": f.ID,
		}, f.AuthorID)
		if err := tx.Outbox().Append(ctx, ev); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, ev)
	return out, nil
}

// AdminDelete removes feedback regardless of its moderation status.
func (s *Service) AdminDelete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Feedback().Delete(ctx, id)
	})
}

func (s *Service) ListByStatus(ctx context.Context, status domain.ModerationStatus, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var out []domain.Feedback
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Feedback().ListByStatus(ctx, status, limit)
		return err
	})
	return out, err
}

// ListPublished returns approved and featured feedback with anonymous authors hidden.
func (s *Service) ListPublished(ctx context.Context, limit int) ([]domain.Feedback, error) {
	if limit <= 0 || limit > maxPublishedLimit {
		limit = defaultListLimit
	}
	var out []domain.Feedback
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Feedback().ListPublished(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Anonymous {
			out[i].AuthorID = ""
		}
	}
	return out, nil
}

func (s *Service) CountsByStatus(ctx context.Context) (map[domain.ModerationStatus]int, error) {
	var raw map[domain.ModerationStatus]int
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		raw, err = tx.Feedback().CountByStatus(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.ModerationStatus]int, len(domain.ModerationStatuses))
	for _, st := range domain.ModerationStatuses {
		counts[st] = raw[st]
	}
	return counts, nil
}

func validateRating(r int) error {
	if r < domain.MinRating || r > domain.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidArgument, domain.MinRating, domain.MaxRating)
	}
	return nil
}

func normalizeCategory(c string) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return DefaultCategory, nil
	}
	if utf8.RuneCountInString(c) > maxCategoryLength {
		return "", fmt.Errorf("%w: category exceeds %d characters", domain.ErrInvalidArgument, maxCategoryLength)
	}
	return c, nil
}

func normalizeComment(c string) (string, error) {
	c = strings.TrimSpace(c)
	if utf8.RuneCountInString(c) > maxCommentLength {
		return "", fmt.Errorf("%w: comment exceeds %d characters", domain.ErrInvalidArgument, maxCommentLength)
	}
	return c, nil
}
