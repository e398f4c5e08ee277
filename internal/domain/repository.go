package domain

import (
	"context"
	"errors"
	"time"
)

// ErrStale is returned by compare-and-set writes when the row no longer holds
// the expected status. Services translate it into a caller facing error.
var ErrStale = errors.New("stale write")

// Store runs units of work. fn's writes commit together when it returns nil
// and are discarded otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Listings() ListingRepository
	Interests() InterestRepository
	Matches() MatchRepository
	Notifications() NotificationRepository
	Feedback() FeedbackRepository
	Outbox() OutboxRepository
}

// ListingRepository persists donations and requests.
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	Get(ctx context.Context, kind ListingKind, id string) (*Listing, error)
	// SetStatus writes l's status fields only if the stored status equals from.
	SetStatus(ctx context.Context, l *Listing, from ListingStatus) error
	ListByStatus(ctx context.Context, kind ListingKind, status ListingStatus) ([]Listing, error)
	ListByOwner(ctx context.Context, kind ListingKind, ownerID string) ([]Listing, error)
	CountByStatus(ctx context.Context, kind ListingKind) (map[ListingStatus]int, error)
}

// InterestRepository persists donor interests.
type InterestRepository interface {
	// Create fails with ErrConflict when the donor already has an active interest in the request.
	Create(ctx context.Context, i *Interest) error
	Get(ctx context.Context, id string) (*Interest, error)
	FindActive(ctx context.Context, donorID, requestID string) (*Interest, error)
	SetStatus(ctx context.Context, i *Interest, from InterestStatus) error
	ListByStatus(ctx context.Context, status InterestStatus) ([]Interest, error)
	ListForRequest(ctx context.Context, requestID string) ([]Interest, error)
	CountByStatus(ctx context.Context) (map[InterestStatus]int, error)
}

// MatchRepository persists matches.
type MatchRepository interface {
	// Create fails with ErrAlreadyMatched when the supply or the request is
	// already bound to an active match.
	Create(ctx context.Context, m *Match) error
	Get(ctx context.Context, id string) (*Match, error)
	ActiveForSupply(ctx context.Context, s Supply) (*Match, error)
	ActiveForRequest(ctx context.Context, requestID string) (*Match, error)
	SetStatus(ctx context.Context, m *Match, from MatchStatus) error
	ListByStatus(ctx context.Context, status MatchStatus) ([]Match, error)
	ListForUser(ctx context.Context, userID string) ([]Match, error)
	// ListCompletedFor returns completed matches of a participant completed at or after since.
	ListCompletedFor(ctx context.Context, userID string, since time.Time) ([]Match, error)
	CountByStatus(ctx context.Context) (map[MatchStatus]int, error)
}

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	// Insert reports false when a notification for (EventID, UserID) already exists.
	Insert(ctx context.Context, n *Notification) (bool, error)
	Get(ctx context.Context, id string) (*Notification, error)
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// FeedbackRepository persists match feedback.
type FeedbackRepository interface {
	// Create fails with ErrConflict when the author already reviewed the match.
	Create(ctx context.Context, f *Feedback) error
	Get(ctx context.Context, id string) (*Feedback, error)
	// GetForUpdate reads feedback that the transaction is about to change and
	// holds it against concurrent writers until commit.
	GetForUpdate(ctx context.Context, id string) (*Feedback, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Feedback, error)
	ListByStatus(ctx context.Context, status ModerationStatus, limit int) ([]Feedback, error)
	ListPublished(ctx context.Context, limit int) ([]Feedback, error)
	Update(ctx context.Context, f *Feedback) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[ModerationStatus]int, error)
}

// OutboxRepository stores events until the dispatcher has fanned them out.
type OutboxRepository interface {
	Append(ctx context.Context, ev Event) error
	// Get locks the entry for the rest of the transaction where the backend
	// supports row locks.
	Get(ctx context.Context, eventID string) (*OutboxEntry, error)
	Pending(ctx context.Context, now time.Time, limit int) ([]OutboxEntry, error)
	MarkSent(ctx context.Context, eventID string, at time.Time) error
	// MarkFailed bumps the retry counter and schedules the next attempt, or
	// parks the entry as failed once maxRetries is reached.
	MarkFailed(ctx context.Context, eventID string, maxRetries int, now time.Time) error
	ListFailed(ctx context.Context, limit int) ([]OutboxEntry, error)
	Replay(ctx context.Context, eventID string, now time.Time) error
}

// RetryDelay is the linear backoff applied between outbox attempts.
func RetryDelay(attempt int) time.Duration {
	return time.Duration(attempt) * 5 * time.Second
}

// Notifier receives events after their triggering transaction has committed.
// It must not fail the caller.
type Notifier interface {
	Notify(ctx context.Context, events ...Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, ...Event) {}
