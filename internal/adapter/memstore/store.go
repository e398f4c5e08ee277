// Package memstore is an in-process domain.Store. Units of work run one at a
// time under a single lock against a view of the committed data set; a table
// is copied the first time the unit writes to it and the view is swapped in on
// success, so transactions are serializable and roll back cleanly on error.
// Read-only units copy nothing.
package memstore

import (
	"context"
	"sort"
	"sync"

	"charitymatch/internal/domain"
)

type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.view()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type table int

const (
	tableOrder table = iota
	tableListings
	tableInterests
	tableMatches
	tableNotifications
	tableNotifByEvent
	tableFeedback
	tableOutbox
	numTables
)

type state struct {
	// owned marks tables already copied by the current unit of work.
	owned         [numTables]bool
	seq           int64
	order         map[string]int64
	listings      map[string]domain.Listing
	interests     map[string]domain.Interest
	matches       map[string]domain.Match
	notifications map[string]domain.Notification
	notifByEvent  map[string]string
	feedback      map[string]domain.Feedback
	outbox        map[string]domain.OutboxEntry
}

func newState() *state {
	return &state{
		order:         map[string]int64{},
		listings:      map[string]domain.Listing{},
		interests:     map[string]domain.Interest{},
		matches:       map[string]domain.Match{},
		notifications: map[string]domain.Notification{},
		notifByEvent:  map[string]string{},
		feedback:      map[string]domain.Feedback{},
		outbox:        map[string]domain.OutboxEntry{},
	}
}

// view shares every table with s until the first write to it.
func (s *state) view() *state {
	return &state{
		seq:           s.seq,
		order:         s.order,
		listings:      s.listings,
		interests:     s.interests,
		matches:       s.matches,
		notifications: s.notifications,
		notifByEvent:  s.notifByEvent,
		feedback:      s.feedback,
		outbox:        s.outbox,
	}
}

func own[K comparable, V any](s *state, t table, m *map[K]V) map[K]V {
	if !s.owned[t] {
		*m = copyMap(*m)
		s.owned[t] = true
	}
	return *m
}

func (s *state) writeListings() map[string]domain.Listing {
	return own(s, tableListings, &s.listings)
}

func (s *state) writeInterests() map[string]domain.Interest {
	return own(s, tableInterests, &s.interests)
}

func (s *state) writeMatches() map[string]domain.Match {
	return own(s, tableMatches, &s.matches)
}

func (s *state) writeNotifications() map[string]domain.Notification {
	return own(s, tableNotifications, &s.notifications)
}

func (s *state) writeNotifByEvent() map[string]string {
	return own(s, tableNotifByEvent, &s.notifByEvent)
}

func (s *state) writeFeedback() map[string]domain.Feedback {
	return own(s, tableFeedback, &s.feedback)
}

func (s *state) writeOutbox() map[string]domain.OutboxEntry {
	return own(s, tableOutbox, &s.outbox)
}

func (s *state) track(id string) {
	s.seq++
	own(s, tableOrder, &s.order)[id] = s.seq
}

// newestFirst sorts ids by insertion order, most recent first.
func (s *state) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] > s.order[ids[j]] })
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type tx struct {
	st *state
}

func (t *tx) Listings() domain.ListingRepository           { return listings{t.st} }
func (t *tx) Interests() domain.InterestRepository         { return interests{t.st} }
func (t *tx) Matches() domain.MatchRepository              { return matches{t.st} }
func (t *tx) Notifications() domain.NotificationRepository { return notifications{t.st} }
func (t *tx) Feedback() domain.FeedbackRepository          { return feedback{t.st} }
func (t *tx) Outbox() domain.OutboxRepository              { return outbox{t.st} }

var _ domain.Store = (*Store)(nil)
