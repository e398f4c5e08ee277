package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"charitymatch/internal/adapter/memstore"
	"charitymatch/internal/domain"
)

var t0 = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

// flakyStore fails notification inserts while failing is set.
type flakyStore struct {
	domain.Store
	mu      sync.Mutex
	failing bool
}

func (s *flakyStore) setFailing(v bool) {
	s.mu.Lock()
	s.failing = v
	s.mu.Unlock()
}

func (s *flakyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	s.mu.Lock()
	failing := s.failing
	s.mu.Unlock()
	return s.Store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return fn(ctx, flakyTx{Tx: tx, failing: failing})
	})
}

type flakyTx struct {
	domain.Tx
	failing bool
}

func (t flakyTx) Notifications() domain.NotificationRepository {
	return flakyNotifications{NotificationRepository: t.Tx.Notifications(), failing: t.failing}
}

type flakyNotifications struct {
	domain.NotificationRepository
	failing bool
}

func (n flakyNotifications) Insert(ctx context.Context, notif *domain.Notification) (bool, error) {
	if n.failing {
		return false, errors.New("insert failed")
	}
	return n.NotificationRepository.Insert(ctx, notif)
}

type memDeduper struct {
	seen map[string]bool
}

func (d *memDeduper) Seen(_ context.Context, id string) bool { return d.seen[id] }
func (d *memDeduper) Remember(_ context.Context, id string) { d.seen[id] = true }
func (d *memDeduper) Forget(_ context.Context, id string) { delete(d.seen, id) }

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, routingKey string, _ any) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

func appendEvent(t *testing.T, store domain.Store, ev domain.Event) {
	t.Helper()
	err := store.InTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		return tx.Outbox().Append(ctx, ev)
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}

func outboxEntry(t *testing.T, store domain.Store, id string) *domain.OutboxEntry {
	t.Helper()
	var out *domain.OutboxEntry
	err := store.InTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Outbox().Get(ctx, id)
		return err
	})
	if err != nil {
		t.Fatalf("outbox get: %v", err)
	}
	return out
}

func matchCreated() domain.Event {
	return domain.NewEvent(domain.EventMatchCreated, "match", "m1", t0, map[string]any{
		"item_name": "winter coat",
		"donor_id":  "donor",
	}, "donor", "receiver")
}

func TestOnEventIsIdempotent(t *testing.T) {
	store := memstore.New()
	d := NewDispatcher(store, zerolog.Nop()).WithClock(func() time.Time { return t0 })
	ctx := context.Background()
	ev := matchCreated()
	appendEvent(t, store, ev)

	for i := 0; i < 2; i++ {
		if err := d.OnEvent(ctx, ev); err != nil {
			t.Fatalf("OnEvent #%d: %v", i, err)
		}
	}
	for _, user := range []string{"donor", "receiver"} {
		list, err := d.List(ctx, user, false, 10, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("%s: expected exactly one notification, got %d", user, len(list))
		}
		if list[0].Type != domain.EventMatchCreated || list[0].Payload["link"] != "/matches/m1" {
			t.Fatalf("%s: unexpected notification %+v", user, list[0])
		}
	}
	if entry := outboxEntry(t, store, ev.ID); entry.Status != domain.OutboxSent {
		t.Fatalf("outbox entry should be sent, got %s", entry.Status)
	}
}

func TestOnEventSkipsSentEventAfterInboxCleared(t *testing.T) {
	store := memstore.New()
	pub := &recordingPublisher{}
	d := NewDispatcher(store, zerolog.Nop()).WithPublisher(pub).WithClock(func() time.Time { return t0 })
	ctx := context.Background()
	ev := matchCreated()
	appendEvent(t, store, ev)

	if err := d.OnEvent(ctx, ev); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if n, err := d.ClearAll(ctx, "donor"); err != nil || n != 1 {
		t.Fatalf("clear: n=%d err=%v", n, err)
	}
	if err := d.OnEvent(ctx, ev); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	list, err := d.List(ctx, "donor", false, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("sent event must not recreate cleared notifications, got %d", len(list))
	}
	if n, _ := d.UnreadCount(ctx, "donor"); n != 0 {
		t.Fatalf("expected no unread notifications, got %d", n)
	}
	if len(pub.keys) != 2 {
		t.Fatalf("sent event must not publish again, got %v", pub.keys)
	}
}

func TestOnEventDeliversReplayedEvent(t *testing.T) {
	store := memstore.New()
	dedup := &memDeduper{seen: map[string]bool{}}
	d := NewDispatcher(store, zerolog.Nop()).WithDeduper(dedup).WithClock(func() time.Time { return t0 })
	relay := NewRelay(store, d, zerolog.Nop()).WithClock(func() time.Time { return t0 })
	ctx := context.Background()
	ev := matchCreated()
	appendEvent(t, store, ev)

	if err := d.OnEvent(ctx, ev); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if _, err := d.ClearAll(ctx, "receiver"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := relay.Replay(ctx, ev.ID); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if dedup.seen[ev.ID] {
		t.Fatalf("replay should clear the dedup marker")
	}
	if n, err := relay.ProcessPending(ctx); err != nil || n != 1 {
		t.Fatalf("process: n=%d err=%v", n, err)
	}
	if n, _ := d.UnreadCount(ctx, "receiver"); n != 1 {
		t.Fatalf("replayed event should be delivered again, unread=%d", n)
	}
	if entry := outboxEntry(t, store, ev.ID); entry.Status != domain.OutboxSent {
		t.Fatalf("replayed entry should end sent, got %s", entry.Status)
	}
}

func TestOnEventUsesDeduperAndPublisher(t *testing.T) {
	store := memstore.New()
	dedup := &memDeduper{seen: map[string]bool{}}
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(store, zerolog.Nop()).WithDeduper(dedup).WithPublisher(pub)
	ctx := context.Background()
	ev := matchCreated()

	if err := d.OnEvent(ctx, ev); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if !dedup.seen[ev.ID] {
		t.Fatalf("event should be remembered after commit")
	}
	if len(pub.keys) != 2 || pub.keys[0] != "notification.match_created" {
		t.Fatalf("unexpected publishes %v", pub.keys)
	}

	if err := d.OnEvent(ctx, ev); err != nil {
		t.Fatalf("OnEvent again: %v", err)
	}
	if len(pub.keys) != 2 {
		t.Fatalf("deduplicated event must not publish again, got %v", pub.keys)
	}
}

func TestNotifyNeverFailsCaller(t *testing.T) {
	store := &flakyStore{Store: memstore.New()}
	store.setFailing(true)
	d := NewDispatcher(store, zerolog.Nop())
	ev := matchCreated()
	appendEvent(t, store, ev)

	d.Notify(context.Background(), ev)

	if entry := outboxEntry(t, store, ev.ID); entry.Status != domain.OutboxPending {
		t.Fatalf("failed fan-out should leave the entry pending, got %s", entry.Status)
	}
}

func TestInboxOperations(t *testing.T) {
	store := memstore.New()
	d := NewDispatcher(store, zerolog.Nop()).WithClock(func() time.Time { return t0 })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ev := domain.NewEvent(domain.EventDonationApproved, "donation", "d1", t0, nil, "u1")
		if err := d.OnEvent(ctx, ev); err != nil {
			t.Fatalf("OnEvent: %v", err)
		}
	}
	other := domain.NewEvent(domain.EventRequestApproved, "request", "r1", t0, nil, "u2")
	if err := d.OnEvent(ctx, other); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}

	list, err := d.List(ctx, "u1", false, 0, -5)
	if err != nil || len(list) != 3 {
		t.Fatalf("expected three notifications, got %d (%v)", len(list), err)
	}
	foreign, err := d.List(ctx, "u2", false, 10, 0)
	if err != nil || len(foreign) != 1 {
		t.Fatalf("expected one notification for u2, got %d (%v)", len(foreign), err)
	}

	if _, err := d.MarkRead(ctx, "u1", foreign[0].ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("reading another user's notification should be forbidden, got %v", err)
	}
	if err := d.Delete(ctx, "u1", foreign[0].ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("deleting another user's notification should be forbidden, got %v", err)
	}

	read, err := d.MarkRead(ctx, "u1", list[0].ID)
	if err != nil || read.ReadAt == nil {
		t.Fatalf("mark read: %+v (%v)", read, err)
	}
	if n, _ := d.UnreadCount(ctx, "u1"); n != 2 {
		t.Fatalf("expected two unread, got %d", n)
	}
	if n, err := d.MarkAllRead(ctx, "u1"); err != nil || n != 2 {
		t.Fatalf("mark all read: %d (%v)", n, err)
	}
	if err := d.Delete(ctx, "u1", list[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, err := d.ClearAll(ctx, "u1"); err != nil || n != 2 {
		t.Fatalf("clear all: %d (%v)", n, err)
	}
	if n, _ := d.UnreadCount(ctx, "u2"); n != 1 {
		t.Fatalf("other user's inbox must be untouched, got %d", n)
	}
}
