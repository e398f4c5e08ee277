package lifecycle

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

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *recordingNotifier) Notify(_ context.Context, events ...domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) types() []domain.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newFixture() (*memstore.Store, *recordingNotifier, *Registry, *Registry, *InterestRegistry) {
	store := memstore.New()
	rec := &recordingNotifier{}
	clock := func() time.Time { return fixedNow }
	donations := NewDonationRegistry(store, rec, zerolog.Nop()).WithClock(clock)
	requests := NewRequestRegistry(store, rec, zerolog.Nop()).WithClock(clock)
	interests := NewInterestRegistry(store, rec, zerolog.Nop()).WithClock(clock)
	return store, rec, donations, requests, interests
}

func submit(t *testing.T, reg *Registry, owner string) *domain.Listing {
	t.Helper()
	l, err := reg.Submit(context.Background(), domain.NewListing{
		OwnerID: owner, ItemName: "  rice ", Category: "food", Quantity: 3,
		Attachments: []string{"doc-1", " "},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return l
}

func TestSubmitValidatesAndNormalises(t *testing.T) {
	_, _, donations, _, _ := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   domain.NewListing
	}{
		{"missing owner", domain.NewListing{ItemName: "x", Category: "c", Quantity: 1}},
		{"missing item", domain.NewListing{OwnerID: "u", Category: "c", Quantity: 1}},
		{"missing category", domain.NewListing{OwnerID: "u", ItemName: "x", Quantity: 1}},
		{"zero quantity", domain.NewListing{OwnerID: "u", ItemName: "x", Category: "c"}},
	}
	for _, tc := range cases {
		if _, err := donations.Submit(ctx, tc.in); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("%s: expected invalid argument, got %v", tc.name, err)
		}
	}

	l := submit(t, donations, "donor")
	if l.Status != domain.ListingPending || l.Kind != domain.KindDonation {
		t.Fatalf("unexpected listing %+v", l)
	}
	if l.ItemName != "rice" || len(l.Attachments) != 1 {
		t.Fatalf("listing not normalised: %+v", l)
	}
	if !l.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected injected clock, got %v", l.CreatedAt)
	}
}

func TestApproveAndRejectTransitions(t *testing.T) {
	_, rec, donations, requests, _ := newFixture()
	ctx := context.Background()

	d := submit(t, donations, "donor")
	approved, err := donations.Approve(ctx, d.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.ListingApproved || approved.ApprovedAt == nil {
		t.Fatalf("unexpected approved listing %+v", approved)
	}
	if _, err := donations.Approve(ctx, d.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second approve should be invalid transition, got %v", err)
	}
	if _, err := donations.Reject(ctx, d.ID, "late"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("reject after approve should be invalid transition, got %v", err)
	}

	r := submit(t, requests, "receiver")
	rejected, err := requests.Reject(ctx, r.ID, "  duplicate request ")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.ListingRejected || rejected.RejectReason != "duplicate request" {
		t.Fatalf("unexpected rejected listing %+v", rejected)
	}

	if _, err := donations.Approve(ctx, r.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("request id on donation registry should be not found, got %v", err)
	}

	got := rec.types()
	want := []domain.EventType{domain.EventDonationApproved, domain.EventRequestRejected}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if reason := rec.events[1].Data["reason"]; reason != "duplicate request" {
		t.Fatalf("reject event should carry reason, got %v", reason)
	}
}

func TestDecisionIsWrittenToOutbox(t *testing.T) {
	store, rec, donations, _, _ := newFixture()
	ctx := context.Background()
	d := submit(t, donations, "donor")
	if _, err := donations.Approve(ctx, d.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	ev := rec.events[0]
	err := store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		entry, err := tx.Outbox().Get(ctx, ev.ID)
		if err != nil {
			return err
		}
		if entry.Status != domain.OutboxPending {
			t.Errorf("outbox entry should stay pending until dispatched, got %s", entry.Status)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outbox lookup: %v", err)
	}
}

func TestBulkApproveReportsPartialFailure(t *testing.T) {
	_, _, donations, _, _ := newFixture()
	ctx := context.Background()
	a := submit(t, donations, "u1")
	b := submit(t, donations, "u2")
	if _, err := donations.Reject(ctx, b.ID, ""); err != nil {
		t.Fatalf("reject: %v", err)
	}

	results := donations.BulkApprove(ctx, []string{a.ID, b.ID, "missing"})
	if len(results) != 3 {
		t.Fatalf("expected three results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Value.Status != domain.ListingApproved {
		t.Fatalf("first item should succeed: %+v", results[0])
	}
	if !errors.Is(results[1].Err, domain.ErrInvalidTransition) {
		t.Fatalf("rejected item should fail with invalid transition, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, domain.ErrNotFound) {
		t.Fatalf("missing item should fail with not found, got %v", results[2].Err)
	}
	if failed := Failed(results); len(failed) != 2 {
		t.Fatalf("expected two failures, got %d", len(failed))
	}
}

func TestCountsIncludeEveryStatus(t *testing.T) {
	_, _, donations, _, _ := newFixture()
	ctx := context.Background()
	a := submit(t, donations, "u1")
	submit(t, donations, "u2")
	if _, err := donations.Approve(ctx, a.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	counts, err := donations.CountsByStatus(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != len(domain.ListingStatuses) {
		t.Fatalf("expected every status, got %v", counts)
	}
	if counts[domain.ListingPending] != 1 || counts[domain.ListingApproved] != 1 || counts[domain.ListingCompleted] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestMatchDrivenTransitionsRequireOrder(t *testing.T) {
	store, _, donations, _, _ := newFixture()
	ctx := context.Background()
	d := submit(t, donations, "u1")

	err := store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		_, err := donations.MarkMatched(ctx, tx, d.ID)
		return err
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("pending listing cannot be matched, got %v", err)
	}

	if _, err := donations.Approve(ctx, d.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	err = store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := donations.MarkExecuted(ctx, tx, d.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("approved listing cannot skip to executed, got %v", err)
		}
		if _, err := donations.MarkMatched(ctx, tx, d.ID); err != nil {
			return err
		}
		if _, err := donations.MarkExecuted(ctx, tx, d.ID); err != nil {
			return err
		}
		_, err := donations.MarkCompleted(ctx, tx, d.ID)
		return err
	})
	if err != nil {
		t.Fatalf("ordered transitions: %v", err)
	}
	got, err := donations.Get(ctx, d.ID)
	if err != nil || got.Status != domain.ListingCompleted {
		t.Fatalf("expected completed listing, got %+v (%v)", got, err)
	}
}

func TestListByOwnerAndStatus(t *testing.T) {
	_, _, donations, requests, _ := newFixture()
	ctx := context.Background()
	submit(t, donations, "u1")
	submit(t, donations, "u1")
	submit(t, donations, "u2")
	submit(t, requests, "u1")

	mine, err := donations.ListByOwner(ctx, "u1")
	if err != nil || len(mine) != 2 {
		t.Fatalf("expected two donations for u1, got %d (%v)", len(mine), err)
	}
	pending, err := requests.ListByStatus(ctx, domain.ListingPending)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending request, got %d (%v)", len(pending), err)
	}
}
