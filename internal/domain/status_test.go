package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestListingTransitions(t *testing.T) {
	cases := []struct {
		from, to ListingStatus
		want     bool
	}{
		{ListingPending, ListingApproved, true},
		{ListingPending, ListingRejected, true},
		{ListingPending, ListingMatched, false},
		{ListingApproved, ListingMatched, true},
		{ListingApproved, ListingRejected, false},
		{ListingMatched, ListingExecuted, true},
		{ListingMatched, ListingCompleted, false},
		{ListingExecuted, ListingCompleted, true},
		{ListingRejected, ListingApproved, false},
		{ListingCompleted, ListingPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestListingBound(t *testing.T) {
	for _, s := range ListingStatuses {
		want := s == ListingMatched || s == ListingExecuted || s == ListingCompleted
		if s.Bound() != want {
			t.Fatalf("%s.Bound() = %v", s, s.Bound())
		}
	}
}

func TestMatchStatusNext(t *testing.T) {
	if next, ok := MatchApproved.Next(); !ok || next != MatchExecuted {
		t.Fatalf("approved -> %s %v", next, ok)
	}
	if next, ok := MatchExecuted.Next(); !ok || next != MatchCompleted {
		t.Fatalf("executed -> %s %v", next, ok)
	}
	if _, ok := MatchCompleted.Next(); ok {
		t.Fatalf("completed must be terminal")
	}
	if MatchCompleted.Active() || !MatchExecuted.Active() {
		t.Fatalf("unexpected Active results")
	}
}

func TestModerationTransitions(t *testing.T) {
	if !ModerationPending.CanTransition(ModerationFeatured) {
		t.Fatalf("pending feedback may be featured directly")
	}
	if ModerationRejected.CanTransition(ModerationFeatured) {
		t.Fatalf("rejected feedback must be approved before featuring")
	}
	for _, s := range ModerationStatuses {
		if s.CanTransition(ModerationPending) {
			t.Fatalf("%s must not return to pending", s)
		}
	}
	if !ModerationFeatured.Published() || ModerationPending.Published() {
		t.Fatalf("unexpected Published results")
	}
}

func TestParseStatuses(t *testing.T) {
	if s, err := ParseListingStatus("executed"); err != nil || s != ListingExecuted {
		t.Fatalf("parse listing: %v %v", s, err)
	}
	if _, err := ParseListingStatus("archived"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown listing status should be invalid argument, got %v", err)
	}
	if _, err := ParseInterestStatus("nope"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown interest status should be invalid argument, got %v", err)
	}
	if _, err := ParseMatchStatus("rejected"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("matches have no rejected state, got %v", err)
	}
	if s, err := ParseModerationStatus("featured"); err != nil || s != ModerationFeatured {
		t.Fatalf("parse moderation: %v %v", s, err)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{fmt.Errorf("%w: donation d1", ErrNotFound), KindNotFound},
		{fmt.Errorf("outer: %w", fmt.Errorf("%w: x", ErrAlreadyMatched)), KindAlreadyMatched},
		{ErrConflict, KindConflict},
		{ErrStale, KindInternal},
		{errors.New("disk full"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestNewEventDeduplicatesRecipients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ev := NewEvent(EventMatchCreated, "match", "m1", now, nil, "a", "", "b", "a")
	if len(ev.Recipients) != 2 || ev.Recipients[0] != "a" || ev.Recipients[1] != "b" {
		t.Fatalf("unexpected recipients %v", ev.Recipients)
	}
	if ev.ID == "" || ev.Data == nil || !ev.OccurredAt.Equal(now) {
		t.Fatalf("event not stamped: %+v", ev)
	}
	if other := NewEvent(EventMatchCreated, "match", "m1", now, nil); other.ID == ev.ID {
		t.Fatalf("event ids must be unique")
	}
}

func TestMatchRoles(t *testing.T) {
	m := &Match{DonorID: "d", ReceiverID: "r"}
	if role, ok := m.RoleOf("d"); !ok || role != RoleDonor {
		t.Fatalf("donor role: %s %v", role, ok)
	}
	if role, ok := m.RoleOf("r"); !ok || role != RoleReceiver {
		t.Fatalf("receiver role: %s %v", role, ok)
	}
	if _, ok := m.RoleOf(""); ok {
		t.Fatalf("blank user must not be a participant")
	}
	if m.Participant("x") || !m.Participant("r") {
		t.Fatalf("unexpected Participant results")
	}
	if s := InterestSupply("i1"); s.DonationID() != "" || s.InterestID() != "i1" {
		t.Fatalf("unexpected supply accessors %+v", s)
	}
}

func TestRetryDelayIsLinear(t *testing.T) {
	if RetryDelay(1) != 5*time.Second || RetryDelay(3) != 15*time.Second {
		t.Fatalf("unexpected delays %v %v", RetryDelay(1), RetryDelay(3))
	}
}
