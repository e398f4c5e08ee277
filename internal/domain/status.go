package domain

import "fmt"

// ListingStatus enumerates the lifecycle of donations and requests.
type ListingStatus string

const (
	ListingPending   ListingStatus = "pending"
	ListingApproved  ListingStatus = "approved"
	ListingRejected  ListingStatus = "rejected"
	ListingMatched   ListingStatus = "matched"
	ListingExecuted  ListingStatus = "executed"
	ListingCompleted ListingStatus = "completed"
)

// ListingStatuses lists every listing status in lifecycle order.
var ListingStatuses = []ListingStatus{
	ListingPending,
	ListingApproved,
	ListingRejected,
	ListingMatched,
	ListingExecuted,
	ListingCompleted,
}

// listingTransitions holds the only legal moves; anything else is rejected.
var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingPending:  {ListingApproved, ListingRejected},
	ListingApproved: {ListingMatched},
	ListingMatched:  {ListingExecuted},
	ListingExecuted: {ListingCompleted},
}

// CanTransition reports whether a listing may move from s to next.
func (s ListingStatus) CanTransition(next ListingStatus) bool {
	for _, allowed := range listingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Bound reports whether the listing is held by an active or finished match.
func (s ListingStatus) Bound() bool {
	return s == ListingMatched || s == ListingExecuted || s == ListingCompleted
}

// ParseListingStatus validates a client supplied status filter.
func ParseListingStatus(v string) (ListingStatus, error) {
	for _, s := range ListingStatuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown listing status %q", ErrInvalidArgument, v)
}

// InterestStatus enumerates the approval pipeline of an interest.
type InterestStatus string

const (
	InterestPending  InterestStatus = "pending"
	InterestApproved InterestStatus = "approved"
	InterestRejected InterestStatus = "rejected"
)

var InterestStatuses = []InterestStatus{InterestPending, InterestApproved, InterestRejected}

// Active reports whether the interest still blocks a duplicate expression.
func (s InterestStatus) Active() bool {
	return s == InterestPending || s == InterestApproved
}

func ParseInterestStatus(v string) (InterestStatus, error) {
	for _, s := range InterestStatuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown interest status %q", ErrInvalidArgument, v)
}

// MatchStatus enumerates the linear match state machine.
type MatchStatus string

const (
	MatchApproved  MatchStatus = "approved"
	MatchExecuted  MatchStatus = "executed"
	MatchCompleted MatchStatus = "completed"
)

var MatchStatuses = []MatchStatus{MatchApproved, MatchExecuted, MatchCompleted}

// Active reports whether the match still holds its supply and request exclusively.
func (s MatchStatus) Active() bool {
	return s == MatchApproved || s == MatchExecuted
}

// Next returns the single successor state, or false at the end of the line.
func (s MatchStatus) Next() (MatchStatus, bool) {
	switch s {
	case MatchApproved:
		return MatchExecuted, true
	case MatchExecuted:
		return MatchCompleted, true
	}
	return "", false
}

func ParseMatchStatus(v string) (MatchStatus, error) {
	for _, s := range MatchStatuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown match status %q", ErrInvalidArgument, v)
}

// ModerationStatus enumerates admin review states of feedback.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
	ModerationFeatured ModerationStatus = "featured"
)

var ModerationStatuses = []ModerationStatus{ModerationPending, ModerationApproved, ModerationRejected, ModerationFeatured}

var moderationTransitions = map[ModerationStatus][]ModerationStatus{
	ModerationPending:  {ModerationApproved, ModerationRejected, ModerationFeatured},
	ModerationApproved: {ModerationRejected, ModerationFeatured},
	ModerationRejected: {ModerationApproved},
	ModerationFeatured: {ModerationApproved, ModerationRejected},
}

// CanTransition reports whether an admin may move feedback from s to next.
func (s ModerationStatus) CanTransition(next ModerationStatus) bool {
	for _, allowed := range moderationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Published reports whether the feedback is visible on public listings.
func (s ModerationStatus) Published() bool {
	return s == ModerationApproved || s == ModerationFeatured
}

func ParseModerationStatus(v string) (ModerationStatus, error) {
	for _, s := range ModerationStatuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown moderation status %q", ErrInvalidArgument, v)
}
