package domain

import "time"

// FeedbackRole is the side of the match the author was on.
type FeedbackRole string

const (
	RoleDonor    FeedbackRole = "donor"
	RoleReceiver FeedbackRole = "receiver"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is a participant's rating of a completed match.
type Feedback struct {
	ID            string
	MatchID       string
	AuthorID      string
	Role          FeedbackRole
	Rating        int
	Category      string
	Comment       string
	Anonymous     bool
	Status        ModerationStatus
	AdminResponse string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	RespondedAt   *time.Time
}
