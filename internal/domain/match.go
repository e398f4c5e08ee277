package domain

import "time"

// MatchType records how a match was created.
type MatchType string

const (
	MatchManual   MatchType = "manual"
	MatchInterest MatchType = "interest"
)

// SupplyKind names the entity on the supply side of a match.
type SupplyKind string

const (
	SupplyDonation SupplyKind = "donation"
	SupplyInterest SupplyKind = "interest"
)

// Supply references exactly one donation or one interest.
type Supply struct {
	Kind SupplyKind
	ID   string
}

func DonationSupply(id string) Supply { return Supply{Kind: SupplyDonation, ID: id} }

func InterestSupply(id string) Supply { return Supply{Kind: SupplyInterest, ID: id} }

// DonationID returns the bound donation id, or "" for interest matches.
func (s Supply) DonationID() string {
	if s.Kind == SupplyDonation {
		return s.ID
	}
	return ""
}

// InterestID returns the bound interest id, or "" for manual matches.
func (s Supply) InterestID() string {
	if s.Kind == SupplyInterest {
		return s.ID
	}
	return ""
}

// Match binds one supply entity to one request.
type Match struct {
	ID          string
	Type        MatchType
	Supply      Supply
	RequestID   string
	DonorID     string
	ReceiverID  string
	Status      MatchStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExecutedAt  *time.Time
	CompletedAt *time.Time
}

// Participant reports whether userID is the donor or the receiver of the match.
func (m *Match) Participant(userID string) bool {
	return userID != "" && (userID == m.DonorID || userID == m.ReceiverID)
}

// RoleOf returns the feedback role of a participant.
func (m *Match) RoleOf(userID string) (FeedbackRole, bool) {
	switch userID {
	case "":
		return "", false
	case m.DonorID:
		return RoleDonor, true
	case m.ReceiverID:
		return RoleReceiver, true
	}
	return "", false
}
