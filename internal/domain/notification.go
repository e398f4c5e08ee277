package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a lifecycle change; it doubles as the notification type.
type EventType string

const (
	EventDonationApproved  EventType = "donation_approved"
	EventDonationRejected  EventType = "donation_rejected"
	EventRequestApproved   EventType = "request_approved"
	EventRequestRejected   EventType = "request_rejected"
	EventInterestExpressed EventType = "interest_expressed"
	EventInterestApproved  EventType = "interest_approved"
	EventInterestRejected  EventType = "interest_rejected"
	EventMatchCreated      EventType = "match_created"
	EventMatchExecuted     EventType = "match_executed"
	EventMatchCompleted    EventType = "match_completed"
	EventFeedbackResponded EventType = "feedback_responded"
)

// Event is emitted after a successful state change. Recipients receive one
// notification each; Data is merged into every notification payload.
type Event struct {
	ID          string
	Type        EventType
	SubjectKind string
	SubjectID   string
	Recipients  []string
	Data        map[string]any
	OccurredAt  time.Time
}

// NewEvent stamps a fresh event id. Recipients are de-duplicated and blanks dropped.
func NewEvent(t EventType, subjectKind, subjectID string, now time.Time, data map[string]any, recipients ...string) Event {
	seen := make(map[string]struct{}, len(recipients))
	var uniq []string
	for _, r := range recipients {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		uniq = append(uniq, r)
	}
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		SubjectKind: subjectKind,
		SubjectID:   subjectID,
		Recipients:  uniq,
		Data:        data,
		OccurredAt:  now,
	}
}

// Notification is a per-user record of an event. Payload is immutable after creation.
type Notification struct {
	ID        string
	EventID   string
	UserID    string
	Type      EventType
	Payload   map[string]any
	ReadAt    *time.Time
	CreatedAt time.Time
}

// OutboxStatus tracks delivery of an event to the notification dispatcher.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEntry is an event persisted in the same transaction as its trigger.
type OutboxEntry struct {
	Event       Event
	Status      OutboxStatus
	RetryCount  int
	NextRetryAt *time.Time
	UpdatedAt   time.Time
}
