package domain

import "time"

// ListingKind distinguishes supply-side donations from demand-side requests.
// Both share one shape and one lifecycle.
type ListingKind string

const (
	KindDonation ListingKind = "donation"
	KindRequest  ListingKind = "request"
)

// Listing is a donation offered by a donor or a request posted by a receiver.
type Listing struct {
	ID           string
	Kind         ListingKind
	OwnerID      string
	ItemName     string
	Category     string
	Quantity     int
	Description  string
	Attachments  []string // opaque identity-document references
	Status       ListingStatus
	RejectReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ApprovedAt   *time.Time
}

// NewListing carries the owner supplied fields of a submission.
type NewListing struct {
	OwnerID     string
	ItemName    string
	Category    string
	Quantity    int
	Description string
	Attachments []string
}
