package domain

import "time"

// Interest records a donor volunteering to fulfil one approved request.
type Interest struct {
	ID           string
	DonorID      string
	RequestID    string
	Note         string
	Status       InterestStatus
	RejectReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
