package handlers

import (
	"time"

	"charitymatch/internal/domain"
)

type listingResponse struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	OwnerID      string     `json:"owner_id"`
	ItemName     string     `json:"item_name"`
	Category     string     `json:"category"`
	Quantity     int        `json:"quantity"`
	Description  string     `json:"description,omitempty"`
	Attachments  []string   `json:"attachments,omitempty"`
	Status       string     `json:"status"`
	RejectReason string     `json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
}

func listingView(l *domain.Listing) any {
	return listingResponse{
		ID:           l.ID,
		Kind:         string(l.Kind),
		OwnerID:      l.OwnerID,
		ItemName:     l.ItemName,
		Category:     l.Category,
		Quantity:     l.Quantity,
		Description:  l.Description,
		Attachments:  l.Attachments,
		Status:       string(l.Status),
		RejectReason: l.RejectReason,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		ApprovedAt:   l.ApprovedAt,
	}
}

type interestResponse struct {
	ID           string    `json:"id"`
	DonorID      string    `json:"donor_id"`
	RequestID    string    `json:"request_id"`
	Note         string    `json:"note,omitempty"`
	Status       string    `json:"status"`
	RejectReason string    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func interestView(i *domain.Interest) any {
	return interestResponse{
		ID:           i.ID,
		DonorID:      i.DonorID,
		RequestID:    i.RequestID,
		Note:         i.Note,
		Status:       string(i.Status),
		RejectReason: i.RejectReason,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

type matchResponse struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	SupplyKind  string     `json:"supply_kind"`
	DonationID  string     `json:"donation_id,omitempty"`
	InterestID  string     `json:"interest_id,omitempty"`
	RequestID   string     `json:"request_id"`
	DonorID     string     `json:"donor_id"`
	ReceiverID  string     `json:"receiver_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExecutedAt  *time.Time `json:"executed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func matchView(m *domain.Match) any {
	return matchResponse{
		ID:          m.ID,
		Type:        string(m.Type),
		SupplyKind:  string(m.Supply.Kind),
		DonationID:  m.Supply.DonationID(),
		InterestID:  m.Supply.InterestID(),
		RequestID:   m.RequestID,
		DonorID:     m.DonorID,
		ReceiverID:  m.ReceiverID,
		Status:      string(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ExecutedAt:  m.ExecutedAt,
		CompletedAt: m.CompletedAt,
	}
}

type notificationResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func notificationView(n *domain.Notification) any {
	return notificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Payload:   n.Payload,
		Read:      n.ReadAt != nil,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

type feedbackResponse struct {
	ID            string     `json:"id"`
	MatchID       string     `json:"match_id"`
	AuthorID      string     `json:"author_id,omitempty"`
	Role          string     `json:"role"`
	Rating        int        `json:"rating"`
	Category      string     `json:"category"`
	Comment       string     `json:"comment,omitempty"`
	Anonymous     bool       `json:"anonymous"`
	Status        string     `json:"status"`
	AdminResponse string     `json:"admin_response,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
}

func feedbackView(f *domain.Feedback) any {
	return feedbackResponse{
		ID:            f.ID,
		MatchID:       f.MatchID,
		AuthorID:      f.AuthorID,
		Role:          string(f.Role),
		Rating:        f.Rating,
		Category:      f.Category,
		Comment:       f.Comment,
		Anonymous:     f.Anonymous,
		Status:        string(f.Status),
		AdminResponse: f.AdminResponse,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
		RespondedAt:   f.RespondedAt,
	}
}

func listView[T any](items []T, view func(*T) any) []any {
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, view(&items[i]))
	}
	return out
}

func countsView[K ~string](counts map[K]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[string(k)] = v
	}
	return out
}
