package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"charitymatch/internal/domain"
)

type createMatchRequest struct {
	DonationID string `json:"donation_id"`
	RequestID  string `json:"request_id"`
	InterestID string `json:"interest_id"`
}

// CreateMatch binds either a donation to a request or an approved interest
// to its request, depending on which ids the body carries.
func (a *App) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !a.decode(w, r, &req) {
		return
	}
	req.DonationID = strings.TrimSpace(req.DonationID)
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.InterestID = strings.TrimSpace(req.InterestID)

	var (
		m   *domain.Match
		err error
	)
	switch {
	case req.InterestID != "" && req.DonationID == "":
		m, err = a.Matches.CreateInterestMatch(r.Context(), req.InterestID)
	case req.DonationID != "" && req.RequestID != "" && req.InterestID == "":
		m, err = a.Matches.CreateManualMatch(r.Context(), req.DonationID, req.RequestID)
	default:
		a.error(w, http.StatusBadRequest, string(domain.KindInvalidArgument),
			"provide either donation_id and request_id, or interest_id")
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, matchView(m))
}

func (a *App) ExecuteMatch(w http.ResponseWriter, r *http.Request) {
	m, err := a.Matches.AdvanceToExecuted(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, matchView(m))
}

func (a *App) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	m, err := a.Matches.AdvanceToCompleted(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, matchView(m))
}

// GetMatch is visible to participants and admins.
func (a *App) GetMatch(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	m, err := a.Matches.Get(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !caller.IsAdmin() && !m.Participant(caller.UserID) {
		a.fail(w, r, fmt.Errorf("%w: not a participant of match %s", domain.ErrForbidden, m.ID))
		return
	}
	a.json(w, http.StatusOK, matchView(m))
}

func (a *App) ListMyMatches(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	items, err := a.Matches.ListForUser(r.Context(), caller.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, matchView)})
}

func (a *App) ListMatches(w http.ResponseWriter, r *http.Request) {
	status := domain.MatchApproved
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := domain.ParseMatchStatus(v)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		status = parsed
	}
	items, err := a.Matches.ListByStatus(r.Context(), status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, matchView)})
}

func (a *App) MatchCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Matches.CountsByStatus(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"counts": countsView(counts)})
}
