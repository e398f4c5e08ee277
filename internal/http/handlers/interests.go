package handlers

import (
	"fmt"
	"net/http"

	"charitymatch/internal/domain"
)

type expressRequest struct {
	Note string `json:"note"`
}

// ExpressInterest records the caller's offer to fulfil request {id}.
func (a *App) ExpressInterest(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req expressRequest
	if !a.decode(w, r, &req) {
		return
	}
	i, err := a.Interests.Express(r.Context(), caller.UserID, pathID(r), req.Note)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, interestView(i))
}

// ListRequestInterests is visible to the request owner and admins.
func (a *App) ListRequestInterests(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	requestID := pathID(r)
	if !caller.IsAdmin() {
		req, err := a.Requests.Get(r.Context(), requestID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if req.OwnerID != caller.UserID {
			a.fail(w, r, fmt.Errorf("%w: request belongs to another user", domain.ErrForbidden))
			return
		}
	}
	items, err := a.Interests.ListForRequest(r.Context(), requestID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, interestView)})
}

// GetInterest is visible to the donor, the request owner and admins.
func (a *App) GetInterest(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	i, err := a.Interests.Get(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !caller.IsAdmin() && i.DonorID != caller.UserID {
		req, err := a.Requests.Get(r.Context(), i.RequestID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if req.OwnerID != caller.UserID {
			a.fail(w, r, fmt.Errorf("%w: interest belongs to another user", domain.ErrForbidden))
			return
		}
	}
	a.json(w, http.StatusOK, interestView(i))
}

func (a *App) ListInterests(w http.ResponseWriter, r *http.Request) {
	status := domain.InterestPending
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := domain.ParseInterestStatus(v)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		status = parsed
	}
	items, err := a.Interests.ListByStatus(r.Context(), status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, interestView)})
}

func (a *App) InterestCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Interests.CountsByStatus(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"counts": countsView(counts)})
}

func (a *App) ApproveInterest(w http.ResponseWriter, r *http.Request) {
	i, err := a.Interests.Approve(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, interestView(i))
}

func (a *App) RejectInterest(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !a.decode(w, r, &req) {
		return
	}
	i, err := a.Interests.Reject(r.Context(), pathID(r), req.Reason)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, interestView(i))
}

func (a *App) BulkApproveInterests(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if !a.decode(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		a.error(w, http.StatusBadRequest, string(domain.KindInvalidArgument), "ids required")
		return
	}
	results := a.Interests.BulkApprove(r.Context(), req.IDs)
	a.json(w, http.StatusOK, map[string]any{"results": bulkView(results, interestView)})
}
