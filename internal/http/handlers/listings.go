package handlers

import (
	"fmt"
	"net/http"

	"charitymatch/internal/domain"
	"charitymatch/internal/lifecycle"
)

type listingRequest struct {
	ItemName    string   `json:"item_name"`
	Category    string   `json:"category"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description"`
	Attachments []string `json:"attachments"`
}

// SubmitListing creates a pending donation or request owned by the caller.
func (a *App) SubmitListing(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := a.caller(w, r)
		if !ok {
			return
		}
		var req listingRequest
		if !a.decode(w, r, &req) {
			return
		}
		l, err := reg.Submit(r.Context(), domain.NewListing{
			OwnerID:     caller.UserID,
			ItemName:    req.ItemName,
			Category:    req.Category,
			Quantity:    req.Quantity,
			Description: req.Description,
			Attachments: req.Attachments,
		})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusCreated, listingView(l))
	}
}

// GetListing returns a listing to its owner or an admin.
func (a *App) GetListing(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := a.caller(w, r)
		if !ok {
			return
		}
		l, err := reg.Get(r.Context(), pathID(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if !caller.IsAdmin() && l.OwnerID != caller.UserID {
			a.fail(w, r, fmt.Errorf("%w: %s belongs to another user", domain.ErrForbidden, l.Kind))
			return
		}
		a.json(w, http.StatusOK, listingView(l))
	}
}

func (a *App) ListMyListings(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := a.caller(w, r)
		if !ok {
			return
		}
		items, err := reg.ListByOwner(r.Context(), caller.UserID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"items": listView(items, listingView)})
	}
}

// ListListings filters by ?status=, defaulting to pending for the review queue.
func (a *App) ListListings(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.ListingPending
		if v := r.URL.Query().Get("status"); v != "" {
			parsed, err := domain.ParseListingStatus(v)
			if err != nil {
				a.fail(w, r, err)
				return
			}
			status = parsed
		}
		items, err := reg.ListByStatus(r.Context(), status)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"items": listView(items, listingView)})
	}
}

func (a *App) ListingCounts(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := reg.CountsByStatus(r.Context())
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"counts": countsView(counts)})
	}
}

func (a *App) ApproveListing(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := reg.Approve(r.Context(), pathID(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusOK, listingView(l))
	}
}

func (a *App) RejectListing(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reasonRequest
		if !a.decode(w, r, &req) {
			return
		}
		l, err := reg.Reject(r.Context(), pathID(r), req.Reason)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusOK, listingView(l))
	}
}

func (a *App) BulkApproveListings(reg *lifecycle.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if !a.decode(w, r, &req) {
			return
		}
		if len(req.IDs) == 0 {
			a.error(w, http.StatusBadRequest, string(domain.KindInvalidArgument), "ids required")
			return
		}
		results := reg.BulkApprove(r.Context(), req.IDs)
		a.json(w, http.StatusOK, map[string]any{
			"results": bulkView(results, listingView),
			"failed":  len(lifecycle.Failed(results)),
		})
	}
}
