package handlers

import (
	"net/http"
)

// StatsSummary returns every status counter in one response for the admin dashboard.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donations, err := a.Donations.CountsByStatus(ctx)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	requests, err := a.Requests.CountsByStatus(ctx)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	interests, err := a.Interests.CountsByStatus(ctx)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	matches, err := a.Matches.CountsByStatus(ctx)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	fb, err := a.Feedback.CountsByStatus(ctx)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"donations": countsView(donations),
		"requests":  countsView(requests),
		"interests": countsView(interests),
		"matches":   countsView(matches),
		"feedback":  countsView(fb),
	})
}
