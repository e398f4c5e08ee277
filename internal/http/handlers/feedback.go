package handlers

import (
	"context"
	"net/http"

	"charitymatch/internal/domain"
	"charitymatch/internal/feedback"
)

type feedbackRequest struct {
	Rating    int    `json:"rating"`
	Category  string `json:"category"`
	Comment   string `json:"comment"`
	Anonymous bool   `json:"anonymous"`
}

type feedbackPatchRequest struct {
	Rating    *int    `json:"rating"`
	Category  *string `json:"category"`
	Comment   *string `json:"comment"`
	Anonymous *bool   `json:"anonymous"`
}

type respondRequest struct {
	Response string `json:"response"`
}

func (a *App) EligibleFeedbackMatches(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	items, err := a.Feedback.EligibleMatches(r.Context(), caller.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, matchView)})
}

// SubmitFeedback records the caller's review of match {id}.
func (a *App) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !a.decode(w, r, &req) {
		return
	}
	f, err := a.Feedback.Submit(r.Context(), feedback.SubmitInput{
		MatchID:   pathID(r),
		UserID:    caller.UserID,
		Rating:    req.Rating,
		Category:  req.Category,
		Comment:   req.Comment,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, feedbackView(f))
}

func (a *App) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req feedbackPatchRequest
	if !a.decode(w, r, &req) {
		return
	}
	f, err := a.Feedback.Update(r.Context(), caller.UserID, pathID(r), feedback.Patch{
		Rating:    req.Rating,
		Category:  req.Category,
		Comment:   req.Comment,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, feedbackView(f))
}

func (a *App) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if err := a.Feedback.Delete(r.Context(), caller.UserID, pathID(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishedFeedback lists approved and featured feedback for public pages.
func (a *App) PublishedFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := a.Feedback.ListPublished(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, feedbackView)})
}

func (a *App) ListFeedback(w http.ResponseWriter, r *http.Request) {
	status := domain.ModerationPending
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := domain.ParseModerationStatus(v)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		status = parsed
	}
	items, err := a.Feedback.ListByStatus(r.Context(), status, queryInt(r, "limit", 0))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, feedbackView)})
}

func (a *App) FeedbackCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Feedback.CountsByStatus(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"counts": countsView(counts)})
}

func (a *App) ApproveFeedback(w http.ResponseWriter, r *http.Request) {
	a.moderate(w, r, a.Feedback.Approve)
}

func (a *App) RejectFeedback(w http.ResponseWriter, r *http.Request) {
	a.moderate(w, r, a.Feedback.Reject)
}

func (a *App) FeatureFeedback(w http.ResponseWriter, r *http.Request) {
	a.moderate(w, r, a.Feedback.Feature)
}

func (a *App) moderate(w http.ResponseWriter, r *http.Request, action func(context.Context, string) (*domain.Feedback, error)) {
	f, err := action(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, feedbackView(f))
}

func (a *App) RespondFeedback(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if !a.decode(w, r, &req) {
		return
	}
	f, err := a.Feedback.Respond(r.Context(), pathID(r), req.Response)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, feedbackView(f))
}

func (a *App) AdminDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	if err := a.Feedback.AdminDelete(r.Context(), pathID(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
