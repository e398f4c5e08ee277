package handlers

import (
	"net/http"
)

func (a *App) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	items, err := a.Notifications.List(r.Context(), caller.UserID, queryBool(r, "unread"), limit, offset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": listView(items, notificationView)})
}

func (a *App) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	n, err := a.Notifications.UnreadCount(r.Context(), caller.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"unread": n})
}

func (a *App) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	n, err := a.Notifications.MarkRead(r.Context(), caller.UserID, pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, notificationView(n))
}

func (a *App) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	n, err := a.Notifications.MarkAllRead(r.Context(), caller.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"updated": n})
}

func (a *App) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if err := a.Notifications.Delete(r.Context(), caller.UserID, pathID(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	n, err := a.Notifications.ClearAll(r.Context(), caller.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"deleted": n})
}

// ReplayEvent resets a failed outbox event for redelivery.
func (a *App) ReplayEvent(w http.ResponseWriter, r *http.Request) {
	if err := a.Relay.Replay(r.Context(), pathID(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *App) ReplayFailedEvents(w http.ResponseWriter, r *http.Request) {
	n, err := a.Relay.ReplayFailed(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]int{"replayed": n})
}
