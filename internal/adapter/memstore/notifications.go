package memstore

import (
	"context"
	"fmt"
	"time"

	"charitymatch/internal/domain"
)

type notifications struct{ st *state }

func eventKey(eventID, userID string) string { return eventID + "|" + userID }

func (r notifications) Insert(_ context.Context, n *domain.Notification) (bool, error) {
	key := eventKey(n.EventID, n.UserID)
	if _, ok := r.st.notifByEvent[key]; ok {
		return false, nil
	}
	r.st.writeNotifications()[n.ID] = *n
	r.st.writeNotifByEvent()[key] = n.ID
	r.st.track(n.ID)
	return true, nil
}

func (r notifications) Get(_ context.Context, id string) (*domain.Notification, error) {
	n, ok := r.st.notifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
	}
	return &n, nil
}

func (r notifications) ListForUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	var ids []string
	for id, n := range r.st.notifications {
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		ids = append(ids, id)
	}
	r.st.newestFirst(ids)
	if offset >= len(ids) {
		return []domain.Notification{}, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]domain.Notification, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.st.notifications[id])
	}
	return out, nil
}

func (r notifications) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range r.st.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (r notifications) MarkRead(_ context.Context, id string, at time.Time) error {
	n, ok := r.st.notifications[id]
	if !ok {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		r.st.writeNotifications()[id] = n
	}
	return nil
}

func (r notifications) MarkAllRead(_ context.Context, userID string, at time.Time) (int, error) {
	count := 0
	for id, n := range r.st.notifications {
		if n.UserID != userID || n.ReadAt != nil {
			continue
		}
		n.ReadAt = &at
		r.st.writeNotifications()[id] = n
		count++
	}
	return count, nil
}

func (r notifications) Delete(_ context.Context, id string) error {
	n, ok := r.st.notifications[id]
	if !ok {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
	}
	delete(r.st.writeNotifications(), id)
	delete(r.st.writeNotifByEvent(), eventKey(n.EventID, n.UserID))
	return nil
}

func (r notifications) DeleteAllForUser(_ context.Context, userID string) (int, error) {
	count := 0
	for id, n := range r.st.notifications {
		if n.UserID != userID {
			continue
		}
		delete(r.st.writeNotifications(), id)
		delete(r.st.writeNotifByEvent(), eventKey(n.EventID, n.UserID))
		count++
	}
	return count, nil
}
