package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/sqlinline"
)

type NotificationRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r NotificationRepositoryPG) Insert(ctx context.Context, n *domain.Notification) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertNotification,
		n.ID, n.EventID, n.UserID, string(n.Type), n.Payload, n.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r NotificationRepositoryPG) Get(ctx context.Context, id string) (*domain.Notification, error) {
	if malformedID(id) {
		return nil, missing("notification %s", id)
	}
	n, err := scanNotification(r.sql.QueryRow(ctx, sqlinline.QSelectNotification, id))
	if err != nil {
		return nil, notFound(err, "notification %s", id)
	}
	return &n, nil
}

func (r NotificationRepositoryPG) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListNotificationsForUser, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(rows pgx.Rows) (domain.Notification, error) { return scanNotification(rows) })
}

func (r NotificationRepositoryPG) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountUnreadNotifications, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r NotificationRepositoryPG) MarkRead(ctx context.Context, id string, at time.Time) error {
	if malformedID(id) {
		return missing("notification %s", id)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkNotificationRead, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "notification %s", id)
	}
	return nil
}

func (r NotificationRepositoryPG) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkAllNotificationsRead, userID, at)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r NotificationRepositoryPG) Delete(ctx context.Context, id string) error {
	if malformedID(id) {
		return missing("notification %s", id)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteNotification, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "notification %s", id)
	}
	return nil
}

func (r NotificationRepositoryPG) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteNotificationsForUser, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var (
		n     domain.Notification
		ntype string
	)
	if err := row.Scan(&n.ID, &n.EventID, &n.UserID, &ntype, &n.Payload, &n.ReadAt, &n.CreatedAt); err != nil {
		return domain.Notification{}, err
	}
	n.Type = domain.EventType(ntype)
	return n, nil
}
