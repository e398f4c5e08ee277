package notify

import (
	"context"
	"fmt"

	"charitymatch/internal/domain"
)

const maxPageSize = 100

func (d *Dispatcher) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	var out []domain.Notification
	err := d.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Notifications().ListForUser(ctx, userID, unreadOnly, limit, offset)
		return err
	})
	return out, err
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		n, err = tx.Notifications().CountUnread(ctx, userID)
		return err
	})
	return n, err
}

// MarkRead sets read_at on a notification owned by userID. Already read
// notifications keep their original timestamp.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	var out *domain.Notification
	err := d.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		n, err := owned(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Notifications().MarkRead(ctx, id, d.now()); err != nil {
			return err
		}
		out, err = tx.Notifications().Get(ctx, n.ID)
		return err
	})
	return out, err
}

func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		n, err = tx.Notifications().MarkAllRead(ctx, userID, d.now())
		return err
	})
	return n, err
}

func (d *Dispatcher) Delete(ctx context.Context, userID, id string) error {
	return d.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := owned(ctx, tx, userID, id); err != nil {
			return err
		}
		return tx.Notifications().Delete(ctx, id)
	})
}

// ClearAll deletes every notification of userID.
func (d *Dispatcher) ClearAll(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.store.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		n, err = tx.Notifications().DeleteAllForUser(ctx, userID)
		return err
	})
	return n, err
}

func owned(ctx context.Context, tx domain.Tx, userID, id string) (*domain.Notification, error) {
	n, err := tx.Notifications().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("%w: notification %s belongs to another user", domain.ErrForbidden, id)
	}
	return n, nil
}
