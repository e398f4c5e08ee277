package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/sqlinline"
)

type OutboxRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r OutboxRepositoryPG) Append(ctx context.Context, ev domain.Event) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertOutbox,
		ev.ID, string(ev.Type), ev.SubjectKind, ev.SubjectID, ev.Recipients, ev.Data, ev.OccurredAt)
	return err
}

func (r OutboxRepositoryPG) Get(ctx context.Context, eventID string) (*domain.OutboxEntry, error) {
	if malformedID(eventID) {
		return nil, missing("event %s", eventID)
	}
	e, err := scanOutbox(r.sql.QueryRow(ctx, sqlinline.QSelectOutbox, eventID))
	if err != nil {
		return nil, notFound(err, "event %s", eventID)
	}
	return &e, nil
}

func (r OutboxRepositoryPG) Pending(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPendingOutbox, now, unlimited(limit))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanOutboxRows)
}

// MarkSent is a no-op for unknown events so fan-out of events that were never
// appended still succeeds.
func (r OutboxRepositoryPG) MarkSent(ctx context.Context, eventID string, at time.Time) error {
	if malformedID(eventID) {
		return nil
	}
	_, err := r.sql.Exec(ctx, sqlinline.QMarkOutboxSent, eventID, at)
	return err
}

func (r OutboxRepositoryPG) MarkFailed(ctx context.Context, eventID string, maxRetries int, now time.Time) error {
	if malformedID(eventID) {
		return missing("event %s", eventID)
	}
	step := int(domain.RetryDelay(1) / time.Second)
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkOutboxFailed, eventID, maxRetries, now, step)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "event %s", eventID)
	}
	return nil
}

func (r OutboxRepositoryPG) ListFailed(ctx context.Context, limit int) ([]domain.OutboxEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListFailedOutbox, unlimited(limit))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanOutboxRows)
}

func (r OutboxRepositoryPG) Replay(ctx context.Context, eventID string, now time.Time) error {
	if malformedID(eventID) {
		return missing("event %s", eventID)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QReplayOutbox, eventID, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "event %s", eventID)
	}
	return nil
}

func scanOutbox(row pgx.Row) (domain.OutboxEntry, error) {
	var (
		e              domain.OutboxEntry
		evType, status string
	)
	err := row.Scan(&e.Event.ID, &evType, &e.Event.SubjectKind, &e.Event.SubjectID, &e.Event.Recipients,
		&e.Event.Data, &e.Event.OccurredAt, &status, &e.RetryCount, &e.NextRetryAt, &e.UpdatedAt)
	if err != nil {
		return domain.OutboxEntry{}, err
	}
	e.Event.Type = domain.EventType(evType)
	e.Status = domain.OutboxStatus(status)
	return e, nil
}

func scanOutboxRows(rows pgx.Rows) (domain.OutboxEntry, error) {
	return scanOutbox(rows)
}
