package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/sqlinline"
)

type FeedbackRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r FeedbackRepositoryPG) Create(ctx context.Context, f *domain.Feedback) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertFeedback,
		f.ID, f.MatchID, f.AuthorID, string(f.Role), f.Rating, f.Category, f.Comment, f.Anonymous,
		string(f.Status), f.AdminResponse, f.CreatedAt, f.UpdatedAt, f.RespondedAt)
	if err != nil {
		return mapUnique(err, "feedback for match "+f.MatchID+" by "+f.AuthorID+" exists")
	}
	return nil
}

func (r FeedbackRepositoryPG) Get(ctx context.Context, id string) (*domain.Feedback, error) {
	return r.get(ctx, sqlinline.QSelectFeedback, id)
}

// GetForUpdate locks the row until the transaction ends so moderation and
// author edits of the same feedback apply one after the other.
func (r FeedbackRepositoryPG) GetForUpdate(ctx context.Context, id string) (*domain.Feedback, error) {
	return r.get(ctx, sqlinline.QSelectFeedbackForUpdate, id)
}

func (r FeedbackRepositoryPG) get(ctx context.Context, query, id string) (*domain.Feedback, error) {
	if malformedID(id) {
		return nil, missing("feedback %s", id)
	}
	f, err := scanFeedback(r.sql.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "feedback %s", id)
	}
	return &f, nil
}

func (r FeedbackRepositoryPG) ListByAuthor(ctx context.Context, authorID string) ([]domain.Feedback, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListFeedbackByAuthor, authorID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanFeedbackRows)
}

func (r FeedbackRepositoryPG) ListByStatus(ctx context.Context, status domain.ModerationStatus, limit int) ([]domain.Feedback, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListFeedbackByStatus, string(status), unlimited(limit))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanFeedbackRows)
}

func (r FeedbackRepositoryPG) ListPublished(ctx context.Context, limit int) ([]domain.Feedback, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPublishedFeedback, unlimited(limit))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanFeedbackRows)
}

func (r FeedbackRepositoryPG) Update(ctx context.Context, f *domain.Feedback) error {
	if malformedID(f.ID) {
		return missing("feedback %s", f.ID)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateFeedback,
		f.ID, f.Rating, f.Category, f.Comment, f.Anonymous, string(f.Status), f.AdminResponse, f.UpdatedAt, f.RespondedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "feedback %s", f.ID)
	}
	return nil
}

func (r FeedbackRepositoryPG) Delete(ctx context.Context, id string) error {
	if malformedID(id) {
		return missing("feedback %s", id)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteFeedback, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "feedback %s", id)
	}
	return nil
}

func (r FeedbackRepositoryPG) CountByStatus(ctx context.Context) (map[domain.ModerationStatus]int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountFeedbackByStatus)
	if err != nil {
		return nil, err
	}
	return countRows[domain.ModerationStatus](rows)
}

// unlimited maps a non-positive limit to "all rows".
func unlimited(limit int) int {
	if limit <= 0 {
		return int(^uint32(0) >> 1)
	}
	return limit
}

func scanFeedback(row pgx.Row) (domain.Feedback, error) {
	var (
		f            domain.Feedback
		role, status string
	)
	err := row.Scan(&f.ID, &f.MatchID, &f.AuthorID, &role, &f.Rating, &f.Category, &f.Comment, &f.Anonymous,
		&status, &f.AdminResponse, &f.CreatedAt, &f.UpdatedAt, &f.RespondedAt)
	if err != nil {
		return domain.Feedback{}, err
	}
	f.Role = domain.FeedbackRole(role)
	f.Status = domain.ModerationStatus(status)
	return f, nil
}

func scanFeedbackRows(rows pgx.Rows) (domain.Feedback, error) {
	return scanFeedback(rows)
}
