package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/sqlinline"
)

type InterestRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r InterestRepositoryPG) Create(ctx context.Context, i *domain.Interest) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertInterest,
		i.ID, i.DonorID, i.RequestID, i.Note, string(i.Status), i.RejectReason, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return mapUnique(err, "donor "+i.DonorID+" already expressed interest in request "+i.RequestID)
	}
	return nil
}

func (r InterestRepositoryPG) Get(ctx context.Context, id string) (*domain.Interest, error) {
	if malformedID(id) {
		return nil, missing("interest %s", id)
	}
	i, err := scanInterest(r.sql.QueryRow(ctx, sqlinline.QSelectInterest, id))
	if err != nil {
		return nil, notFound(err, "interest %s", id)
	}
	return &i, nil
}

func (r InterestRepositoryPG) FindActive(ctx context.Context, donorID, requestID string) (*domain.Interest, error) {
	if malformedID(requestID) {
		return nil, missing("no active interest")
	}
	i, err := scanInterest(r.sql.QueryRow(ctx, sqlinline.QSelectActiveInterest, donorID, requestID))
	if err != nil {
		return nil, notFound(err, "no active interest")
	}
	return &i, nil
}

func (r InterestRepositoryPG) SetStatus(ctx context.Context, i *domain.Interest, from domain.InterestStatus) error {
	if malformedID(i.ID) {
		return missing("interest %s", i.ID)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateInterestStatus,
		i.ID, string(i.Status), i.RejectReason, i.UpdatedAt, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return staleOrMissing(ctx, r.sql, sqlinline.QInterestExists, "interest "+i.ID, i.ID)
	}
	return nil
}

func (r InterestRepositoryPG) ListByStatus(ctx context.Context, status domain.InterestStatus) ([]domain.Interest, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListInterestsByStatus, string(status))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanInterestRows)
}

func (r InterestRepositoryPG) ListForRequest(ctx context.Context, requestID string) ([]domain.Interest, error) {
	if malformedID(requestID) {
		return []domain.Interest{}, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListInterestsForRequest, requestID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanInterestRows)
}

func (r InterestRepositoryPG) CountByStatus(ctx context.Context) (map[domain.InterestStatus]int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountInterestsByStatus)
	if err != nil {
		return nil, err
	}
	return countRows[domain.InterestStatus](rows)
}

func scanInterest(row pgx.Row) (domain.Interest, error) {
	var (
		i      domain.Interest
		status string
	)
	if err := row.Scan(&i.ID, &i.DonorID, &i.RequestID, &i.Note, &status, &i.RejectReason, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return domain.Interest{}, err
	}
	i.Status = domain.InterestStatus(status)
	return i, nil
}

func scanInterestRows(rows pgx.Rows) (domain.Interest, error) {
	return scanInterest(rows)
}
