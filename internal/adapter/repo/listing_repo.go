package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/sqlinline"
)

// ListingRepositoryPG stores donations and requests in one table keyed by kind.
type ListingRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r ListingRepositoryPG) Create(ctx context.Context, l *domain.Listing) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertListing,
		l.ID, string(l.Kind), l.OwnerID, l.ItemName, l.Category, l.Quantity, l.Description,
		l.Attachments, string(l.Status), l.RejectReason, l.CreatedAt, l.UpdatedAt, l.ApprovedAt)
	if err != nil {
		return mapUnique(err, string(l.Kind)+" "+l.ID+" exists")
	}
	return nil
}

func (r ListingRepositoryPG) Get(ctx context.Context, kind domain.ListingKind, id string) (*domain.Listing, error) {
	if malformedID(id) {
		return nil, missing("%s %s", kind, id)
	}
	l, err := scanListing(r.sql.QueryRow(ctx, sqlinline.QSelectListing, id, string(kind)))
	if err != nil {
		return nil, notFound(err, "%s %s", kind, id)
	}
	return &l, nil
}

func (r ListingRepositoryPG) SetStatus(ctx context.Context, l *domain.Listing, from domain.ListingStatus) error {
	if malformedID(l.ID) {
		return missing("%s %s", l.Kind, l.ID)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateListingStatus,
		l.ID, string(l.Kind), string(l.Status), l.RejectReason, l.ApprovedAt, l.UpdatedAt, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return staleOrMissing(ctx, r.sql, sqlinline.QListingExists, string(l.Kind)+" "+l.ID, l.ID, string(l.Kind))
	}
	return nil
}

func (r ListingRepositoryPG) ListByStatus(ctx context.Context, kind domain.ListingKind, status domain.ListingStatus) ([]domain.Listing, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListListingsByStatus, string(kind), string(status))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanListingRows)
}

func (r ListingRepositoryPG) ListByOwner(ctx context.Context, kind domain.ListingKind, ownerID string) ([]domain.Listing, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListListingsByOwner, string(kind), ownerID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanListingRows)
}

func (r ListingRepositoryPG) CountByStatus(ctx context.Context, kind domain.ListingKind) (map[domain.ListingStatus]int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountListingsByStatus, string(kind))
	if err != nil {
		return nil, err
	}
	return countRows[domain.ListingStatus](rows)
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		l      domain.Listing
		kind   string
		status string
	)
	err := row.Scan(&l.ID, &kind, &l.OwnerID, &l.ItemName, &l.Category, &l.Quantity, &l.Description,
		&l.Attachments, &status, &l.RejectReason, &l.CreatedAt, &l.UpdatedAt, &l.ApprovedAt)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Kind = domain.ListingKind(kind)
	l.Status = domain.ListingStatus(status)
	return l, nil
}

func scanListingRows(rows pgx.Rows) (domain.Listing, error) {
	return scanListing(rows)
}
