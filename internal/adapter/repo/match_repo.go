package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/sqlinline"
)

type MatchRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r MatchRepositoryPG) Create(ctx context.Context, m *domain.Match) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertMatch,
		m.ID, string(m.Type), string(m.Supply.Kind), m.Supply.DonationID(), m.Supply.InterestID(),
		m.RequestID, m.DonorID, m.ReceiverID, string(m.Status), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return mapUnique(err, fmt.Sprintf("%s %s or request %s", m.Supply.Kind, m.Supply.ID, m.RequestID))
	}
	return nil
}

func (r MatchRepositoryPG) Get(ctx context.Context, id string) (*domain.Match, error) {
	if malformedID(id) {
		return nil, missing("match %s", id)
	}
	m, err := scanMatch(r.sql.QueryRow(ctx, sqlinline.QSelectMatch, id))
	if err != nil {
		return nil, notFound(err, "match %s", id)
	}
	return &m, nil
}

func (r MatchRepositoryPG) ActiveForSupply(ctx context.Context, s domain.Supply) (*domain.Match, error) {
	if malformedID(s.ID) {
		return nil, missing("no active match for %s %s", s.Kind, s.ID)
	}
	query := sqlinline.QSelectActiveMatchForDonation
	if s.Kind == domain.SupplyInterest {
		query = sqlinline.QSelectActiveMatchForInterest
	}
	m, err := scanMatch(r.sql.QueryRow(ctx, query, s.ID))
	if err != nil {
		return nil, notFound(err, "no active match for %s %s", s.Kind, s.ID)
	}
	return &m, nil
}

func (r MatchRepositoryPG) ActiveForRequest(ctx context.Context, requestID string) (*domain.Match, error) {
	if malformedID(requestID) {
		return nil, missing("no active match for request %s", requestID)
	}
	m, err := scanMatch(r.sql.QueryRow(ctx, sqlinline.QSelectActiveMatchForRequest, requestID))
	if err != nil {
		return nil, notFound(err, "no active match for request %s", requestID)
	}
	return &m, nil
}

func (r MatchRepositoryPG) SetStatus(ctx context.Context, m *domain.Match, from domain.MatchStatus) error {
	if malformedID(m.ID) {
		return missing("match %s", m.ID)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateMatchStatus,
		m.ID, string(m.Status), m.UpdatedAt, m.ExecutedAt, m.CompletedAt, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return staleOrMissing(ctx, r.sql, sqlinline.QMatchExists, "match "+m.ID, m.ID)
	}
	return nil
}

func (r MatchRepositoryPG) ListByStatus(ctx context.Context, status domain.MatchStatus) ([]domain.Match, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListMatchesByStatus, string(status))
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanMatchRows)
}

func (r MatchRepositoryPG) ListForUser(ctx context.Context, userID string) ([]domain.Match, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListMatchesForUser, userID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanMatchRows)
}

func (r MatchRepositoryPG) ListCompletedFor(ctx context.Context, userID string, since time.Time) ([]domain.Match, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCompletedMatchesFor, userID, since)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanMatchRows)
}

func (r MatchRepositoryPG) CountByStatus(ctx context.Context) (map[domain.MatchStatus]int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountMatchesByStatus)
	if err != nil {
		return nil, err
	}
	return countRows[domain.MatchStatus](rows)
}

func scanMatch(row pgx.Row) (domain.Match, error) {
	var (
		m                      domain.Match
		matchType, supplyKind  string
		donationID, interestID string
		status                 string
	)
	err := row.Scan(&m.ID, &matchType, &supplyKind, &donationID, &interestID, &m.RequestID,
		&m.DonorID, &m.ReceiverID, &status, &m.CreatedAt, &m.UpdatedAt, &m.ExecutedAt, &m.CompletedAt)
	if err != nil {
		return domain.Match{}, err
	}
	m.Type = domain.MatchType(matchType)
	m.Status = domain.MatchStatus(status)
	if domain.SupplyKind(supplyKind) == domain.SupplyInterest {
		m.Supply = domain.InterestSupply(interestID)
	} else {
		m.Supply = domain.DonationSupply(donationID)
	}
	return m, nil
}

func scanMatchRows(rows pgx.Rows) (domain.Match, error) {
	return scanMatch(rows)
}
