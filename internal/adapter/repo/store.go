// Package repo implements domain.Store on PostgreSQL through pgx.
//
// Status changes are compare-and-set updates guarded by the expected current
// status; partial unique indexes on active matches and interests reject
// concurrent double binds that slip past the service level checks.
package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
	"charitymatch/internal/infra"
	"charitymatch/internal/sqlinline"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store is the PostgreSQL domain.Store.
type Store struct {
	db     TxBeginner
	runner *infra.SQLRunner
}

func NewStore(db TxBeginner, logger zerolog.Logger) *Store {
	runner := &infra.SQLRunner{Logger: logger.With().Str("component", "pgstore").Logger()}
	if exec, ok := db.(infra.SQLExecutor); ok {
		runner.DB = exec
	}
	return &Store{db: db, runner: runner}
}

// EnsureSchema creates missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.runner.DB == nil {
		return fmt.Errorf("ensure schema: database handle cannot execute statements")
	}
	if _, err := s.runner.Exec(ctx, sqlinline.Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InTx runs fn in one read committed transaction. An id Postgres refused to
// parse (SQLSTATE 22P02) names no row and surfaces as ErrNotFound.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ptx pgx.Tx) error {
		return fn(ctx, newTx(s.runner.WithTx(ptx)))
	})
	if infra.IsInvalidText(err) {
		return fmt.Errorf("%w: malformed identifier", domain.ErrNotFound)
	}
	return err
}

type tx struct {
	listings      ListingRepositoryPG
	interests     InterestRepositoryPG
	matches       MatchRepositoryPG
	notifications NotificationRepositoryPG
	feedback      FeedbackRepositoryPG
	outbox        OutboxRepositoryPG
}

func newTx(run infra.SQLExecutor) *tx {
	return &tx{
		listings:      ListingRepositoryPG{sql: run},
		interests:     InterestRepositoryPG{sql: run},
		matches:       MatchRepositoryPG{sql: run},
		notifications: NotificationRepositoryPG{sql: run},
		feedback:      FeedbackRepositoryPG{sql: run},
		outbox:        OutboxRepositoryPG{sql: run},
	}
}

func (t *tx) Listings() domain.ListingRepository           { return t.listings }
func (t *tx) Interests() domain.InterestRepository         { return t.interests }
func (t *tx) Matches() domain.MatchRepository              { return t.matches }
func (t *tx) Notifications() domain.NotificationRepository { return t.notifications }
func (t *tx) Feedback() domain.FeedbackRepository          { return t.feedback }
func (t *tx) Outbox() domain.OutboxRepository              { return t.outbox }

// mapUnique translates unique violations into domain errors by constraint.
func mapUnique(err error, what string) error {
	constraint, ok := infra.IsUniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case "matches_active_donation_uniq", "matches_active_interest_uniq", "matches_active_request_uniq":
		return fmt.Errorf("%w: %s", domain.ErrAlreadyMatched, what)
	default:
		return fmt.Errorf("%w: %s", domain.ErrConflict, what)
	}
}

func notFound(err error, format string, args ...any) error {
	if infra.IsNoRows(err) || infra.IsInvalidText(err) {
		return fmt.Errorf("%w: "+format, append([]any{domain.ErrNotFound}, args...)...)
	}
	return err
}

// malformedID reports ids that cannot name a row. They are answered before
// the query runs since a cast failure aborts the whole transaction.
func malformedID(id string) bool {
	_, err := uuid.Parse(id)
	return err != nil
}

func missing(format string, args ...any) error {
	return notFound(pgx.ErrNoRows, format, args...)
}

// staleOrMissing resolves a compare-and-set update that touched no rows.
func staleOrMissing(ctx context.Context, run infra.SQLExecutor, existsQuery string, what string, args ...any) error {
	var exists bool
	if err := run.QueryRow(ctx, existsQuery, args...).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return domain.ErrStale
}

func collectRows[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func countRows[K ~string](rows pgx.Rows) (map[K]int, error) {
	defer rows.Close()
	counts := map[K]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[K(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

var _ domain.Store = (*Store)(nil)
