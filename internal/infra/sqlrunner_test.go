package infra

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type captureExec struct {
	queries []string
	err     error
}

func (c *captureExec) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	c.queries = append(c.queries, query)
	return pgconn.NewCommandTag("UPDATE 1"), c.err
}

func (c *captureExec) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	c.queries = append(c.queries, query)
	return errorRow{err: pgx.ErrNoRows}
}

func (c *captureExec) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	c.queries = append(c.queries, query)
	return nil, c.err
}

const markedQuery = "--sql 0b8f6c1e-4d2a-4c61-9a57-3f1e2d4c5b6a\nUPDATE t SET a = 1"

func TestExtractMarker(t *testing.T) {
	marker, body, err := ExtractMarker(markedQuery)
	if err != nil {
		t.Fatalf("ExtractMarker returned error: %v", err)
	}
	if marker != "0b8f6c1e-4d2a-4c61-9a57-3f1e2d4c5b6a" || body != "UPDATE t SET a = 1" {
		t.Fatalf("unexpected marker=%q body=%q", marker, body)
	}
	for _, q := range []string{"", "SELECT 1", "--sql not-a-uuid\nSELECT 1"} {
		if _, _, err := ExtractMarker(q); err == nil {
			t.Fatalf("expected error for %q", q)
		}
	}
}

func TestSQLRunnerStripsMarkerBeforeExecuting(t *testing.T) {
	db := &captureExec{}
	runner := NewSQLRunner(db, zerolog.Nop())
	ctx := context.Background()

	tag, err := runner.Exec(ctx, markedQuery)
	if err != nil || tag.RowsAffected() != 1 {
		t.Fatalf("exec: %v %v", tag, err)
	}
	if err := runner.QueryRow(ctx, markedQuery).Scan(); !IsNoRows(err) {
		t.Fatalf("expected no rows to pass through, got %v", err)
	}
	for _, q := range db.queries {
		if q != "UPDATE t SET a = 1" {
			t.Fatalf("marker leaked to the driver: %q", q)
		}
	}
}

func TestSQLRunnerRefusesUnmarkedQueries(t *testing.T) {
	db := &captureExec{}
	runner := NewSQLRunner(db, zerolog.Nop())
	ctx := context.Background()

	if _, err := runner.Exec(ctx, "DELETE FROM t"); err == nil {
		t.Fatalf("unmarked exec should fail")
	}
	if err := runner.QueryRow(ctx, "SELECT 1").Scan(); err == nil {
		t.Fatalf("unmarked query row should fail")
	}
	if _, err := runner.Query(ctx, "SELECT 1"); err == nil {
		t.Fatalf("unmarked query should fail")
	}
	if len(db.queries) != 0 {
		t.Fatalf("unmarked queries must not reach the driver, got %v", db.queries)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "matches_active_request_uniq"})
	if name, ok := IsUniqueViolation(err); !ok || name != "matches_active_request_uniq" {
		t.Fatalf("expected unique violation, got %q %v", name, ok)
	}
	if _, ok := IsUniqueViolation(&pgconn.PgError{Code: "23503"}); ok {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if _, ok := IsUniqueViolation(errors.New("plain")); ok {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestIsInvalidText(t *testing.T) {
	if !IsInvalidText(fmt.Errorf("select: %w", &pgconn.PgError{Code: "22P02"})) {
		t.Fatalf("expected malformed input to be detected")
	}
	if IsInvalidText(&pgconn.PgError{Code: "23505"}) || IsInvalidText(errors.New("plain")) || IsInvalidText(nil) {
		t.Fatalf("only SQLSTATE 22P02 is malformed input")
	}
}
