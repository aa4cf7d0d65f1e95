// Package repository implements the persistence collaborators over
// PostgreSQL: the catalog.Store consumed by the reconciliation engine,
// and the crawler/listing reads used by the web layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pushkind/dantes/internal/catalog"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements catalog.Store, dispatching on the scope's entity kind.
type Store struct {
	db DBTX
}

// New creates a Store over the given connection or pool.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// mapWriteError bridges pgx failures to the engine's sentinels:
// uniqueness violations become row-level conflicts, connection-class
// failures become the fatal ErrStoreUnavailable, and everything else
// passes through as an ordinary row-level write failure.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%w: %s", catalog.ErrDuplicateKey, pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "57"), // operator intervention
			strings.HasPrefix(pgErr.Code, "53"): // insufficient resources
			return fmt.Errorf("%w: %v", catalog.ErrStoreUnavailable, err)
		}
		return err
	}

	// Anything that is not a server-reported error is an I/O-level
	// failure talking to the database.
	return fmt.Errorf("%w: %v", catalog.ErrStoreUnavailable, err)
}

// textValue maps a set text field to pgtype.Text; Clear and Unset both
// map to NULL, which is only correct on insert paths (updates must
// consult the state before building the column list).
func textValue(f catalog.TextField) pgtype.Text {
	if f.State != catalog.FieldSet {
		return pgtype.Text{}
	}
	return pgtype.Text{String: f.Value, Valid: true}
}

func numberValue(f catalog.NumberField) pgtype.Float8 {
	if f.State != catalog.FieldSet {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f.Value, Valid: true}
}

// setClause accumulates a dynamic UPDATE ... SET list with positional
// placeholders, in stable column order.
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) set(col string, value any) {
	s.args = append(s.args, value)
	s.cols = append(s.cols, fmt.Sprintf("%s = $%d", col, len(s.args)))
}

func (s *setClause) setNull(col string) {
	s.cols = append(s.cols, col+" = NULL")
}

func (s *setClause) text(col string, f catalog.TextField) {
	switch f.State {
	case catalog.FieldSet:
		s.set(col, f.Value)
	case catalog.FieldClear:
		s.setNull(col)
	}
}

func (s *setClause) number(col string, f catalog.NumberField) {
	switch f.State {
	case catalog.FieldSet:
		s.set(col, f.Value)
	case catalog.FieldClear:
		s.setNull(col)
	}
}

func (s *setClause) sql() string {
	return strings.Join(s.cols, ", ")
}
