package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query method on
// PostgresStore works identically inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresStore struct {
	db   DBTX
	root *sql.DB // nil on a transaction-scoped handle
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, root: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.root
}

// WithTx runs fn against a transaction-scoped copy of the store. A failure
// returned by fn rolls the whole transaction back. Calling WithTx on a handle
// that is already transaction-scoped reuses the open transaction, so nested
// per-root and per-friend work composes without a second BEGIN.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(*PostgresStore) error) error {
	if s.root == nil {
		return fn(s)
	}
	tx, err := s.root.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&PostgresStore{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
