// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/truthpoll/engine"
)

// Supported database types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Store implements engine.Store on database/sql. Every Atomic call is one
// SQL transaction.
type Store struct {
	db      *sql.DB
	dialect string
}

// NewStore wraps conn. SQLite connections are limited to one so that
// transactions are serialized.
func NewStore(conn *sql.DB, dialect string) (*Store, error) {
	switch dialect {
	case TypePostgres:
	case TypeSQLite:
		conn.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dialect)
	}
	return &Store{db: conn, dialect: dialect}, nil
}

// Atomic runs fn in a transaction, committing only if fn succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(tx engine.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		if rbErr := sqlTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("rollback failed", "error", rbErr)
		}
	}()

	if err := fn(&Tx{tx: sqlTx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Tx is an engine.Tx bound to one SQL transaction.
type Tx struct {
	tx      *sql.Tx
	dialect string
}

// rebind converts $N placeholders for SQLite, which numbers them ?N.
func (t *Tx) rebind(query string) string {
	if t.dialect == TypeSQLite {
		return strings.ReplaceAll(query, "$", "?")
	}
	return query
}

// lock returns the row-locking suffix for selects made before an update.
func (t *Tx) lock() string {
	if t.dialect == TypePostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.rebind(query), args...)
}

func (t *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.rebind(query), args...)
}

func (t *Tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.rebind(query), args...)
}

// execOne runs a write that must affect exactly one row.
func (t *Tx) execOne(ctx context.Context, query string, args ...any) error {
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("expected 1 row affected, got %d", n)
	}
	return nil
}
