// Package repository is the persistence layer over PostgreSQL.
//
// Queries is a thin query collection over a DBTX (either *sql.DB or *sql.Tx),
// mirroring the load-modify-save-by-id contract the domain requires: every
// mutation of a loaded aggregate is an UPDATE keyed on primary key, and
// findings are inserted as independent rows keyed by photo id. No code path
// re-inserts an inspection that has already been persisted.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database handles Queries can run against.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds all SQL operations. It is safe for concurrent use when backed
// by *sql.DB.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries that runs against the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Store combines Queries with transaction management for multi-statement
// units of work.
type Store struct {
	*Queries
	db *sql.DB
}

// NewStore creates a Store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Queries: New(db),
		db:      db,
	}
}

// execTx runs fn inside a transaction, rolling back on error.
func (s *Store) execTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
