package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is an opaque transaction handle owned by the active storage backend.
// The postgres backend passes *sql.Tx through it; the memory backend uses
// its own token. A nil Tx runs the operation outside any transaction.
type Tx interface{}

// TxManager runs a function as one atomic unit of work. Everything the
// function writes becomes visible together or not at all.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

func (m *sqlTxManager) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := m.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(sqlTx); err != nil {
		sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func pick(db *sql.DB, tx Tx) querier {
	if sqlTx, ok := tx.(*sql.Tx); ok && sqlTx != nil {
		return sqlTx
	}
	return db
}
