package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type scanner interface {
	Scan(dest ...any) error
}

type DB struct {
	pool *sql.DB
}

func NewDB(pool *sql.DB) *DB {
	return &DB{pool: pool}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w", classify(err))
	}
	return tx, nil
}

// WithTx runs fn inside a single database transaction. The transaction is
// committed only when fn returns nil; any error or panic rolls it back.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithTx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("WithTx: commit: %w", classify(err))
	}
	return nil
}
