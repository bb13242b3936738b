package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxOptions configures WithTx.
type TxOptions struct {
	IsoLevel pgx.TxIsoLevel
	// LockTimeout, when positive, is applied with SET LOCAL.
	LockTimeout time.Duration
}

// TxError marks a failure of the transaction machinery itself, as opposed to
// an error returned by the callback.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string { return fmt.Sprintf("platform/db: %s: %v", e.Op, e.Err) }

func (e *TxError) Unwrap() error { return e.Err }

// WithTx executes fn within a transaction. Callback errors are returned
// untouched; begin, setup and commit failures come back as *TxError.
func WithTx(ctx context.Context, pool *pgxpool.Pool, opts TxOptions, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: opts.IsoLevel})
	if err != nil {
		return &TxError{Op: "begin tx", Err: err}
	}

	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if opts.LockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", opts.LockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return &TxError{Op: "set lock timeout", Err: err}
		}
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return &TxError{Op: "commit tx", Err: err}
	}

	return nil
}
