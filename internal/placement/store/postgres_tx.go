package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/postgres"
	txcontext "github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/tx"
)

// PostgresTx runs placement work in one READ COMMITTED transaction. Stores find
// the transaction through the context.
type PostgresTx struct {
	db          *sql.DB
	timeout     time.Duration
	lockTimeout time.Duration
}

type TxOption func(*PostgresTx)

// WithTxTimeout bounds each transaction, including every retry attempt of a
// request that already carries a longer deadline.
func WithTxTimeout(d time.Duration) TxOption {
	return func(t *PostgresTx) {
		t.timeout = d
	}
}

// WithLockTimeout makes row lock waits fail with 55P03 instead of blocking
// until the transaction deadline.
func WithLockTimeout(d time.Duration) TxOption {
	return func(t *PostgresTx) {
		t.lockTimeout = d
	}
}

func NewPostgresTx(db *sql.DB, opts ...TxOption) *PostgresTx {
	t := &PostgresTx{db: db}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txcontext.InTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return cancelledErr(err)
	}
	ctx, cancel := withTxDeadline(ctx, t.timeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return postgres.Translate(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if t.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return postgres.Translate(err, "set lock timeout")
		}
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return postgres.Translate(err, "commit transaction")
	}
	return nil
}
