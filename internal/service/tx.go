package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultMaxTxRetries = 5

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// errWriteConflict marks a compare-and-swap write that found the row changed
// since it was read. The whole transaction is retried.
var errWriteConflict = errors.New("concurrent write")

// Unique constraints that can only fire when two transactions allocate the
// same order number.
var counterConstraints = map[string]bool{
	"order_counter_pkey":      true,
	"orders_order_number_key": true,
}

// isRetryable reports whether err is transient contention: a lost CAS, a
// serialization failure, a deadlock, or a duplicate order number.
func isRetryable(err error) bool {
	if errors.Is(err, errWriteConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		case "23505":
			return counterConstraints[pgErr.ConstraintName]
		}
	}
	return false
}

// runInTx runs fn in a transaction, retrying the whole transaction on
// contention up to maxRetries times. Exhausted retries surface as
// ErrTransactionConflict.
func runInTx(ctx context.Context, pool TxBeginner, maxRetries int, fn func(tx pgx.Tx) error) error {
	if maxRetries <= 0 {
		maxRetries = defaultMaxTxRetries
	}
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := inTx(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %w", ErrTransactionConflict, lastErr)
}

func inTx(ctx context.Context, pool TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
