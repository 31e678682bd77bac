package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/vacancy"
)

const txAttempts = 3

// runInTx executes fn inside a transaction, retrying a bounded number
// of times when the transaction lost a serialization or deadlock race.
// Domain errors abort immediately; only store conflicts are retried.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err := attemptTx(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !isTxConflict(err) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
		}
	}
	return common.NewError(common.CodeInternal, vacancy.ErrStoreConflict.Message, lastErr)
}

func attemptTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sqlState extracts the postgres SQLSTATE code; both pgx's PgError and
// lib/pq's Error expose it through the same method.
func sqlState(err error) string {
	var state interface{ SQLState() string }
	if errors.As(err, &state) {
		return state.SQLState()
	}
	return ""
}

// isTxConflict matches serialization_failure and deadlock_detected, the
// two ways a conditional write loses a race.
func isTxConflict(err error) bool {
	state := sqlState(err)
	return state == "40001" || state == "40P01"
}
