package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes postgres raises when a transaction lost a race and may be retried
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// translateError maps retryable storage failures to settlement.TransientError.
// Other errors, including domain errors returned by callbacks, pass through unchanged.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return settlement.NewTransientStorageError(op, err)
	}
	return err
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return true
		}
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// sqlite reports lock contention only through the message
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
