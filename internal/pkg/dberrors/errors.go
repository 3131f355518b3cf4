package dberrors

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn" // Import pgconn for PgError
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

// UniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const UniqueViolation = "23505"

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	// Check if the error is a PgError, if the code is unique_violation (23505),
	// and if the constraint name matches the provided one.
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports any PostgreSQL unique violation regardless of constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}

// IsMongoDuplicateKey reports whether err is a MongoDB E11000 duplicate key error.
func IsMongoDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNoRows reports a missing row or document for either backend.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, mongo.ErrNoDocuments)
}

// IsUnavailable reports errors that mean the backing store could not answer in time
// or could not be reached at all.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify maps a raw driver error onto the application error taxonomy. Errors
// that are already application errors pass through unchanged. Unknown errors are
// returned as-is so callers can still log them.
func Classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case IsUnavailable(err):
		return &wrapped{kind: apperrors.ErrStoreUnavailable, msg: "store unavailable during " + op, cause: err}
	case IsUniqueViolation(err), IsMongoDuplicateKey(err):
		return &wrapped{kind: apperrors.ErrConflict, msg: "duplicate record during " + op, cause: err}
	case IsNoRows(err):
		return &wrapped{kind: apperrors.ErrResourceNotFound, msg: "record not found during " + op, cause: err}
	}
	return err
}

// wrapped keeps the driver error reachable for logging while reporting the
// application kind through errors.Is.
type wrapped struct {
	kind  error
	msg   string
	cause error
}

func (w *wrapped) Error() string { return w.msg }

func (w *wrapped) Unwrap() []error { return []error{w.kind, w.cause} }

// Cause returns the underlying driver error.
func (w *wrapped) Cause() error { return w.cause }
