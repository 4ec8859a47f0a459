package errors

// Postgres mapping: SQLSTATE to ErrorCode, plus retry classification

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE values the classifier distinguishes
const (
	sqlstateUniqueViolation           = "23505"
	sqlstateForeignKeyViolation       = "23503"
	sqlstateNotNullViolation          = "23502"
	sqlstateCheckViolation            = "23514"
	sqlstateStringDataRightTruncation = "22001"
	sqlstateInvalidTextRepresentation = "22P02"

	sqlstateSerializationFailure   = "40001"
	sqlstateDeadlockDetected       = "40P01"
	sqlstateLockNotAvailable       = "55P03"
	sqlstateReadOnlySQLTransaction = "25006"
	sqlstateCannotConnectNow       = "57P03" // server still starting up
)

// ExtractPgError digs the *pgconn.PgError out of a wrap chain, if any
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether err is a Postgres error carrying the given SQLSTATE
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, sqlstateUniqueViolation) }

// IsSerializationFailure reports a serialization failure
func IsSerializationFailure(err error) bool { return IsSQLState(err, sqlstateSerializationFailure) }

// IsDeadlock reports a detected deadlock
func IsDeadlock(err error) bool { return IsSQLState(err, sqlstateDeadlockDetected) }

// IsConnectionUnavailable reports a "cannot connect now" refusal
func IsConnectionUnavailable(err error) bool { return IsSQLState(err, sqlstateCannotConnectNow) }

// DBErrorCode maps a Postgres error to an ErrorCode
// !ok means err was not a PgError and the caller should handle it generically
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}

	switch pgErr.Code {
	case sqlstateUniqueViolation:
		return ErrorCodeDuplicateKey, true

	case sqlstateForeignKeyViolation:
		// the write referenced a missing row, treat as bad input
		return ErrorCodeInvalidArgument, true

	case sqlstateNotNullViolation, sqlstateCheckViolation:
		return ErrorCodeValidation, true

	case sqlstateStringDataRightTruncation, sqlstateInvalidTextRepresentation:
		return ErrorCodeInvalidArgument, true

	case sqlstateSerializationFailure, sqlstateDeadlockDetected, sqlstateLockNotAvailable:
		// server-side contention, retryable
		return ErrorCodeDB, true

	case sqlstateReadOnlySQLTransaction, sqlstateCannotConnectNow:
		return ErrorCodeUnavailable, true
	}

	return ErrorCodeDB, true
}

// FromPostgres wraps err under its mapped ErrorCode; nil stays nil
func FromPostgres(err error, text string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, text)
	}
	return Wrap(err, ErrorCodeDB, text)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether a database error is a transient condition worth
// retrying. Covers structured *pgconn.PgError codes and the plain-text errors
// pgx produces around commit
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// local cancellation and deadline are the caller's decision, never retried here
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	root := Root(err)

	var pgErr *pgconn.PgError
	if stderrs.As(root, &pgErr) {
		switch pgErr.Code {
		case sqlstateSerializationFailure, sqlstateDeadlockDetected, sqlstateLockNotAvailable:
			return true
		default:
			return false
		}
	}

	// text fallbacks for driver errors that never reach PgError form
	s := strings.ToLower(root.Error())
	switch {
	case strings.Contains(s, "commit unexpectedly resulted in rollback"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "serialization failure"),
		strings.Contains(s, "canceling statement due to statement timeout"),
		strings.Contains(s, "canceling statement due to lock timeout"),
		strings.Contains(s, "could not obtain lock on row"),
		strings.Contains(s, "terminating connection due to administrator command"):
		return true
	default:
		return false
	}
}
