package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hvac-ledger/internal/core"
)

// SQLSTATE codes the store distinguishes.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// mapError turns a driver error into a core error. Missing parents on insert
// surface as NotFound, transient lock failures as retryable StorageError.
func mapError(err error, message string) error {
	if err == nil {
		return nil
	}
	if core.As(err) != nil {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return core.Wrap(core.KindValidation, err, message+": duplicate value for "+pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return core.Wrap(core.KindNotFound, err, message+": referenced row does not exist")
		case codeCheckViolation:
			return core.Wrap(core.KindValidation, err, message+": violates "+pgErr.ConstraintName)
		case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
			return core.StorageError(err, true, message)
		}
	}
	return core.StorageError(err, false, message)
}

// mapDeleteError reports a foreign key violation on delete as a referential
// integrity failure instead of a missing parent.
func mapDeleteError(err error, message string) error {
	if pgCode(err) == codeForeignKeyViolation {
		return core.Wrap(core.KindReferentialIntegrity, err, message+": row is still referenced")
	}
	return mapError(err, message)
}

func notFoundOr(err error, notFound *core.Error, message string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return mapError(err, message)
}
