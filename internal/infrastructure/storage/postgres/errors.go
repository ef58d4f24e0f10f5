package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"lotledger/internal/core/apperror"
)

// PostgreSQL error codes this service reacts to.
const (
	pgCodeLockNotAvailable   = "55P03"
	pgCodeUniqueViolation    = "23505"
	pgCodeForeignKeyViolated = "23503"
	pgCodeCheckViolation     = "23514"
)

// MapError translates driver errors into the application error taxonomy.
// AppErrors pass through untouched so domain errors keep their codes
// across the storage boundary.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgCodeLockNotAvailable:
		// lock_timeout expired while waiting for a row lock
		return apperror.NewBusy(pgErr.TableName).WithCause(err)
	case pgCodeUniqueViolation:
		return apperror.NewConflict("record already exists").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCodeForeignKeyViolated:
		return apperror.NewConflict("record is referenced by other data").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCodeCheckViolation:
		// The batches availability CHECK is the database's last line of
		// defense for the stock bounds; tripping it means the in-process
		// guards were bypassed.
		return apperror.NewInvariantViolation("database constraint violated").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}

	return err
}
