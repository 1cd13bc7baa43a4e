package gormprobe

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgLockNotAvailable is the SQLSTATE raised by FOR UPDATE NOWAIT when the
// row is held by another transaction.
const pgLockNotAvailable = "55P03"

// IsDuplicateKeyErr reports whether err is the dialect's primary-key or
// unique-constraint violation. Matching is on driver message because the
// three drivers surface different concrete types.
func IsDuplicateKeyErr(err error, dialect Dialect) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	switch dialect {
	case DialectPostgres:
		return strings.Contains(msg, "duplicate key value")
	case DialectMySQL:
		return strings.Contains(msg, "Duplicate entry")
	default:
		return strings.Contains(msg, "UNIQUE constraint failed")
	}
}

// IsLockNotAvailable reports whether err is postgres refusing a NOWAIT lock.
func IsLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}
