package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// postgres SQLSTATE codes
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// translateErr maps driver errors onto the repository sentinels and passes
// everything else through untouched.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgDeadlockDetected, pgLockNotAvailable, pgSerializationFailure:
			return fmt.Errorf("%w: %s", ErrLockTimeout, pgErr.Message)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
		}
	}
	return err
}
