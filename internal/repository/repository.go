package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tverdin/carrental/internal/domain"
)

// ErrStaleStatus is returned by conditional status updates when the booking
// was no longer in the expected status, meaning a concurrent transition won.
var ErrStaleStatus = errors.New("booking not in expected status")

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}
