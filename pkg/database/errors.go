package database

import (
	"database/sql/driver"
	"net"

	"github.com/lib/pq"
	"github.com/yaksok/yaksok-backend/pkg/errors"
)

// MapError converts a driver-level error into an AppError. Errors that are
// already AppErrors pass through untouched so repository-level taxonomy
// (NotFound, InsufficientStock, ...) survives the transaction wrapper.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if mapped := MapPQError(err); mapped != nil {
		return mapped
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return errors.StoreUnavailable(err)
	}

	return err
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Serialization failure (40001) and deadlock detected (40P01): the whole
	// operation rolled back cleanly and is safe to retry.
	case "40001", "40P01":
		return errors.Conflict("concurrent update conflict, retry the operation")

	// Check constraint violation (23514)
	case "23514":
		return errors.InvalidArgument("data validation failed: " + pqErr.Constraint)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict("a record with these values already exists")

	// Foreign key violation (23503)
	case "23503":
		return errors.InvalidArgument("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Class 08: connection exceptions
	case "08000", "08003", "08006", "08001", "08004":
		return errors.StoreUnavailable(pqErr)

	default:
		return nil
	}
}
