package database

import (
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/yaksok/yaksok-backend/pkg/errors"
)

func TestMapPQError_SerializationFailureIsRetryableConflict(t *testing.T) {
	for _, code := range []string{"40001", "40P01"} {
		err := MapPQError(&pq.Error{Code: pq.ErrorCode(code)})
		if assert.NotNil(t, err, "code %s", code) {
			assert.True(t, errors.Is(err, errors.ErrConflict))
		}
	}
}

func TestMapPQError_ConnectionClassIsStoreUnavailable(t *testing.T) {
	err := MapPQError(&pq.Error{Code: "08006"})
	if assert.NotNil(t, err) {
		assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
	}
}

func TestMapPQError_CheckViolation(t *testing.T) {
	err := MapPQError(&pq.Error{Code: "23514", Constraint: "items_current_stock_ea_check"})
	if assert.NotNil(t, err) {
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
		assert.Contains(t, err.Message, "items_current_stock_ea_check")
	}
}

func TestMapPQError_PassesUnknownCodesThrough(t *testing.T) {
	assert.Nil(t, MapPQError(&pq.Error{Code: "22012"}))
	assert.Nil(t, MapPQError(fmt.Errorf("not a pq error")))
}

func TestMapError_PreservesAppErrors(t *testing.T) {
	orig := errors.InsufficientStock("MED-SYR-001", 10, 4)
	mapped := MapError(fmt.Errorf("wrapped: %w", orig))
	assert.True(t, errors.Is(mapped, errors.ErrInsufficientStock))
}

func TestMapError_NetworkErrorIsStoreUnavailable(t *testing.T) {
	var netErr net.Error = &net.OpError{Op: "dial", Err: fmt.Errorf("connection refused")}
	mapped := MapError(netErr)
	assert.True(t, errors.Is(mapped, errors.ErrStoreUnavailable))
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}
