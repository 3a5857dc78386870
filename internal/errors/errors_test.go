package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_Creation(t *testing.T) {
	message := "order not found"
	err := NewNotFoundError(message)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
}

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("test not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "test not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestValidationError_Creation(t *testing.T) {
	message := "validation failed"
	details := []ValidationDetail{
		{Field: "customerPhone", Message: "customerPhone is required"},
		{Field: "items", Message: "items must not be empty"},
	}

	err := NewValidationError(message, details...)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
	assert.Len(t, err.Details, 2)
}

func TestValidationError_IsValidationError_Wrapped(t *testing.T) {
	err := fmt.Errorf("placing order: %w", NewValidationError("validation failed"))

	ve, ok := IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "validation failed", ve.Message)
}

func TestAuthError_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAuthError("issuing pos token", cause)

	assert.Contains(t, err.Error(), "issuing pos token")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, errors.Is(err, cause))

	ae, ok := IsAuthError(fmt.Errorf("submit: %w", err))
	assert.True(t, ok)
	assert.Equal(t, cause, ae.Cause)
}

func TestUpstreamError_Messages(t *testing.T) {
	withBody := NewUpstreamError("create delivery", 400, "unknown product", nil)
	assert.Equal(t, "create delivery: status 400: unknown product", withBody.Error())

	statusOnly := NewUpstreamError("fetch menu", 503, "", nil)
	assert.Equal(t, "fetch menu: status 503", statusOnly.Error())

	transport := NewUpstreamError("fetch menu", 0, "", errors.New("timeout"))
	assert.Equal(t, "fetch menu: timeout", transport.Error())

	_, ok := IsUpstreamError(fmt.Errorf("wrapped: %w", transport))
	assert.True(t, ok)

	_, ok = IsUpstreamError(errors.New("plain"))
	assert.False(t, ok)
}

func TestInternalError_Creation(t *testing.T) {
	cause := errors.New("database error")
	err := NewInternalError("failed to query database", cause)

	assert.NotNil(t, err)
	assert.Equal(t, "failed to query database", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "failed to query database")
	assert.Contains(t, err.Error(), "database error")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestDeadlockError_IsDeadlockError_Wrapped(t *testing.T) {
	err := fmt.Errorf("storing order: %w", NewDeadlockError("max retries exceeded"))

	de, ok := IsDeadlockError(err)
	assert.True(t, ok)
	assert.Equal(t, "max retries exceeded", de.Message)

	_, ok = IsDeadlockError(errors.New("plain"))
	assert.False(t, ok)
}
