package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsComparesCode(t *testing.T) {
	err := NewDomainError(CodeNotFound, "tier missing")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", err), ErrNotFound))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewGatewayError("failed to cancel subscription", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, "failed to cancel subscription: connection reset", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewGatewayError("timeout", nil)))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", NewGatewayError("timeout", nil))))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(errors.New("plain")))
}
