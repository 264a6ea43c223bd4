package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &DomainError{
				Kind:    KindUnavailable,
				Message: "payment gateway unavailable",
				Err:     errors.New("circuit open"),
			},
			expected: "payment gateway unavailable: circuit open",
		},
		{
			name: "without wrapped error",
			err: &DomainError{
				Kind:    KindFailedPrecondition,
				Message: "purchase must be confirmed before capture",
			},
			expected: "purchase must be confirmed before capture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(KindUnknown, "something broke", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "missing")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain error")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := New(KindAborted, "record changed concurrently")
	outer := fmt.Errorf("apply transition: %w", inner)

	assert.Equal(t, KindAborted, KindOf(outer))
	assert.True(t, IsKind(outer, KindAborted))
	assert.False(t, IsKind(outer, KindNotFound))
}

func TestNewf(t *testing.T) {
	err := Newf(KindInvalidArgument, "refund amount %d exceeds remaining amount %d", 700, 600)

	assert.Equal(t, KindInvalidArgument, err.Kind)
	assert.Equal(t, "refund amount 700 exceeds remaining amount 600", err.Message)
}

func TestIsKind_PlainError(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain"), KindUnknown))
}
