package tablebridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind_MatchesConstructedErrorKind(t *testing.T) {
	err := NewNotFoundError("column 'x' not found")
	assert.True(t, IsKind(err, ErrNotFound))
	assert.False(t, IsKind(err, ErrConflict))
}

func TestIsKind_FalseForNonTableError(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain error"), ErrInternal))
}

func TestTableError_ErrorIncludesViolations(t *testing.T) {
	err := NewInvalidDataError("batch failed checks", []string{"amount must be positive"})
	assert.Contains(t, err.Error(), "amount must be positive")
	assert.Contains(t, err.Error(), string(ErrInvalidData))
}

func TestTableError_ErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewIoError("reading file", cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestTableError_UnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewObjectStoreError("put failed", cause)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestTableError_UnwrapNilCauseIsNil(t *testing.T) {
	err := NewUnsupportedError("not supported")
	assert.Nil(t, errors.Unwrap(err))
}
