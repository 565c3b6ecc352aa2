package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	err := New(ErrCodeConversion, "bad part", nil)
	assert.Equal(t, "CONVERSION_FAILED: bad part", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestAppErrorWithCause(t *testing.T) {
	cause := stderrors.New("eof")
	err := New(ErrCodeSessionGet, "lookup failed", cause)

	assert.Equal(t, "SESSION_GET_FAILED: lookup failed (caused by: eof)", err.Error())
	assert.True(t, stderrors.Is(err, cause))
}
