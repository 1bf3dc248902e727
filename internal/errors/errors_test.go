package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckersMatchCodes(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
	}{
		{NotFound("gone"), IsNotFound},
		{NotReady("still running"), IsNotReady},
		{Validation("bad input"), IsValidation},
		{Conflict("already done"), IsConflict},
		{Internal("broken"), IsInternal},
	}

	for _, tt := range tests {
		appErr, ok := tt.err.(*AppError)
		require.True(t, ok)
		t.Run(string(appErr.Code), func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestCheckersSeeThroughWrapping(t *testing.T) {
	cause := NotFound("job missing")
	wrapped := fmt.Errorf("get job: %w", cause)

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, ErrCodeNotFound, GetCode(wrapped))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "ignored %d", 1))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeInternal, "query failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "query failed: connection refused", err.Error())
}

func TestValidationErrors(t *testing.T) {
	verr := NewValidationErrors([]*AppError{
		ValidationField("meter_id", "meter_id is required"),
		ValidationField("end_datetime", "end_datetime must be after start_datetime"),
	})

	assert.Equal(t,
		"meter_id: meter_id is required; end_datetime: end_datetime must be after start_datetime",
		verr.Error())
	assert.Equal(t, []string{"meter_id", "end_datetime"}, verr.Fields())

	wrapped := fmt.Errorf("submit: %w", verr)
	got, ok := AsValidationErrors(wrapped)
	require.True(t, ok)
	assert.Len(t, got.Violations, 2)

	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, ErrCodeValidation, GetCode(wrapped))
}

func TestGetCodeOnForeignError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
}
