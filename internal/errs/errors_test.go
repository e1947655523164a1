package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("duplicate key value")

	assert.Equal(t, "[not_found] client 7 not found", New(ErrKindNotFound, "client 7 not found").Error())
	assert.Equal(t, "[conflict] add client: duplicate key value", Wrap(ErrKindConflict, "add client", cause).Error())
	assert.Equal(t, "[invalid_input] bad id -1", Newf(ErrKindInvalidInput, "bad id %d", -1).Error())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"conflict", New(ErrKindConflict, "x"), IsConflict},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"invalid input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrKindConflict, "x")), IsConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
		})
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(ErrKindQueryFailed, "exec", cause)
	assert.ErrorIs(t, err, cause)
}
