package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewTypeMismatch("album", "created", "soon", errors.New("bad date"))
	assert.Equal(t, `TYPE_MISMATCH: cannot coerce string value soon (entity=album, field=created): bad date`, err.Error())

	err = NewSchemaMismatch("photo", 2, []string{"pid"}, []string{"extra"})
	assert.Equal(t, "SCHEMA_MISMATCH: record 2: missing pid; unexpected extra (entity=photo)", err.Error())
}

func TestErrorHelpersUnwrap(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		code  ErrorCode
	}{
		{"schema", NewSchemaMismatch("user", 0, []string{"uid"}, nil), IsSchemaMismatch, ErrCodeSchemaMismatch},
		{"type", NewTypeMismatch("user", "uid", "x", nil), IsTypeMismatch, ErrCodeTypeMismatch},
		{"not found", NewNotFound("user", "42", "no such user"), IsNotFound, ErrCodeNotFound},
		{"conflict", NewIntegrityConflict("stream", "p1", nil), IsIntegrityConflict, ErrCodeIntegrityConflict},
		{"context", NewContextMismatch("album", "owner", "1", "2"), IsContextMismatch, ErrCodeContextMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("reconcile: %w", tt.err)
			assert.True(t, tt.check(wrapped))

			code, ok := CodeOf(wrapped)
			assert.True(t, ok)
			assert.Equal(t, tt.code, code)
		})
	}

	_, ok := CodeOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsNotFound(nil))
}

func TestErrorUnwrapCause(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")
	err := NewIntegrityConflict("stream", "p1", cause)
	assert.ErrorIs(t, err, cause)
}
