package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("commit: %w", Precondition("Unanimity not reached yet."))

	assert.Equal(t, FailedPrecondition, CodeOf(wrapped))
	assert.Equal(t, "Unanimity not reached yet.", MessageOf(wrapped))
	assert.True(t, Is(wrapped, FailedPrecondition))

	plain := errors.New("disk on fire")
	assert.Equal(t, Internal, CodeOf(plain))
	assert.Equal(t, "internal error", MessageOf(plain))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(NotFound, cause, "Game not found.")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "no rows")
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		InvalidArgument:    http.StatusBadRequest,
		Unauthenticated:    http.StatusUnauthorized,
		PermissionDenied:   http.StatusForbidden,
		NotFound:           http.StatusNotFound,
		FailedPrecondition: http.StatusPreconditionFailed,
		AlreadyExists:      http.StatusConflict,
		Internal:           http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}
