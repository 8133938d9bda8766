package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		kind   Kind
		status int
	}{
		{"validation", Validation("bad"), KindValidation, http.StatusBadRequest},
		{"conflict", Conflict("taken"), KindConflict, http.StatusConflict},
		{"auth 401", Auth(http.StatusUnauthorized, "nope"), KindAuth, http.StatusUnauthorized},
		{"auth 400", Auth(http.StatusBadRequest, "nope"), KindAuth, http.StatusBadRequest},
		{"not found", NotFound("missing"), KindNotFound, http.StatusNotFound},
		{"internal", Internal("boom", errors.New("cause")), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.status, tt.err.StatusCode)
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("db down")
	e := Internal("Internal server error.", cause)

	assert.Equal(t, "Internal server error.: db down", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "taken", Conflict("taken").Error())
}

func TestError_AsThroughWrapping(t *testing.T) {
	sentinel := NotFound("User does not exist.")
	wrapped := fmt.Errorf("login: %w", sentinel)

	var target *Error
	assert.True(t, errors.As(wrapped, &target))
	assert.Same(t, sentinel, target)
	assert.ErrorIs(t, wrapped, sentinel)
}
