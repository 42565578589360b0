package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST: missing id", BadRequest("missing id", "").Error())
	assert.Equal(t, "BAD_REQUEST: invalid where (unexpected EOF)", BadRequest("invalid where", "unexpected EOF").Error())

	var nilErr *APIError
	assert.Equal(t, "", nilErr.Error())
	assert.NoError(t, nilErr.Unwrap())
}

func TestWrap(t *testing.T) {
	cause := errors.New("token is expired")
	err := Wrap(cause, "UNAUTHORIZED", http.StatusUnauthorized, "invalid %s", "token")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid token", err.Message)
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus)
	assert.Equal(t, "UNAUTHORIZED: invalid token: token is expired", err.Error())

	var target *APIError
	assert.True(t, errors.As(error(err), &target))
	assert.Equal(t, "UNAUTHORIZED", target.Code)
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized("invalid token")
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus)
	assert.Empty(t, err.Details)
}
