package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("place order: %w", &ValidationError{Kind: UnknownStrategy, Value: "wheel"})

	assert.True(t, errors.Is(err, ErrUnknownStrategy))
	assert.False(t, errors.Is(err, ErrMissingParameter))
	assert.False(t, errors.Is(err, ErrNoRefreshToken))

	var ve *ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Equal(t, "wheel", ve.Value)
	}
}

func TestAuthErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &AuthError{Kind: ExchangeFailed, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrExchangeFailed)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPErrorMessage(t *testing.T) {
	err := &HTTPError{Method: "POST", URL: "https://x/orders", Status: 400, Body: `{"message":"bad"}`, Message: "bad"}
	assert.Equal(t, "POST https://x/orders: status 400: bad", err.Error())
	assert.False(t, err.Temporary())
	assert.True(t, (&HTTPError{Status: 503}).Temporary())
}

func TestMissingHelper(t *testing.T) {
	err := Missing("long_call_strike")
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.Contains(t, err.Error(), "long_call_strike")
}
