package auth_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	auth "github.com/kiranaher5171/jobportal-auth"
)

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(fmt.Errorf("validate: %w", auth.ErrTokenExpired)))
	assert.True(t, auth.IsTokenExpiredError(errors.New("jwt: token is expired by 2m")))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
	assert.False(t, auth.IsMalformedError(nil))
}

func TestIsTransientError(t *testing.T) {
	assert.True(t, auth.IsTransientError(auth.ErrNetworkFailure))

	wrapped := goerrors.Wrap(errors.New("dial tcp: timeout"), goerrors.CategoryOperation, "verify request failed").
		WithTextCode(auth.TextCodeNetworkFailure)
	assert.True(t, auth.IsTransientError(wrapped))

	assert.False(t, auth.IsTransientError(auth.ErrRefreshRejected))
	assert.False(t, auth.IsTransientError(errors.New("plain failure")))
	assert.False(t, auth.IsTransientError(nil))
}

func TestIsRefreshRejectedError(t *testing.T) {
	assert.True(t, auth.IsRefreshRejectedError(auth.ErrRefreshRejected))

	wrapped := goerrors.Wrap(auth.ErrRefreshRejected, goerrors.CategoryAuth, "refresh cycle failed").
		WithTextCode(auth.TextCodeRefreshRejected)
	assert.True(t, auth.IsRefreshRejectedError(wrapped))

	assert.False(t, auth.IsRefreshRejectedError(auth.ErrNetworkFailure))
	assert.False(t, auth.IsRefreshRejectedError(nil))
}

func TestAuthErrorTextCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{auth.ErrInvalidCredentials, auth.TextCodeInvalidCredentials},
		{auth.ErrTokenExpired, auth.TextCodeTokenExpired},
		{auth.ErrTokenMalformed, auth.TextCodeTokenMalformed},
		{auth.ErrRefreshRejected, auth.TextCodeRefreshRejected},
		{auth.ErrLoginInFlight, auth.TextCodeLoginInFlight},
		{auth.ErrLoginSuperseded, auth.TextCodeLoginSuperseded},
		{auth.ErrTooManyLoginAttempts, auth.TextCodeTooManyAttempts},
	}

	for _, tc := range cases {
		var richErr *goerrors.Error
		assert.True(t, goerrors.As(tc.err, &richErr), tc.code)
		assert.Equal(t, tc.code, richErr.TextCode)
	}

	// a discarded post-logout login is distinguishable from a concurrent one
	assert.NotEqual(t, auth.TextCodeLoginInFlight, auth.TextCodeLoginSuperseded)
}
