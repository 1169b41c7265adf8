package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeRefreshRejected    = "REFRESH_REJECTED"
	TextCodeNetworkFailure     = "NETWORK_FAILURE"
	TextCodeLoginInFlight      = "LOGIN_IN_FLIGHT"
	TextCodeLoginSuperseded    = "LOGIN_SUPERSEDED"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeAuthzFailure       = "AUTHORIZATION_FAILED"
	TextCodeImmutableClaim     = "IMMUTABLE_CLAIM_MUTATION"
)

// ErrInvalidCredentials is returned for both unknown emails and wrong
// passwords. Callers must not be able to tell which one it was.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a token's exp claim is in the past.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tampered or undecodable tokens.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshRejected is terminal: the refresh token was refused by the
// server, so the local session cannot be recovered.
var ErrRefreshRejected = goerrors.New("refresh token rejected", goerrors.CategoryAuth).
	WithTextCode(TextCodeRefreshRejected).
	WithCode(goerrors.CodeUnauthorized)

// ErrNetworkFailure marks transient transport problems, including timeouts.
// It never forces a logout; the controller keeps the cached principal.
var ErrNetworkFailure = goerrors.New("transport failure", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetworkFailure)

// ErrLoginInFlight is returned when a login is attempted while another one
// has not completed yet.
var ErrLoginInFlight = goerrors.New("login already in progress", goerrors.CategoryConflict).
	WithTextCode(TextCodeLoginInFlight).
	WithCode(goerrors.CodeConflict)

// ErrTooManyLoginAttempts enforces the failed-attempt cooldown window.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNotAuthorized is the authorization failure (wrong role), distinct from
// the authentication failures above.
var ErrNotAuthorized = goerrors.New("insufficient role for this resource", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAuthzFailure).
	WithCode(goerrors.CodeForbidden)

// ErrImmutableClaimMutation is returned when a claims decorator touches an
// identity or authorization claim.
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode(TextCodeImmutableClaim)

// ErrNoEmptyString guards against hashing empty passwords
var ErrNoEmptyString = errors.New("value should not be an empty string")

// ErrUnableToFindSession is the error when a request carries no token
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT claims
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for tampered or undecodable tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsTransientError reports whether err is a network/timeout class failure
// that should be absorbed rather than terminate the session.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetworkFailure) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeNetworkFailure
	}
	return false
}

// IsRefreshRejectedError reports whether err is the terminal refresh failure.
func IsRefreshRejectedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRefreshRejected) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeRefreshRejected
	}
	return false
}

func wrapTransient(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg).
		WithTextCode(TextCodeNetworkFailure)
}
