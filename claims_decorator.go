package auth

import "context"

// ClaimsDecorator can enrich JWT claims before a token is signed, e.g. to
// set a display name sourced elsewhere. Identity and authorization claims
// (sub, uid, role, tkn, iss, aud, iat, exp) are immutable; the token
// service rejects any decorator that touches them.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, identity Identity, claims *JWTClaims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error {
	if f == nil {
		return nil
	}
	return f(ctx, identity, claims)
}
