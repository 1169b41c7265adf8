package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes the two TTL profiles a token can be minted with.
type TokenKind = string

const (
	// TokenKindAccess authorizes API calls; minutes-scale TTL.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is used solely to mint new access tokens; days-scale TTL.
	TokenKindRefresh TokenKind = "refresh"
)

// AuthClaims represents structured JWT claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() Role
	DisplayName() string
	Kind() TokenKind
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string    `json:"uid,omitempty"`
	UserEmail string    `json:"email,omitempty"`
	UserRole  Role      `json:"role,omitempty"`
	UserName  string    `json:"name,omitempty"`
	TokenUse  TokenKind `json:"tkn,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the principal's email
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the flat role
func (c *JWTClaims) Role() Role {
	return c.UserRole
}

// DisplayName returns the principal's display name
func (c *JWTClaims) DisplayName() string {
	return c.UserName
}

// Kind returns the token kind, defaulting to access for legacy tokens
// minted before the tkn claim existed.
func (c *JWTClaims) Kind() TokenKind {
	if c.TokenUse == "" {
		return TokenKindAccess
	}
	return c.TokenUse
}

// IsAdmin reports whether the claims grant admin-scoped access
func (c *JWTClaims) IsAdmin() bool {
	return IsAdminRole(c.UserRole)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
