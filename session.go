package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the decoded view of a verified token: the principal plus
// token timing. It doubles as the principal snapshot the client persists.
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	UserEmail      string     `json:"email,omitempty"`
	UserRole       Role       `json:"role,omitempty"`
	UserName       string     `json:"display_name,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.UserEmail
}

func (s *SessionObject) GetRole() Role {
	return s.UserRole
}

func (s *SessionObject) GetDisplayName() string {
	return s.UserName
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

// IsAdmin reports whether the session belongs to an admin principal.
func (s *SessionObject) IsAdmin() bool {
	return IsAdminRole(s.UserRole)
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s email=%s role=%s iat=%s",
		s.UserID,
		s.UserEmail,
		s.UserRole,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from verified claims.
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		UserEmail:      claims.Email(),
		UserRole:       claims.Role(),
		UserName:       claims.DisplayName(),
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}
