package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the principal's role
type Role = string

const (
	// RoleUser is a regular job-portal account
	RoleUser Role = "user"
	// RoleAdmin is an administrator account
	RoleAdmin Role = "admin"
)

// Partition names one of the two schema-equivalent credential tables.
type Partition string

const (
	PartitionUsers  Partition = "users"
	PartitionAdmins Partition = "admins"
)

// PartitionForRole maps a role to the table holding its credentials.
func PartitionForRole(role Role) Partition {
	if role == RoleAdmin {
		return PartitionAdmins
	}
	return PartitionUsers
}

// Credential carries the columns shared by both partitions. Identity fields
// are immutable after registration; the role never changes.
type Credential struct {
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	DisplayName    string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// User is a credential in the users partition
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	Credential
}

// Admin is a credential in the admins partition
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:usr"`
	Credential
}

// Identity adapter over a stored credential.

type authIdentity struct {
	id          string
	email       string
	role        Role
	displayName string
}

func (a authIdentity) ID() string          { return a.id }
func (a authIdentity) Email() string       { return a.email }
func (a authIdentity) Role() Role          { return a.role }
func (a authIdentity) DisplayName() string { return a.displayName }

// IdentityFromCredential exposes a stored credential as an Identity.
func IdentityFromCredential(c *Credential) Identity {
	if c == nil {
		return nil
	}
	return authIdentity{
		id:          c.ID.String(),
		email:       c.Email,
		role:        c.Role,
		displayName: c.DisplayName,
	}
}
