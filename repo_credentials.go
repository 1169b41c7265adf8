package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Credentials exposes lookups and writes over both credential partitions.
// The partitions are schema-equivalent; when no role narrows the lookup,
// both are probed (users first, then admins).
type Credentials interface {
	FindByEmail(ctx context.Context, email string, roles ...Role) (*Credential, error)
	FindByID(ctx context.Context, id string, roles ...Role) (*Credential, error)

	Register(ctx context.Context, record *Credential) (*Credential, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Credential) (*Credential, error)

	TrackAttemptedLogin(ctx context.Context, record *Credential) error
	TrackSuccessfulLogin(ctx context.Context, record *Credential) error

	Users() repository.Repository[*User]
	Admins() repository.Repository[*Admin]
}

type credentialStore struct {
	db     *bun.DB
	users  repository.Repository[*User]
	admins repository.Repository[*Admin]
}

var _ Credentials = (*credentialStore)(nil)

// NewCredentialStore builds the partitioned credential store.
func NewCredentialStore(db *bun.DB) Credentials {
	users := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	admins := repository.NewRepository[*Admin](db, repository.ModelHandlers[*Admin]{
		NewRecord: func() *Admin { return &Admin{} },
		GetID: func(a *Admin) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Admin, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &credentialStore{
		db:     db,
		users:  users,
		admins: admins,
	}
}

func (s *credentialStore) Users() repository.Repository[*User] {
	return s.users
}

func (s *credentialStore) Admins() repository.Repository[*Admin] {
	return s.admins
}

// NormalizeEmail trims surrounding whitespace and lowercases the address so
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *credentialStore) FindByEmail(ctx context.Context, email string, roles ...Role) (*Credential, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, repository.NewRecordNotFound()
	}
	return s.findBy(ctx, "email", normalized, s.partitionsFor(roles))
}

func (s *credentialStore) FindByID(ctx context.Context, id string, roles ...Role) (*Credential, error) {
	trimmed := strings.TrimSpace(id)
	if _, err := uuid.Parse(trimmed); err != nil {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}
	return s.findBy(ctx, "id", trimmed, s.partitionsFor(roles))
}

func (s *credentialStore) partitionsFor(roles []Role) []Partition {
	if len(roles) > 0 && roles[0] != "" {
		return []Partition{PartitionForRole(roles[0])}
	}
	return []Partition{PartitionUsers, PartitionAdmins}
}

func (s *credentialStore) findBy(ctx context.Context, column, value string, partitions []Partition) (*Credential, error) {
	for _, partition := range partitions {
		var cred *Credential
		var err error

		switch partition {
		case PartitionAdmins:
			record := &Admin{}
			err = s.scanOne(ctx, record, column, value)
			if err == nil {
				cred = &record.Credential
			}
		default:
			record := &User{}
			err = s.scanOne(ctx, record, column, value)
			if err == nil {
				cred = &record.Credential
			}
		}

		if err != nil {
			if isRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return cred, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{column: value})
}

func (s *credentialStore) scanOne(ctx context.Context, model any, column, value string) error {
	return s.db.NewSelect().
		Model(model).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)
}

func (s *credentialStore) Register(ctx context.Context, record *Credential) (*Credential, error) {
	return s.RegisterTx(ctx, s.db, record)
}

func (s *credentialStore) RegisterTx(ctx context.Context, tx bun.IDB, record *Credential) (*Credential, error) {
	prepareCredentialDefaults(record)

	switch PartitionForRole(record.Role) {
	case PartitionAdmins:
		created, err := s.admins.CreateTx(ctx, tx, &Admin{Credential: *record})
		if err != nil {
			return nil, err
		}
		return &created.Credential, nil
	default:
		created, err := s.users.CreateTx(ctx, tx, &User{Credential: *record})
		if err != nil {
			return nil, err
		}
		return &created.Credential, nil
	}
}

func (s *credentialStore) TrackAttemptedLogin(ctx context.Context, record *Credential) error {
	now := time.Now()
	next := Credential{
		ID:             record.ID,
		LoginAttempts:  record.LoginAttempts + 1,
		LoginAttemptAt: &now,
	}

	criteria := repository.UpdateByID(record.ID.String())

	switch PartitionForRole(record.Role) {
	case PartitionAdmins:
		_, err := s.admins.UpdateTx(ctx, s.db, &Admin{Credential: next}, criteria)
		return err
	default:
		_, err := s.users.UpdateTx(ctx, s.db, &User{Credential: next}, criteria)
		return err
	}
}

func (s *credentialStore) TrackSuccessfulLogin(ctx context.Context, record *Credential) error {
	// NOTE: Updating through the ORM will not reset login_attempt_at and
	// login_attempts to their zero values, so we issue raw SQL.
	loggedInAt := time.Now()
	table := string(PartitionForRole(record.Role))
	_, err := s.db.NewRaw(fmt.Sprintf(`
		UPDATE "%s" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, table), loggedInAt, record.ID).Exec(ctx)

	return err
}

func prepareCredentialDefaults(record *Credential) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func isRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}
