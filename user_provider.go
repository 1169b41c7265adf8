package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// CredentialProvider handles identity verification over the partitioned
// credential store.
type CredentialProvider struct {
	store     Credentials
	Validator func(*Credential) error
	logger    Logger
}

// MaxLoginAttempts is the maximum number of failed attempts a principal
// gets within the cooldown period.
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// NewCredentialProvider will create a new CredentialProvider
func NewCredentialProvider(store Credentials) *CredentialProvider {
	return &CredentialProvider{
		store:     store,
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (p *CredentialProvider) WithLogger(l Logger) *CredentialProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *CredentialProvider) validate(record *Credential) error {
	if p.Validator != nil {
		return p.Validator(record)
	}
	return defaultValidator(record)
}

// VerifyIdentity finds the credential, compares the password, and returns
// the identity. A missing email and a wrong password produce the identical
// error so callers cannot probe which accounts exist.
func (p CredentialProvider) VerifyIdentity(ctx context.Context, email, password string, roles ...Role) (Identity, error) {
	record, err := p.store.FindByEmail(ctx, email, roles...)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve credential during verification")
	}

	if record.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*record.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			record.LoginAttempts = 0
		}
	}

	// too many attempts in the window, cool off
	if record.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		if err2 := p.store.TrackAttemptedLogin(ctx, record); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	if err := p.store.TrackSuccessfulLogin(ctx, record); err != nil {
		p.logger.Error("failed to track successful login", "error", err)
	}

	if err := p.validate(record); err != nil {
		return nil, err
	}

	return IdentityFromCredential(record), nil
}

// FindIdentityByEmail looks up an identity without verifying a password.
func (p CredentialProvider) FindIdentityByEmail(ctx context.Context, email string, roles ...Role) (Identity, error) {
	record, err := p.store.FindByEmail(ctx, email, roles...)
	if err != nil {
		return nil, err
	}

	if err := p.validate(record); err != nil {
		return nil, err
	}

	return IdentityFromCredential(record), nil
}

var _ IdentityProvider = (*CredentialProvider)(nil)

func defaultValidator(c *Credential) error {
	if c == nil {
		return ErrInvalidCredentials
	}

	switch c.Role {
	case RoleUser, RoleAdmin:
		return nil
	default:
		return errors.New("credential has an unknown or invalid role", errors.CategoryAuth).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": c.Role, "user_id": c.ID.String()})
	}
}
