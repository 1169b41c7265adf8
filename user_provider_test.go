package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/kiranaher5171/jobportal-auth"
)

func seedCredential(t *testing.T, store *fakeCredentials, email string, role auth.Role, password string) *auth.Credential {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	cred := &auth.Credential{
		ID:           uuid.New(),
		Role:         role,
		DisplayName:  "Test Person",
		Email:        email,
		PasswordHash: hash,
	}
	store.addCredential(cred)
	return cred
}

func TestVerifyIdentitySuccess(t *testing.T) {
	store := newFakeCredentials()
	cred := seedCredential(t, store, "jobseeker@example.com", auth.RoleUser, "s3cret-password")

	provider := auth.NewCredentialProvider(store)

	identity, err := provider.VerifyIdentity(context.Background(), "jobseeker@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, cred.ID.String(), identity.ID())
	assert.Equal(t, auth.RoleUser, identity.Role())
	assert.Equal(t, "Test Person", identity.DisplayName())
}

func TestVerifyIdentityUniformError(t *testing.T) {
	store := newFakeCredentials()
	seedCredential(t, store, "jobseeker@example.com", auth.RoleUser, "s3cret-password")

	provider := auth.NewCredentialProvider(store)

	// wrong password
	_, wrongPwd := provider.VerifyIdentity(context.Background(), "jobseeker@example.com", "nope")
	// unknown email
	_, unknown := provider.VerifyIdentity(context.Background(), "ghost@example.com", "nope")

	require.Error(t, wrongPwd)
	require.Error(t, unknown)
	assert.True(t, errors.Is(wrongPwd, auth.ErrInvalidCredentials))
	assert.True(t, errors.Is(unknown, auth.ErrInvalidCredentials))
	assert.Equal(t, wrongPwd.Error(), unknown.Error())
}

func TestVerifyIdentityEmailNormalization(t *testing.T) {
	store := newFakeCredentials()
	seedCredential(t, store, "jobseeker@example.com", auth.RoleUser, "s3cret-password")

	provider := auth.NewCredentialProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "  JobSeeker@Example.COM ", "s3cret-password")
	assert.NoError(t, err)
}

func TestVerifyIdentityPartitionHint(t *testing.T) {
	store := newFakeCredentials()
	seedCredential(t, store, "person@example.com", auth.RoleUser, "user-password")
	seedCredential(t, store, "person@example.com", auth.RoleAdmin, "admin-password")

	provider := auth.NewCredentialProvider(store)

	// hint selects the admin partition even though the users partition has
	// the same email
	identity, err := provider.VerifyIdentity(context.Background(), "person@example.com", "admin-password", auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, identity.Role())

	// without a hint the users partition wins
	identity, err = provider.VerifyIdentity(context.Background(), "person@example.com", "user-password")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, identity.Role())
}

func TestVerifyIdentityTracksFailedAttempts(t *testing.T) {
	store := newFakeCredentials()
	cred := seedCredential(t, store, "jobseeker@example.com", auth.RoleUser, "s3cret-password")

	provider := auth.NewCredentialProvider(store)

	for i := 0; i < 3; i++ {
		_, err := provider.VerifyIdentity(context.Background(), "jobseeker@example.com", "nope")
		require.Error(t, err)
	}
	assert.Equal(t, 3, cred.LoginAttempts)

	// success resets the counter
	_, err := provider.VerifyIdentity(context.Background(), "jobseeker@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, 0, cred.LoginAttempts)
}

func TestVerifyIdentityCooldown(t *testing.T) {
	store := newFakeCredentials()
	cred := seedCredential(t, store, "jobseeker@example.com", auth.RoleUser, "s3cret-password")

	recent := time.Now().Add(-time.Hour)
	cred.LoginAttempts = auth.MaxLoginAttempts + 1
	cred.LoginAttemptAt = &recent

	provider := auth.NewCredentialProvider(store)

	// even the right password is refused inside the cooldown window
	_, err := provider.VerifyIdentity(context.Background(), "jobseeker@example.com", "s3cret-password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrTooManyLoginAttempts))

	// window elapsed, counter resets and login goes through
	old := time.Now().Add(-25 * time.Hour)
	cred.LoginAttemptAt = &old

	_, err = provider.VerifyIdentity(context.Background(), "jobseeker@example.com", "s3cret-password")
	assert.NoError(t, err)
}

func TestVerifyIdentityRejectsUnknownRole(t *testing.T) {
	store := newFakeCredentials()
	cred := seedCredential(t, store, "odd@example.com", auth.RoleUser, "s3cret-password")
	cred.Role = "superuser"

	provider := auth.NewCredentialProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "odd@example.com", "s3cret-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown or invalid role")
}

func TestFindIdentityByEmail(t *testing.T) {
	store := newFakeCredentials()
	cred := seedCredential(t, store, "jobseeker@example.com", auth.RoleUser, "s3cret-password")

	provider := auth.NewCredentialProvider(store)

	identity, err := provider.FindIdentityByEmail(context.Background(), "jobseeker@example.com")
	require.NoError(t, err)
	assert.Equal(t, cred.Email, identity.Email())

	_, err = provider.FindIdentityByEmail(context.Background(), "ghost@example.com")
	assert.Error(t, err)
}
