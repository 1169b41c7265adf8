package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/kiranaher5171/jobportal-auth"
)

func tokenTestConfig() *auth.SimpleConfig {
	return &auth.SimpleConfig{
		SigningKey:      "test-signing-key",
		Issuer:          "jobportal",
		Audience:        []string{"jobportal-web"},
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func seekerIdentity() testIdentity {
	return testIdentity{
		id:          "11111111-2222-3333-4444-555555555555",
		email:       "jobseeker@example.com",
		role:        auth.RoleUser,
		displayName: "Job Seeker",
	}
}

func TestTokenServiceMintAndValidateRoundTrip(t *testing.T) {
	service := auth.NewTokenService(tokenTestConfig())
	identity := seekerIdentity()

	token, expiresAt, err := service.MintAccessToken(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, identity.email, claims.Email())
	assert.Equal(t, auth.RoleUser, claims.Role())
	assert.Equal(t, "Job Seeker", claims.DisplayName())
	assert.Equal(t, auth.TokenKindAccess, claims.Kind())
	assert.False(t, claims.IsAdmin())
}

func TestTokenServiceRoleClaimMatchesIdentity(t *testing.T) {
	service := auth.NewTokenService(tokenTestConfig())

	admin := testIdentity{
		id:    "99999999-8888-7777-6666-555555555555",
		email: "ops@example.com",
		role:  auth.RoleAdmin,
	}

	token, _, err := service.MintAccessToken(admin)
	require.NoError(t, err)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role())
	assert.True(t, claims.IsAdmin())
}

func TestTokenServiceExpiredToken(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := now

	service := auth.NewTokenService(
		tokenTestConfig(),
		auth.WithTokenClock(func() time.Time { return clock }),
	)

	token, _, err := service.MintAccessToken(seekerIdentity())
	require.NoError(t, err)

	// still valid just before the TTL (with leeway)
	clock = now.Add(14 * time.Minute)
	_, err = service.Validate(token)
	require.NoError(t, err)

	clock = now.Add(16 * time.Minute)
	_, err = service.Validate(token)
	require.Error(t, err)
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestTokenServiceTamperedToken(t *testing.T) {
	service := auth.NewTokenService(tokenTestConfig())

	token, _, err := service.MintAccessToken(seekerIdentity())
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = service.Validate(tampered)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenServiceWrongSigningKey(t *testing.T) {
	service := auth.NewTokenService(tokenTestConfig())

	otherCfg := tokenTestConfig()
	otherCfg.SigningKey = "a-different-key"
	other := auth.NewTokenService(otherCfg)

	token, _, err := other.MintAccessToken(seekerIdentity())
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenServiceKindSeparation(t *testing.T) {
	service := auth.NewTokenService(tokenTestConfig())
	identity := seekerIdentity()

	access, _, err := service.MintAccessToken(identity)
	require.NoError(t, err)
	refresh, refreshExp, err := service.MintRefreshToken(identity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), refreshExp, 5*time.Second)

	// a refresh token is not an access token
	_, err = service.Validate(refresh)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))

	// and an access token is not a refresh token
	_, err = service.ValidateRefresh(access)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))

	_, err = service.ValidateRefresh(refresh)
	require.NoError(t, err)
}

func TestTokenServiceClaimsDecorator(t *testing.T) {
	decorated := auth.NewTokenService(
		tokenTestConfig(),
		auth.WithClaimsDecorators(auth.ClaimsDecoratorFunc(
			func(_ context.Context, _ auth.Identity, claims *auth.JWTClaims) error {
				claims.UserName = "Decorated Name"
				return nil
			},
		)),
	)

	token, _, err := decorated.MintAccessToken(seekerIdentity())
	require.NoError(t, err)

	claims, err := decorated.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "Decorated Name", claims.DisplayName())
}

func TestTokenServiceDecoratorCannotEscalateRole(t *testing.T) {
	service := auth.NewTokenService(
		tokenTestConfig(),
		auth.WithClaimsDecorators(auth.ClaimsDecoratorFunc(
			func(_ context.Context, _ auth.Identity, claims *auth.JWTClaims) error {
				claims.UserRole = auth.RoleAdmin
				return nil
			},
		)),
	)

	_, _, err := service.MintAccessToken(seekerIdentity())
	require.Error(t, err)
	assert.ErrorContains(t, err, "immutable claim")
}

func TestMultiTokenValidatorFallsThrough(t *testing.T) {
	oldCfg := tokenTestConfig()
	oldCfg.SigningKey = "rotated-out-key"
	oldService := auth.NewTokenService(oldCfg)

	newService := auth.NewTokenService(tokenTestConfig())

	validator := auth.NewMultiTokenValidator(
		auth.TokenValidatorFunc(newService.Validate),
		auth.TokenValidatorFunc(oldService.Validate),
	)

	oldToken, _, err := oldService.MintAccessToken(seekerIdentity())
	require.NoError(t, err)
	newToken, _, err := newService.MintAccessToken(seekerIdentity())
	require.NoError(t, err)

	for _, token := range []string{oldToken, newToken} {
		claims, err := validator.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "jobseeker@example.com", claims.Email())
	}

	_, err = validator.Validate("not-a-token")
	require.Error(t, err)
}
