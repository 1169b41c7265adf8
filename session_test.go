package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/kiranaher5171/jobportal-auth"
)

func TestSessionObjectGetters(t *testing.T) {
	issued := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	expires := issued.Add(15 * time.Minute)

	session := &auth.SessionObject{
		UserID:         "11111111-2222-3333-4444-555555555555",
		UserEmail:      "jobseeker@example.com",
		UserRole:       auth.RoleUser,
		UserName:       "Job Seeker",
		IssuedAt:       &issued,
		ExpirationDate: &expires,
	}

	assert.Equal(t, "11111111-2222-3333-4444-555555555555", session.GetUserID())
	assert.Equal(t, "jobseeker@example.com", session.GetEmail())
	assert.Equal(t, auth.RoleUser, session.GetRole())
	assert.Equal(t, "Job Seeker", session.GetDisplayName())
	require.NotNil(t, session.GetIssuedAt())
	assert.True(t, session.GetIssuedAt().Equal(issued))
	require.NotNil(t, session.GetExpiration())
	assert.True(t, session.GetExpiration().Equal(expires))
	assert.False(t, session.IsAdmin())
}

func TestSessionObjectUserUUID(t *testing.T) {
	session := &auth.SessionObject{UserID: "11111111-2222-3333-4444-555555555555"}

	id, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", id.String())

	session.UserID = "not-a-uuid"
	_, err = session.GetUserUUID()
	assert.Error(t, err)
}

func TestSessionObjectAdmin(t *testing.T) {
	session := &auth.SessionObject{UserRole: auth.RoleAdmin}
	assert.True(t, session.IsAdmin())
}

func TestSessionObjectString(t *testing.T) {
	issued := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	session := auth.SessionObject{
		UserID:    "user-1",
		UserEmail: "jobseeker@example.com",
		UserRole:  auth.RoleUser,
		IssuedAt:  &issued,
	}

	out := session.String()
	assert.Contains(t, out, "user-1")
	assert.Contains(t, out, "jobseeker@example.com")

	blank := auth.SessionObject{}
	assert.Contains(t, blank.String(), "<nil>")
}
