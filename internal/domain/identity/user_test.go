package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/domain/shared"
)

func TestNewUser(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		user, err := NewUser(" user_2abc ", " Jane@Example.COM ", " Jane Doe ")
		require.NoError(t, err)

		assert.Equal(t, "user_2abc", user.ExternalID)
		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, "Jane Doe", user.Name)
		assert.Equal(t, DefaultLanguage, user.Language)
		assert.Equal(t, RoleUser, user.Role)
		assert.Equal(t, DefaultAPIMaxCalls, user.APIMaxCalls)
		assert.Zero(t, user.APICallsCount)
		assert.False(t, user.FirstConnection.IsZero())
	})

	t.Run("rejects empty external id", func(t *testing.T) {
		_, err := NewUser("  ", "a@b.c", "")
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_EXTERNAL_ID", de.Code)
	})
}

func TestUser_GrantQuotaResetsUsage(t *testing.T) {
	user, err := NewUser("ext", "", "")
	require.NoError(t, err)
	user.APICallsCount = 42

	user.GrantQuota(5000)

	assert.Equal(t, 5000, user.APIMaxCalls)
	assert.Zero(t, user.APICallsCount)
	assert.Equal(t, 2, user.Version)
}

func TestUser_RecordAPICall(t *testing.T) {
	user, err := NewUser("ext", "", "")
	require.NoError(t, err)
	user.GrantQuota(2)

	require.NoError(t, user.RecordAPICall())
	require.NoError(t, user.RecordAPICall())
	assert.Equal(t, 0, user.RemainingCalls())

	err = user.RecordAPICall()
	assert.ErrorIs(t, err, shared.ErrQuotaExceeded)
	assert.Equal(t, 2, user.APICallsCount)
}

func TestUser_SetLanguage(t *testing.T) {
	user, err := NewUser("ext", "", "")
	require.NoError(t, err)

	tests := []struct {
		tag  string
		want string
	}{
		{"FR", "fr"},
		{"de-AT", "de"},
		{"es_419", "es"},
		{" en-GB ", "en"},
	}
	for _, tt := range tests {
		require.NoError(t, user.SetLanguage(tt.tag), tt.tag)
		assert.Equal(t, tt.want, user.Language, tt.tag)
	}

	for _, bad := range []string{"it", "xx", "", "not a tag"} {
		assert.ErrorIs(t, user.SetLanguage(bad), ErrUnsupportedLanguage, bad)
	}
	assert.Equal(t, "en", user.Language)
}

func TestUser_MarkSeen(t *testing.T) {
	user, err := NewUser("ext", "", "")
	require.NoError(t, err)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	user.MarkSeen(at)

	assert.Equal(t, at, user.LastConnection)
	assert.Equal(t, 1, user.Version)
}

func TestUser_PromoteToAdmin(t *testing.T) {
	user, err := NewUser("ext", "", "")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin())

	user.PromoteToAdmin()
	assert.True(t, user.IsAdmin())
}
