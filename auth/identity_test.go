package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestFromTokenReadsClaims(t *testing.T) {
	token := signed(t, jwt.MapClaims{"sub": "l7", "source": "lawyer-portal", "name": "Adv. Sam"})

	id, err := FromToken("Bearer "+token, "", "")
	require.NoError(t, err)
	assert.Equal(t, "l7", id.UserID)
	assert.Equal(t, models.KindLawyer, id.Kind)
	assert.Equal(t, "Adv. Sam", id.Name)
	assert.Equal(t, token, id.Token)
}

func TestFromTokenOpaque(t *testing.T) {
	id, err := FromToken("opaque-token", "u1", "user")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, models.KindClient, id.Kind)
}

func TestFromTokenExplicitUserWins(t *testing.T) {
	token := signed(t, jwt.MapClaims{"sub": "other", "role": "user"})

	id, err := FromToken(token, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
}

func TestFromTokenMissing(t *testing.T) {
	_, err := FromToken("", "u1", "user")
	assert.True(t, errors.Is(err, ErrNotAuthenticated))

	_, err = FromToken("opaque", "", "user")
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
}

func TestFromLoginLawyer(t *testing.T) {
	id, err := FromLogin(backend.LoginResponse{Token: "opaque", LawyerID: "l1", Name: "Adv. Harry"})
	require.NoError(t, err)
	assert.True(t, id.IsLawyer())
	assert.Equal(t, "l1", id.UserID)
	assert.Equal(t, "Adv. Harry", id.Name)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Client")
	assert.True(t, ok)
	assert.Equal(t, models.KindClient, k)

	_, ok = ParseKind("admin")
	assert.False(t, ok)
}
