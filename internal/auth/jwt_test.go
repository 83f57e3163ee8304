package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/models"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestTokenIssuer_AccessToken(t *testing.T) {
	issuer := newIssuer()
	user := &models.User{ID: 42, Email: "jane@example.com", Username: "jane", Role: models.RoleAdmin}

	token, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)

	claims, err := issuer.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	_, err = issuer.ParseRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RefreshToken(t *testing.T) {
	issuer := newIssuer()

	first, err := issuer.IssueRefreshToken(7)
	require.NoError(t, err)
	second, err := issuer.IssueRefreshToken(7)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := issuer.ParseRefreshToken(first)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)

	_, err = issuer.ParseAccessToken(first)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Rejections(t *testing.T) {
	issuer := newIssuer()

	expired := NewTokenIssuer("access-secret", "refresh-secret", -time.Minute, time.Hour)
	token, err := expired.IssueAccessToken(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = issuer.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewTokenIssuer("other-secret", "refresh-secret", time.Hour, time.Hour)
	token, err = foreign.IssueAccessToken(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = issuer.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, TokenType: tokenTypeAccess})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ParseAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
