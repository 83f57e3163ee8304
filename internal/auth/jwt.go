package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/project-management-api/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims carried by access and refresh tokens. Role and company are informational;
// the authentication middleware reloads them from the store.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uint64      `json:"user_id"`
	Email     string      `json:"email,omitempty"`
	Username  string      `json:"username,omitempty"`
	Role      models.Role `json:"role,omitempty"`
	TokenType string      `json:"token_type"`
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (t *TokenIssuer) AccessExpiry() time.Duration  { return t.accessExpiry }
func (t *TokenIssuer) RefreshExpiry() time.Duration { return t.refreshExpiry }

// IssueAccessToken signs a short-lived token for user.
func (t *TokenIssuer) IssueAccessToken(user *models.User) (string, error) {
	claims := t.newClaims(user.ID, tokenTypeAccess, t.accessExpiry)
	claims.Email = user.Email
	claims.Username = user.Username
	claims.Role = user.Role
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
}

// IssueRefreshToken signs a long-lived token carrying only the user id.
func (t *TokenIssuer) IssueRefreshToken(userID uint64) (string, error) {
	claims := t.newClaims(userID, tokenTypeRefresh, t.refreshExpiry)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
}

func (t *TokenIssuer) ParseAccessToken(tokenString string) (*Claims, error) {
	return t.parse(tokenString, t.accessSecret, tokenTypeAccess)
}

func (t *TokenIssuer) ParseRefreshToken(tokenString string) (*Claims, error) {
	return t.parse(tokenString, t.refreshSecret, tokenTypeRefresh)
}

func (t *TokenIssuer) newClaims(userID uint64, tokenType string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: tokenType,
	}
}

func (t *TokenIssuer) parse(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
