package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
)

// RequireAuth verifies the access token and stores the caller's Identity in the context.
// Role and company are read from the store, not from the token claims.
func RequireAuth(issuer *auth.TokenIssuer, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		claims, err := issuer.ParseAccessToken(token)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired access token")
			return
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired access token")
			return
		}

		auth.SetIdentity(c, auth.IdentityFromUser(user))
		c.Next()
	}
}

// accessToken reads the token from the access cookie, then the Authorization header
func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(constants.AccessTokenCookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireRole rejects identities whose role is not listed. Use after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := auth.GetIdentity(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		if err := policy.RequireRole(identity, roles...); err != nil {
			apierrors.Denied(c, err.(*policy.Denial))
			return
		}
		c.Next()
	}
}
