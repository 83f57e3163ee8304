package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireIDParams(t *testing.T) {
	r := gin.New()
	r.GET("/items/:id/notes/:noteId", RequireIDParams("id", "noteId"), func(c *gin.Context) {
		id, _ := GetIDParam(c, "id")
		noteID, _ := GetIDParam(c, "noteId")
		c.JSON(http.StatusOK, gin.H{"id": id, "noteId": noteID})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/items/12/notes/3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":12,"noteId":3}`, w.Body.String())

	for _, path := range []string{"/items/abc/notes/3", "/items/0/notes/3", "/items/1/notes/-4"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestRequireAuth(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "jane@example.com", models.RoleAdmin)
	issuer := auth.NewTokenIssuer("access-secret", "refresh-secret", time.Hour, time.Hour)

	r := gin.New()
	r.GET("/me", RequireAuth(issuer, repository.NewUserRepository(db)), func(c *gin.Context) {
		identity, _ := auth.GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": identity.ID, "role": identity.Role})
	})

	token, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"ADMIN"`)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: token})
		assert.Equal(t, http.StatusOK, serve(r, req).Code)
	})

	t.Run("role comes from the store", func(t *testing.T) {
		require.NoError(t, db.Model(user).Update("role", models.RoleUser).Error)
		t.Cleanup(func() { db.Model(user).Update("role", models.RoleAdmin) })

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"USER"`)
	})

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		refresh, err := issuer.IssueRefreshToken(user.ID)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost, err := issuer.IssueAccessToken(&models.User{ID: 9999})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+ghost)
		assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	})
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			auth.SetIdentity(c, auth.Identity{ID: 1, Role: models.Role(role)})
		}
	}, RequireRole(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	request := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if role != "" {
			req.Header.Set("X-Test-Role", role)
		}
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusNoContent, request("ADMIN"))
	assert.Equal(t, http.StatusNoContent, request("SUPERADMIN"))
	assert.Equal(t, http.StatusForbidden, request("USER"))
	assert.Equal(t, http.StatusUnauthorized, request(""))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(constants.ContextKeyRequestID))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(constants.RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.RequestIDHeader, "req-123")
	w = serve(r, req)
	assert.Equal(t, "req-123", w.Header().Get(constants.RequestIDHeader))
}

func TestNewRateLimiter(t *testing.T) {
	_, err := NewRateLimiter("not-a-rate", nil)
	assert.Error(t, err)

	open, err := NewRateLimiter("", nil)
	require.NoError(t, err)

	limited, err := NewRateLimiter("2-M", nil)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/open", open, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/limited", limited, func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/open", nil)).Code)
	}

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/limited", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/limited", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(Secure(SecureOptions(true)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}
