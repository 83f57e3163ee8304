package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/queue"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/testutil"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	issuer *auth.TokenIssuer
}

func setupAPITestEnv(t *testing.T) apiTestEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := zerolog.Nop()

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	featureRepo := repository.NewFeatureRepository(db)

	pol := policy.New(true)
	engine := integrity.NewEngine(db, log)
	issuer := auth.NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	authService := services.NewAuthService(userRepo, engine, issuer, queue.NewNoopEnqueuer(log), services.AuthSettings{
		PublicBaseURL:        "http://api.test",
		TemporaryTokenExpiry: 20 * time.Minute,
	}, log)
	userService := services.NewUserService(userRepo, companyRepo, engine, pol, authService, log)
	companyService := services.NewCompanyService(companyRepo, pol)
	projectService := services.NewProjectService(projectRepo, featureRepo, userRepo, engine, pol)
	featureService := services.NewFeatureService(featureRepo, projectRepo, userRepo, engine, pol, nil)

	cookies := CookieSettings{AccessExpiry: time.Hour, RefreshExpiry: 24 * time.Hour}
	routes := Handlers{
		Auth:    NewAuthHandler(authService, userService, cookies),
		OAuth:   NewOAuthHandler(auth.NewOAuthStrategies(auth.OAuthConfig{}), authService, cookies, "http://app.test/sso"),
		Company: NewCompanyHandler(companyService, userService),
		Project: NewProjectHandler(projectService),
		Feature: NewFeatureHandler(featureService, projectService),
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/health", NewHealthHandler(db, nil).Health)
	noLimit := func(c *gin.Context) { c.Next() }
	RegisterRoutes(r.Group("/api/v1"), routes, middleware.RequireAuth(issuer, userRepo), noLimit)

	return apiTestEnv{db: db, router: r, issuer: issuer}
}

func (env apiTestEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := env.issuer.IssueAccessToken(user)
	require.NoError(t, err)
	return token
}

// do sends a JSON request and returns the recorder. token may be empty.
func (env apiTestEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Code       string          `json:"code"`
	Errors     []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.Equal(t, w.Code, env.StatusCode)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type idResponse struct {
	ID uint64 `json:"id"`
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	env := setupAPITestEnv(t)

	for _, path := range []string{"/api/v1/projects", "/api/v1/users/current-user", "/api/v1/companies/get-users"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
		body := decodeEnvelope(t, w, nil)
		assert.False(t, body.Success)
		assert.Equal(t, "UNAUTHORIZED", body.Code)
	}
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	env := setupAPITestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"name": "Jane", "email": "Jane@Example.com", "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered struct {
		Email           string `json:"email"`
		Role            string `json:"role"`
		IsEmailVerified bool   `json:"isEmailVerified"`
	}
	body := decodeEnvelope(t, w, &registered)
	assert.True(t, body.Success)
	assert.Equal(t, "jane@example.com", registered.Email)
	assert.Equal(t, "USER", registered.Role)
	assert.False(t, registered.IsEmailVerified)

	w = env.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "supersecret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "jane@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, w, nil).Code)

	w = env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "jane@example.com", "password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decodeEnvelope(t, w, &login)
	assert.NotEmpty(t, login.AccessToken)

	var sawAccess, sawRefresh bool
	for _, c := range w.Result().Cookies() {
		switch c.Name {
		case constants.AccessTokenCookieName:
			sawAccess = c.HttpOnly && c.Value == login.AccessToken
		case constants.RefreshTokenCookieName:
			sawRefresh = c.HttpOnly && c.Value == login.RefreshToken
		}
	}
	assert.True(t, sawAccess)
	assert.True(t, sawRefresh)

	w = env.do(t, http.MethodGet, "/api/v1/users/current-user", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_ValidationEnvelope(t *testing.T) {
	env := setupAPITestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"name": "Jane", "email": "not-an-email", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w, nil)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	fields := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)
}

func TestAPI_SuperAdminCreatesCompany(t *testing.T) {
	env := setupAPITestEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/v1/companies", env.token(t, root), map[string]string{
		"name": "Acme", "email": "a@acme.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var company struct {
		ID      uint64 `json:"id"`
		OwnerID uint64 `json:"ownerId"`
		Users   []struct {
			ID uint64 `json:"id"`
		} `json:"users"`
	}
	decodeEnvelope(t, w, &company)
	assert.Equal(t, root.ID, company.OwnerID)
	require.Len(t, company.Users, 1)
	assert.Equal(t, root.ID, company.Users[0].ID)

	w = env.do(t, http.MethodPost, "/api/v1/companies", env.token(t, admin), map[string]string{
		"name": "Other", "email": "o@other.com",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ROLE_INSUFFICIENT", decodeEnvelope(t, w, nil).Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/companies/%d", company.ID), env.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/companies/abc", env.token(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_AdminCreatesUserInOwnCompany(t *testing.T) {
	env := setupAPITestEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	c1 := testutil.CreateCompany(t, env.db, "C1", "c1@example.com", root, models.CompanyStatusActive)
	c2 := testutil.CreateCompany(t, env.db, "C2", "c2@example.com", root, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, c1, admin)

	w := env.do(t, http.MethodPost, "/api/v1/companies/create-user", env.token(t, admin), map[string]any{
		"name": "New", "email": "new@x.com", "password": "password123", "role": "USER", "companyId": c2.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID        uint64  `json:"id"`
		CompanyID *uint64 `json:"companyId"`
		Role      string  `json:"role"`
	}
	decodeEnvelope(t, w, &created)
	require.NotNil(t, created.CompanyID)
	assert.Equal(t, c1.ID, *created.CompanyID)
	assert.Equal(t, "USER", created.Role)

	w = env.do(t, http.MethodGet, "/api/v1/companies/get-users", env.token(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var users struct {
		CompanyID uint64 `json:"companyId"`
		Users     []struct {
			Email string `json:"email"`
		} `json:"users"`
	}
	decodeEnvelope(t, w, &users)
	assert.Equal(t, c1.ID, users.CompanyID)
	emails := make([]string, 0, len(users.Users))
	for _, u := range users.Users {
		emails = append(emails, u.Email)
	}
	assert.Contains(t, emails, "new@x.com")

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/companies/%d/change-role", created.ID), env.token(t, admin), map[string]string{"role": "ADMIN"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/companies/%d/change-role", created.ID), env.token(t, admin), map[string]string{"role": "ADMIN"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SAME_ROLE", decodeEnvelope(t, w, nil).Code)

	user := testutil.CreateUser(t, env.db, "plain@example.com", models.RoleUser)
	w = env.do(t, http.MethodPost, "/api/v1/companies/create-user", env.token(t, user), map[string]any{
		"name": "Nope", "email": "nope@x.com", "password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_FeatureLifecycle(t *testing.T) {
	env := setupAPITestEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	u1 := testutil.CreateUser(t, env.db, "u1@example.com", models.RoleUser)
	u2 := testutil.CreateUser(t, env.db, "u2@example.com", models.RoleUser)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", root, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, company, admin)
	adminToken := env.token(t, admin)

	w := env.do(t, http.MethodPost, "/api/v1/projects", adminToken, map[string]any{"name": "Apollo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project struct {
		ID        uint64  `json:"id"`
		CompanyID *uint64 `json:"companyId"`
	}
	decodeEnvelope(t, w, &project)
	require.NotNil(t, project.CompanyID)
	assert.Equal(t, company.ID, *project.CompanyID)

	t.Run("unknown project", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/features", adminToken, map[string]any{"title": "Ghost", "projectId": 9999})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Feature{}))
	})

	createFeature := func(title string) uint64 {
		w := env.do(t, http.MethodPost, "/api/v1/features", adminToken, map[string]any{"title": title, "projectId": project.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var f idResponse
		decodeEnvelope(t, w, &f)
		return f.ID
	}
	f1 := createFeature("Login")
	f2 := createFeature("Signup")

	t.Run("assign users dedupes", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/features/%d/assign-users", f1), adminToken,
			map[string]any{"userIds": []uint64{u1.ID, u1.ID, u2.ID}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var feature struct {
			AssignedTo []struct {
				ID uint64 `json:"id"`
			} `json:"assignedTo"`
		}
		decodeEnvelope(t, w, &feature)
		ids := make([]uint64, 0, len(feature.AssignedTo))
		for _, a := range feature.AssignedTo {
			ids = append(ids, a.ID)
		}
		assert.ElementsMatch(t, []uint64{u1.ID, u2.ID}, ids)
	})

	t.Run("toggle completion", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/features/%d/toggle-completion", f2), adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var feature struct {
			Status      string `json:"status"`
			IsCompleted bool   `json:"isCompleted"`
		}
		decodeEnvelope(t, w, &feature)
		assert.Equal(t, "completed", feature.Status)
		assert.True(t, feature.IsCompleted)
	})

	t.Run("comments", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/features/%d/comments", f1), env.token(t, u1), map[string]string{"text": "On it"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var feature struct {
			Comments []struct {
				ID        uint64 `json:"id"`
				CreatedBy uint64 `json:"createdBy"`
			} `json:"comments"`
		}
		decodeEnvelope(t, w, &feature)
		require.Len(t, feature.Comments, 1)
		assert.Equal(t, u1.ID, feature.Comments[0].CreatedBy)

		path := fmt.Sprintf("/api/v1/features/%d/comments/%d", f1, feature.Comments[0].ID)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, env.token(t, u2), nil).Code)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, path, env.token(t, u1), nil).Code)
	})

	t.Run("list by project", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/features/project/%d?isCompleted=false", project.ID), adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var list struct {
			Features []idResponse `json:"features"`
		}
		decodeEnvelope(t, w, &list)
		require.Len(t, list.Features, 1)
		assert.Equal(t, f1, list.Features[0].ID)
	})

	t.Run("generate without ai", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/features/generate", adminToken, map[string]any{"projectId": project.ID, "text": "build a login page"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("delete project cascades", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d", project.ID), adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		for _, id := range []uint64{f1, f2} {
			w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/features/%d", id), adminToken, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, w, nil).Code)
		}
	})
}

func TestAPI_ProjectOwnership(t *testing.T) {
	env := setupAPITestEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	creator := testutil.CreateUser(t, env.db, "creator@example.com", models.RoleAdmin)
	other := testutil.CreateUser(t, env.db, "other@example.com", models.RoleUser)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", root, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, company, creator)
	testutil.AddToCompany(t, env.db, company, other)
	project := testutil.CreateProject(t, env.db, "Apollo", creator)

	path := fmt.Sprintf("/api/v1/projects/%d", project.ID)

	w := env.do(t, http.MethodPatch, path, env.token(t, other), map[string]string{"name": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_OWNER", decodeEnvelope(t, w, nil).Code)

	w = env.do(t, http.MethodPatch, "/api/v1/projects/9999", env.token(t, other), map[string]string{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPatch, path+"/toggle-visibility", env.token(t, creator), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled struct {
		IsShown bool `json:"isShown"`
	}
	decodeEnvelope(t, w, &toggled)
	assert.Equal(t, !project.IsShown, toggled.IsShown)

	w = env.do(t, http.MethodPost, path+"/members", env.token(t, creator), map[string]any{"userId": other.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, path+"/members", env.token(t, creator), map[string]any{"userId": other.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodDelete, path+"/members", env.token(t, creator), map[string]any{"userId": creator.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_NullClearsOptionalFields(t *testing.T) {
	env := setupAPITestEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	creator := testutil.CreateUser(t, env.db, "creator@example.com", models.RoleAdmin)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", root, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, company, creator)
	project := testutil.CreateProject(t, env.db, "Apollo", creator)

	companyPath := fmt.Sprintf("/api/v1/companies/%d", company.ID)
	var companyBody struct {
		Domain *string `json:"domain"`
	}
	w := env.do(t, http.MethodPatch, companyPath, env.token(t, root), map[string]any{"domain": "acme.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeEnvelope(t, w, &companyBody)
	require.NotNil(t, companyBody.Domain)
	assert.Equal(t, "acme.com", *companyBody.Domain)

	w = env.do(t, http.MethodPatch, companyPath, env.token(t, root), map[string]any{"domain": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	companyBody.Domain = nil
	decodeEnvelope(t, w, &companyBody)
	assert.Nil(t, companyBody.Domain)
	var stored models.Company
	require.NoError(t, env.db.First(&stored, company.ID).Error)
	assert.Nil(t, stored.Domain)

	projectPath := fmt.Sprintf("/api/v1/projects/%d", project.ID)
	var projectBody struct {
		Name     string     `json:"name"`
		Deadline *time.Time `json:"deadline"`
	}
	w = env.do(t, http.MethodPatch, projectPath, env.token(t, creator), map[string]any{
		"deadline": time.Now().Add(48 * time.Hour).UTC(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeEnvelope(t, w, &projectBody)
	require.NotNil(t, projectBody.Deadline)

	// Absent keys leave the deadline alone; null clears it.
	w = env.do(t, http.MethodPatch, projectPath, env.token(t, creator), map[string]any{"name": "Apollo II"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeEnvelope(t, w, &projectBody)
	assert.NotNil(t, projectBody.Deadline)

	w = env.do(t, http.MethodPatch, projectPath, env.token(t, creator), map[string]any{"deadline": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	projectBody.Deadline = nil
	decodeEnvelope(t, w, &projectBody)
	assert.Equal(t, "Apollo II", projectBody.Name)
	assert.Nil(t, projectBody.Deadline)
}

func TestAPI_ListCompanyUsersTenancy(t *testing.T) {
	env := setupAPITestEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	member := testutil.CreateUser(t, env.db, "member@example.com", models.RoleUser)
	acme := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", root, models.CompanyStatusActive)
	globex := testutil.CreateCompany(t, env.db, "Globex", "g@globex.com", root, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, acme, admin)
	testutil.AddToCompany(t, env.db, acme, member)

	foreign := fmt.Sprintf("/api/v1/companies/get-users?companyId=%d", globex.ID)

	w := env.do(t, http.MethodGet, foreign, env.token(t, member), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "CROSS_TENANT_DENIED", decodeEnvelope(t, w, nil).Code)

	w = env.do(t, http.MethodGet, foreign, env.token(t, admin), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "CROSS_TENANT_DENIED", decodeEnvelope(t, w, nil).Code)

	w = env.do(t, http.MethodGet, "/api/v1/companies/get-users", env.token(t, member), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ROLE_INSUFFICIENT", decodeEnvelope(t, w, nil).Code)

	w = env.do(t, http.MethodGet, "/api/v1/companies/get-users", env.token(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listed struct {
		CompanyID uint64 `json:"companyId"`
	}
	decodeEnvelope(t, w, &listed)
	assert.Equal(t, acme.ID, listed.CompanyID)

	w = env.do(t, http.MethodGet, foreign, env.token(t, root), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeEnvelope(t, w, &listed)
	assert.Equal(t, globex.ID, listed.CompanyID)
}

func TestAPI_OAuthProviderNotConfigured(t *testing.T) {
	env := setupAPITestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/users/google", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	env := setupAPITestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, w.Body.String())
}
