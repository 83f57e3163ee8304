package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/testutil"
	"github.com/yukikurage/project-management-api/internal/utils"
)

func TestUserService_CreateCompanyUser_AdminPinnedToOwnCompany(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	c1 := testutil.CreateCompany(t, env.db, "C1", "c1@example.com", admin, models.CompanyStatusActive)
	c2 := testutil.CreateCompany(t, env.db, "C2", "c2@example.com", root, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, c1, admin)

	user, err := env.users.CreateCompanyUser(context.Background(), testutil.Identity(admin), CreateCompanyUserInput{
		Name:      "New",
		Email:     "new@x.com",
		Password:  "password123",
		Role:      models.RoleUser,
		CompanyID: &c2.ID,
	})
	require.NoError(t, err)

	require.NotNil(t, user.CompanyID)
	assert.Equal(t, c1.ID, *user.CompanyID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "new", user.Username)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.CompanyUser{}, "company_id = ? AND user_id = ?", c1.ID, user.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.CompanyUser{}, "company_id = ? AND user_id = ?", c2.ID, user.ID))

	mail, ok := env.mailer.last()
	require.True(t, ok)
	assert.Equal(t, "verify", mail.Kind)
	assert.Equal(t, "new@x.com", mail.Email)
}

func TestUserService_CreateCompanyUser_SuspendedCompany(t *testing.T) {
	env := newServiceEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	company := testutil.CreateCompany(t, env.db, "Frozen", "frozen@example.com", admin, models.CompanyStatusSuspended)
	testutil.AddToCompany(t, env.db, company, admin)

	usersBefore := testutil.Count(t, env.db, &models.User{})
	linksBefore := testutil.Count(t, env.db, &models.CompanyUser{})

	_, err := env.users.CreateCompanyUser(context.Background(), testutil.Identity(admin), CreateCompanyUserInput{
		Name:     "New",
		Email:    "new@x.com",
		Password: "password123",
	})
	assert.True(t, policy.IsDenied(err, policy.ReasonCompanySuspended))

	assert.Equal(t, usersBefore, testutil.Count(t, env.db, &models.User{}))
	assert.Equal(t, linksBefore, testutil.Count(t, env.db, &models.CompanyUser{}))
	_, sent := env.mailer.last()
	assert.False(t, sent)
}

func TestUserService_CreateCompanyUser_Validation(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	plain := testutil.CreateUser(t, env.db, "plain@example.com", models.RoleUser)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", admin, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, company, admin)
	testutil.AddToCompany(t, env.db, company, plain)
	ctx := context.Background()

	_, err := env.users.CreateCompanyUser(ctx, testutil.Identity(root), CreateCompanyUserInput{
		Email: "x@x.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrCompanyIDRequired)

	_, err = env.users.CreateCompanyUser(ctx, testutil.Identity(plain), CreateCompanyUserInput{
		Email: "x@x.com", Password: "password123",
	})
	assert.True(t, policy.IsDenied(err, policy.ReasonRoleInsufficient))

	_, err = env.users.CreateCompanyUser(ctx, testutil.Identity(admin), CreateCompanyUserInput{
		Email: "x@x.com", Password: "password123", Role: models.RoleSuperAdmin,
	})
	assert.True(t, policy.IsDenied(err, policy.ReasonImmutableRole))

	_, err = env.users.CreateCompanyUser(ctx, testutil.Identity(admin), CreateCompanyUserInput{
		Email: "x@x.com", Password: "short",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = env.users.CreateCompanyUser(ctx, testutil.Identity(admin), CreateCompanyUserInput{
		Email: "plain@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	missing := uint64(404)
	_, err = env.users.CreateCompanyUser(ctx, testutil.Identity(root), CreateCompanyUserInput{
		Email: "x@x.com", Password: "password123", CompanyID: &missing,
	})
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestUserService_ChangeUserRole(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	member := testutil.CreateUser(t, env.db, "member@example.com", models.RoleUser)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", admin, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, company, admin)
	testutil.AddToCompany(t, env.db, company, member)

	updated, err := env.users.ChangeUserRole(testutil.Identity(admin), member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	_, err = env.users.ChangeUserRole(testutil.Identity(admin), member.ID, models.RoleAdmin)
	assert.True(t, policy.IsDenied(err, policy.ReasonSameRole))

	for _, caller := range []*models.User{admin, root} {
		_, err = env.users.ChangeUserRole(testutil.Identity(caller), member.ID, models.RoleSuperAdmin)
		assert.True(t, policy.IsDenied(err, policy.ReasonImmutableRole))
	}
	assert.Zero(t, testutil.Count(t, env.db, &models.User{}, "id = ? AND role = ?", member.ID, models.RoleSuperAdmin))

	_, err = env.users.ChangeUserRole(testutil.Identity(admin), 404, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.users.ChangeUserRole(testutil.Identity(admin), member.ID, models.Role("OWNER"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestUserService_ListCompanyUsers(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	member := testutil.CreateUser(t, env.db, "member@example.com", models.RoleUser)
	outsider := testutil.CreateUser(t, env.db, "outsider@example.com", models.RoleAdmin)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", admin, models.CompanyStatusActive)
	foreign := testutil.CreateCompany(t, env.db, "Other", "o@other.com", outsider, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, company, admin)
	testutil.AddToCompany(t, env.db, company, member)
	testutil.AddToCompany(t, env.db, foreign, outsider)
	page := utils.PaginationParams{Page: 1, Limit: 10}

	got, users, total, err := env.users.ListCompanyUsers(testutil.Identity(admin), nil, page)
	require.NoError(t, err)
	assert.Equal(t, company.ID, got.ID)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	_, _, _, err = env.users.ListCompanyUsers(testutil.Identity(outsider), &company.ID, page)
	assert.True(t, policy.IsDenied(err, policy.ReasonCrossTenantDenied))

	_, _, _, err = env.users.ListCompanyUsers(testutil.Identity(member), nil, page)
	assert.True(t, policy.IsDenied(err, policy.ReasonRoleInsufficient))

	_, users, _, err = env.users.ListCompanyUsers(testutil.Identity(root), &foreign.ID, page)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, outsider.ID, users[0].ID)
}
