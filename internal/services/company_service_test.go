package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/testutil"
	"github.com/yukikurage/project-management-api/internal/utils"
)

func TestCompanyService_CreateCompany(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)

	company, err := env.company.CreateCompany(testutil.Identity(root), CreateCompanyInput{
		Name:  "Acme",
		Email: "A@Acme.com ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", company.Name)
	assert.Equal(t, "a@acme.com", company.Email)
	assert.Equal(t, models.CompanyStatusActive, company.Status)
	assert.Equal(t, root.ID, company.OwnerID)
	assert.Equal(t, root.ID, company.Owner.ID)
	assert.Equal(t, []uint64{root.ID}, company.UserIDs())
}

func TestCompanyService_CreateCompany_Rejections(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)

	_, err := env.company.CreateCompany(testutil.Identity(admin), CreateCompanyInput{Name: "Acme", Email: "a@acme.com"})
	assert.True(t, policy.IsDenied(err, policy.ReasonRoleInsufficient))

	_, err = env.company.CreateCompany(testutil.Identity(root), CreateCompanyInput{Name: "  ", Email: "a@acme.com"})
	assert.ErrorIs(t, err, ErrCompanyNameRequired)

	_, err = env.company.CreateCompany(testutil.Identity(root), CreateCompanyInput{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)
	_, err = env.company.CreateCompany(testutil.Identity(root), CreateCompanyInput{Name: "Acme 2", Email: "a@acme.com"})
	assert.ErrorIs(t, err, ErrCompanyEmailTaken)

	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Company{}))
}

func TestCompanyService_UpdateCompany(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	owner := testutil.CreateUser(t, env.db, "owner@example.com", models.RoleAdmin)
	other := testutil.CreateUser(t, env.db, "other@example.com", models.RoleAdmin)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", owner, models.CompanyStatusActive)

	name := "Acme Corp"
	domain := "acme.test"
	updated, err := env.company.UpdateCompany(testutil.Identity(owner), company.ID, UpdateCompanyInput{
		Name:   &name,
		Domain: &domain,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)
	require.NotNil(t, updated.Domain)
	assert.Equal(t, "acme.test", *updated.Domain)
	assert.True(t, updated.HasUser(owner.ID))

	suspended := models.CompanyStatusSuspended
	updated, err = env.company.UpdateCompany(testutil.Identity(root), company.ID, UpdateCompanyInput{
		Status:      &suspended,
		ClearDomain: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CompanyStatusSuspended, updated.Status)
	assert.Nil(t, updated.Domain)

	_, err = env.company.UpdateCompany(testutil.Identity(other), company.ID, UpdateCompanyInput{Name: &name})
	assert.True(t, policy.IsDenied(err, policy.ReasonNotOwner))

	bogus := models.CompanyStatus("closed")
	_, err = env.company.UpdateCompany(testutil.Identity(owner), company.ID, UpdateCompanyInput{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidCompanyStatus)
}

func TestCompanyService_NotFoundBeforeForbidden(t *testing.T) {
	env := newServiceEnv(t)
	stranger := testutil.CreateUser(t, env.db, "stranger@example.com", models.RoleUser)
	name := "x"

	_, err := env.company.UpdateCompany(testutil.Identity(stranger), 404, UpdateCompanyInput{Name: &name})
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	err = env.company.DeleteCompany(testutil.Identity(stranger), 404)
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	_, err = env.company.GetCompany(testutil.Identity(stranger), 404)
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestCompanyService_DeleteCompany_DetachesUsersAndProjects(t *testing.T) {
	env := newServiceEnv(t)
	owner := testutil.CreateUser(t, env.db, "owner@example.com", models.RoleAdmin)
	member := testutil.CreateUser(t, env.db, "member@example.com", models.RoleUser)
	company := testutil.CreateCompany(t, env.db, "Acme", "a@acme.com", owner, models.CompanyStatusActive)
	testutil.AddToCompany(t, env.db, company, member)
	project := testutil.CreateProject(t, env.db, "Roadmap", member)

	require.NoError(t, env.company.DeleteCompany(testutil.Identity(owner), company.ID))

	assert.Zero(t, testutil.Count(t, env.db, &models.Company{}, "id = ?", company.ID))
	assert.Zero(t, testutil.Count(t, env.db, &models.CompanyUser{}, "company_id = ?", company.ID))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.User{}, "id = ? AND company_id IS NULL", member.ID))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Project{}, "id = ? AND company_id IS NULL", project.ID))
}

func TestCompanyService_ListCompanies(t *testing.T) {
	env := newServiceEnv(t)
	root := testutil.CreateUser(t, env.db, "root@example.com", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	testutil.CreateCompany(t, env.db, "One", "one@example.com", root, models.CompanyStatusActive)
	testutil.CreateCompany(t, env.db, "Two", "two@example.com", root, models.CompanyStatusActive)
	testutil.CreateCompany(t, env.db, "Three", "three@example.com", root, models.CompanyStatusActive)

	companies, total, err := env.company.ListCompanies(testutil.Identity(root), utils.PaginationParams{Page: 1, Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, companies, 2)

	_, _, err = env.company.ListCompanies(testutil.Identity(admin), utils.PaginationParams{Page: 1, Limit: 10})
	assert.True(t, policy.IsDenied(err, policy.ReasonRoleInsufficient))
}
