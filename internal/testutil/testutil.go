// Package testutil provides an in-memory store and fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory sqlite database. A single connection keeps
// every query on the same in-memory instance.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.MigrateDatabase(db, zerolog.Nop()))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateUser stores an email/password user. The password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hashed, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Name:            email,
		Email:           email,
		Username:        utils.UsernameFromEmail(email),
		PasswordHash:    hashed,
		Role:            role,
		LoginType:       models.LoginTypeEmailPassword,
		IsEmailVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCompany stores a company owned by owner and links the owner as its first user.
func CreateCompany(t *testing.T, db *gorm.DB, name, email string, owner *models.User, status models.CompanyStatus) *models.Company {
	t.Helper()

	company := &models.Company{
		Name:    name,
		Email:   email,
		OwnerID: owner.ID,
		Status:  status,
	}
	require.NoError(t, db.Omit("Owner", "Users").Create(company).Error)
	require.NoError(t, db.Create(&models.CompanyUser{
		CompanyID: company.ID,
		UserID:    owner.ID,
		JoinedAt:  time.Now(),
	}).Error)
	return company
}

// AddToCompany makes user a member of company and points its companyId at it.
func AddToCompany(t *testing.T, db *gorm.DB, company *models.Company, user *models.User) {
	t.Helper()

	user.CompanyID = &company.ID
	require.NoError(t, db.Model(user).Update("company_id", company.ID).Error)
	if user.ID == company.OwnerID {
		return
	}
	require.NoError(t, db.Create(&models.CompanyUser{
		CompanyID: company.ID,
		UserID:    user.ID,
		JoinedAt:  time.Now(),
	}).Error)
}

// CreateProject stores a project created by creator, who is also its first member.
func CreateProject(t *testing.T, db *gorm.DB, name string, creator *models.User) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:      name,
		CompanyID: creator.CompanyID,
		CreatedBy: creator.ID,
		Status:    models.ProjectStatusActive,
	}
	require.NoError(t, db.Omit("Creator", "Members", "FeatureLinks").Create(project).Error)
	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: project.ID,
		UserID:    creator.ID,
		AddedBy:   creator.ID,
		JoinedAt:  time.Now(),
	}).Error)
	return project
}

// CreateFeature stores a pending feature and appends it to its project's list.
func CreateFeature(t *testing.T, db *gorm.DB, title string, project *models.Project, creator *models.User) *models.Feature {
	t.Helper()

	feature := &models.Feature{
		Title:     title,
		ProjectID: project.ID,
		CreatedBy: creator.ID,
		Status:    models.FeatureStatusPending,
		Priority:  models.FeaturePriorityLow,
	}
	require.NoError(t, db.Omit("Project", "Creator", "Assignments", "Comments").Create(feature).Error)
	require.NoError(t, db.Create(&models.ProjectFeature{
		ProjectID: project.ID,
		FeatureID: feature.ID,
		LinkedAt:  time.Now(),
	}).Error)
	return feature
}

// Identity returns the identity the auth middleware would build for user.
func Identity(user *models.User) auth.Identity {
	return auth.IdentityFromUser(user)
}

// Count returns the number of rows of model matching the optional condition.
func Count(t *testing.T, db *gorm.DB, model interface{}, query ...interface{}) int64 {
	t.Helper()

	tx := db.Model(model)
	if len(query) > 0 {
		tx = tx.Where(query[0], query[1:]...)
	}
	var count int64
	require.NoError(t, tx.Count(&count).Error)
	return count
}
