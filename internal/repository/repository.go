package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateInCompany creates a user and its company membership in one transaction
	CreateInCompany(user *models.User, companyID uint64) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByVerificationToken finds a user by hashed email verification token
	FindByVerificationToken(hashed string) (*models.User, error)

	// FindByResetToken finds a user by hashed forgot-password token
	FindByResetToken(hashed string) (*models.User, error)

	// Update saves all columns of a user
	Update(user *models.User) error

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ids []uint64) (int64, error)

	// ListByCompany lists the users of a company
	ListByCompany(companyID uint64, params utils.PaginationParams) ([]models.User, int64, error)
}

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	// Create creates a company and records its owner as the first user
	Create(company *models.Company) error

	// FindByID finds a company by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Company, error)

	// FindByEmail finds a company by email
	FindByEmail(email string) (*models.Company, error)

	// List retrieves companies with pagination
	List(params utils.PaginationParams) ([]models.Company, int64, error)

	// Update updates a company
	Update(company *models.Company) error

	// Delete removes a company and its memberships; users are detached, not deleted
	Delete(id uint64) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project together with its initial members
	Create(project *models.Project, members []models.ProjectMember) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// FindByNameAndCompany finds the project holding the (name, company) pair
	FindByNameAndCompany(name string, companyID *uint64) (*models.Project, error)

	// List retrieves projects with filtering and pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// ListNames returns id and name of the projects visible to a user
	ListNames(userID uint64) ([]models.Project, error)

	// Update updates a project's own columns
	Update(project *models.Project) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error

	// LinkFeature appends a feature to the project's feature list
	LinkFeature(link *models.ProjectFeature) error

	// UnlinkFeature removes a feature from the project's feature list
	UnlinkFeature(projectID, featureID uint64) error
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	// CompanyID scopes the list to one company.
	CompanyID *uint64
	// VisibleTo restricts the list to projects the user created or is a member of.
	VisibleTo *uint64
	Status    *models.ProjectStatus
	Search    string
	Page      utils.PaginationParams
}

// FeatureRepository defines the interface for feature data access
type FeatureRepository interface {
	// Create creates a feature with its assignees and appends it to its project's feature list
	Create(feature *models.Feature, assigneeIDs []uint64) error

	// FindByID finds a feature by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Feature, error)

	// ListByProject retrieves the features of a project with filtering and pagination
	ListByProject(filter FeatureFilter) ([]models.Feature, int64, error)

	// Update updates a feature's own columns
	Update(feature *models.Feature) error

	// AssignUsers assigns multiple users to a feature
	AssignUsers(featureID uint64, userIDs []uint64) error

	// UnassignUser removes one user assignment from a feature
	UnassignUser(featureID, userID uint64) error

	// FindAssignment finds a specific feature assignment
	FindAssignment(featureID, userID uint64) (*models.FeatureAssignment, error)

	// AddComment stores a comment on a feature
	AddComment(comment *models.FeatureComment) error

	// DeleteComment removes a comment from a feature
	DeleteComment(featureID, commentID uint64) error
}

// FeatureFilter holds filtering options for listing features
type FeatureFilter struct {
	ProjectID   uint64
	Status      *models.FeatureStatus
	Priority    *models.FeaturePriority
	IsCompleted *bool
	// SortBy must be a whitelisted column; the repository falls back to created_at.
	SortBy   string
	SortDesc bool
	Page     utils.PaginationParams
}
