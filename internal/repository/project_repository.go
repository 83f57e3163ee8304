package repository

import (
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project and its members in a transaction
func (r *GormProjectRepository) Create(project *models.Project, members []models.ProjectMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}

		if len(members) == 0 {
			return nil
		}
		for i := range members {
			members[i].ProjectID = project.ID
		}
		return tx.Omit(clause.Associations).Create(&members).Error
	})
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByNameAndCompany finds the project holding the (name, company) pair
func (r *GormProjectRepository) FindByNameAndCompany(name string, companyID *uint64) (*models.Project, error) {
	var project models.Project
	query := r.db.Where("name = ?", name)
	if companyID == nil {
		query = query.Where("company_id IS NULL")
	} else {
		query = query.Where("company_id = ?", *companyID)
	}
	if err := query.First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects with filtering and pagination, newest first
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.Model(&models.Project{})

	if filter.CompanyID != nil {
		query = query.Where("projects.company_id = ?", *filter.CompanyID)
	}
	if filter.VisibleTo != nil {
		query = query.Where(r.visibleTo(*filter.VisibleTo))
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}
	query = query.Scopes(database.Search(filter.Search, "projects.name", "projects.description"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	if err := query.
		Scopes(database.Paginate(filter.Page)).
		Order("projects.created_at DESC").
		Preload("Creator").
		Preload("Members.User").
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// ListNames returns id and name of the projects visible to a user
func (r *GormProjectRepository) ListNames(userID uint64) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Model(&models.Project{}).
		Select("projects.id", "projects.name").
		Where(r.visibleTo(userID)).
		Order("projects.name ASC").
		Find(&projects).Error
	return projects, err
}

// visibleTo matches projects the user created or is a member of
func (r *GormProjectRepository) visibleTo(userID uint64) *gorm.DB {
	memberSubQuery := r.db.Model(&models.ProjectMember{}).
		Select("1").
		Where("project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID)
	return r.db.Where("projects.created_by = ?", userID).Or("EXISTS (?)", memberSubQuery)
}

// Update updates a project's own columns
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit(clause.Associations).Save(project).Error
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Omit(clause.Associations).Create(member).Error
}

// RemoveMember removes a member from a project
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// LinkFeature appends a feature to the project's feature list
func (r *GormProjectRepository) LinkFeature(link *models.ProjectFeature) error {
	return r.db.Omit(clause.Associations).Create(link).Error
}

// UnlinkFeature removes a feature from the project's feature list
func (r *GormProjectRepository) UnlinkFeature(projectID, featureID uint64) error {
	return r.db.Where("project_id = ? AND feature_id = ?", projectID, featureID).
		Delete(&models.ProjectFeature{}).Error
}
