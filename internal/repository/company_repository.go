package repository

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a company and records the owner as its first user
func (r *GormCompanyRepository) Create(company *models.Company) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(company).Error; err != nil {
			return err
		}

		owner := &models.CompanyUser{
			CompanyID: company.ID,
			UserID:    company.OwnerID,
			JoinedAt:  time.Now(),
		}
		return tx.Create(owner).Error
	})
}

// FindByID finds a company by ID with optional preloading
func (r *GormCompanyRepository) FindByID(id uint64, preload ...string) (*models.Company, error) {
	var company models.Company
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByEmail finds a company by email
func (r *GormCompanyRepository) FindByEmail(email string) (*models.Company, error) {
	var company models.Company
	if err := r.db.Where("email = ?", email).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// List retrieves companies with their owner and users, newest first
func (r *GormCompanyRepository) List(params utils.PaginationParams) ([]models.Company, int64, error) {
	var total int64
	if err := r.db.Model(&models.Company{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var companies []models.Company
	if err := r.db.Scopes(database.Paginate(params)).
		Preload("Owner").
		Preload("Users.User").
		Order("created_at DESC").
		Find(&companies).Error; err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

// Update updates a company
func (r *GormCompanyRepository) Update(company *models.Company) error {
	return r.db.Omit(clause.Associations).Save(company).Error
}

// Delete removes the company and its memberships in a transaction.
// Users and projects are kept; users lose their company reference.
func (r *GormCompanyRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", id).Delete(&models.CompanyUser{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("company_id = ?", id).
			Update("company_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Project{}).
			Where("company_id = ?", id).
			Update("company_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Company{}, id).Error
	})
}
