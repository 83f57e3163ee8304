package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the company transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateCompanyUser is returned when linking the user to its company fails.
	ErrCreateCompanyUser = errors.New("user repository: create company user failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateInCompany creates a user and the company membership atomically.
// The wrapped cause keeps gorm.ErrDuplicatedKey visible to callers.
func (r *GormUserRepository) CreateInCompany(user *models.User, companyID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		user.CompanyID = &companyID
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateUser, err)
		}

		link := &models.CompanyUser{
			CompanyID: companyID,
			UserID:    user.ID,
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateCompanyUser, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	return r.findOne("email = ?", email)
}

// FindByVerificationToken finds a user holding an unexpired verification token
func (r *GormUserRepository) FindByVerificationToken(hashed string) (*models.User, error) {
	return r.findOne("email_verification_token = ? AND email_verification_expiry > ?", hashed, time.Now())
}

// FindByResetToken finds a user holding an unexpired forgot-password token
func (r *GormUserRepository) FindByResetToken(hashed string) (*models.User, error) {
	return r.findOne("forgot_password_token = ? AND forgot_password_expiry > ?", hashed, time.Now())
}

func (r *GormUserRepository) findOne(query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.Where(query, args...).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves all columns of a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit(clause.Associations).Save(user).Error
}

// CountByIDs counts how many of the given user IDs exist
func (r *GormUserRepository) CountByIDs(ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// ListByCompany lists the users linked to a company, newest first
func (r *GormUserRepository) ListByCompany(companyID uint64, params utils.PaginationParams) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{}).
		Joins("JOIN company_users ON company_users.user_id = users.id").
		Where("company_users.company_id = ?", companyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Scopes(database.Paginate(params)).
		Order("users.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
