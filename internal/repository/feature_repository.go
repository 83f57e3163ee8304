package repository

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// featureSortColumns whitelists the sortBy values accepted by ListByProject
var featureSortColumns = map[string]string{
	"createdAt": "features.created_at",
	"updatedAt": "features.updated_at",
	"deadline":  "features.deadline",
	"priority":  "features.priority",
	"status":    "features.status",
	"title":     "features.title",
}

// GormFeatureRepository is a GORM implementation of FeatureRepository
type GormFeatureRepository struct {
	db *gorm.DB
}

// NewFeatureRepository creates a new FeatureRepository
func NewFeatureRepository(db *gorm.DB) FeatureRepository {
	return &GormFeatureRepository{db: db}
}

// Create creates a feature with its assignees and appends it to its project's feature list
func (r *GormFeatureRepository) Create(feature *models.Feature, assigneeIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(feature).Error; err != nil {
			return err
		}

		link := &models.ProjectFeature{
			ProjectID: feature.ProjectID,
			FeatureID: feature.ID,
			LinkedAt:  time.Now(),
		}
		if err := tx.Omit(clause.Associations).Create(link).Error; err != nil {
			return err
		}

		return NewFeatureRepository(tx).AssignUsers(feature.ID, assigneeIDs)
	})
}

// FindByID finds a feature by ID with optional preloading
func (r *GormFeatureRepository) FindByID(id uint64, preload ...string) (*models.Feature, error) {
	var feature models.Feature
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&feature, id).Error; err != nil {
		return nil, err
	}

	return &feature, nil
}

// ListByProject retrieves the features of a project with filtering and pagination
func (r *GormFeatureRepository) ListByProject(filter FeatureFilter) ([]models.Feature, int64, error) {
	query := r.db.Model(&models.Feature{}).Where("features.project_id = ?", filter.ProjectID)

	if filter.Status != nil {
		query = query.Where("features.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("features.priority = ?", *filter.Priority)
	}
	if filter.IsCompleted != nil {
		query = query.Where("features.is_completed = ?", *filter.IsCompleted)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := featureSortColumns[filter.SortBy]
	if !ok {
		column = featureSortColumns["createdAt"]
	}

	var features []models.Feature
	if err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: filter.SortDesc}).
		Scopes(database.Paginate(filter.Page)).
		Preload("Creator").
		Preload("Assignments.User").
		Find(&features).Error; err != nil {
		return nil, 0, err
	}

	return features, total, nil
}

// Update updates a feature's own columns
func (r *GormFeatureRepository) Update(feature *models.Feature) error {
	return r.db.Omit(clause.Associations).Save(feature).Error
}

// AssignUsers assigns multiple users to a feature
func (r *GormFeatureRepository) AssignUsers(featureID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	assignments := make([]models.FeatureAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.FeatureAssignment{
			FeatureID: featureID,
			UserID:    userID,
		}
	}

	return r.db.Omit(clause.Associations).Create(&assignments).Error
}

// UnassignUser removes one user assignment from a feature
func (r *GormFeatureRepository) UnassignUser(featureID, userID uint64) error {
	return r.db.Where("feature_id = ? AND user_id = ?", featureID, userID).
		Delete(&models.FeatureAssignment{}).Error
}

// FindAssignment finds a specific feature assignment
func (r *GormFeatureRepository) FindAssignment(featureID, userID uint64) (*models.FeatureAssignment, error) {
	var assignment models.FeatureAssignment
	if err := r.db.Where("feature_id = ? AND user_id = ?", featureID, userID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// AddComment stores a comment on a feature
func (r *GormFeatureRepository) AddComment(comment *models.FeatureComment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

// DeleteComment removes a comment from a feature
func (r *GormFeatureRepository) DeleteComment(featureID, commentID uint64) error {
	result := r.db.Where("feature_id = ? AND id = ?", featureID, commentID).
		Delete(&models.FeatureComment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
