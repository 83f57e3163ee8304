// Package integrity runs the entity-graph cleanup that must accompany deletions
// and relationship edits.
package integrity

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrCascadeFailed means a delete did not complete; nothing was committed.
	ErrCascadeFailed = errors.New("cascade delete did not complete")
	// ErrUsernameCollision means the derived username and its retry were both taken.
	ErrUsernameCollision = errors.New("could not allocate a unique username")
	// ErrEmailTaken is returned when a user create races with another registration.
	ErrEmailTaken = errors.New("email already registered")
)

// Engine applies cascades inside gorm transactions.
type Engine struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewEngine(db *gorm.DB, log zerolog.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// DeleteProject removes a project together with every feature it owns, the
// features' assignments, comments and links, and the project members.
// It returns the number of features removed.
func (e *Engine) DeleteProject(projectID uint64) (int64, error) {
	var removed int64
	err := e.db.Transaction(func(tx *gorm.DB) error {
		featureIDs := tx.Model(&models.Feature{}).Select("id").Where("project_id = ?", projectID)

		if err := tx.Where("feature_id IN (?)", featureIDs).Delete(&models.FeatureAssignment{}).Error; err != nil {
			return fmt.Errorf("delete feature assignments: %w", err)
		}
		if err := tx.Where("feature_id IN (?)", featureIDs).Delete(&models.FeatureComment{}).Error; err != nil {
			return fmt.Errorf("delete feature comments: %w", err)
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectFeature{}).Error; err != nil {
			return fmt.Errorf("delete feature links: %w", err)
		}

		result := tx.Where("project_id = ?", projectID).Delete(&models.Feature{})
		if result.Error != nil {
			return fmt.Errorf("delete features: %w", result.Error)
		}
		removed = result.RowsAffected

		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return fmt.Errorf("delete project members: %w", err)
		}

		result = tx.Delete(&models.Project{}, projectID)
		if result.Error != nil {
			return fmt.Errorf("delete project: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("delete project: %w", gorm.ErrRecordNotFound)
		}
		return nil
	})
	if err != nil {
		metrics.RecordCascade("project", false)
		e.log.Error().Err(err).Uint64("project_id", projectID).Msg("project cascade failed")
		return 0, fmt.Errorf("%w: %w", ErrCascadeFailed, err)
	}

	metrics.RecordCascade("project", true)
	e.log.Info().Uint64("project_id", projectID).Int64("features_removed", removed).Msg("project deleted")
	return removed, nil
}

// DeleteFeature detaches the feature from its project's list, then deletes it with
// its assignments and comments. A failed detach aborts before anything is deleted.
func (e *Engine) DeleteFeature(feature *models.Feature) error {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feature_id = ?", feature.ID).Delete(&models.ProjectFeature{}).Error; err != nil {
			return fmt.Errorf("detach feature from project: %w", err)
		}

		if err := tx.Where("feature_id = ?", feature.ID).Delete(&models.FeatureAssignment{}).Error; err != nil {
			return fmt.Errorf("delete feature assignments: %w", err)
		}
		if err := tx.Where("feature_id = ?", feature.ID).Delete(&models.FeatureComment{}).Error; err != nil {
			return fmt.Errorf("delete feature comments: %w", err)
		}
		if err := tx.Delete(&models.Feature{}, feature.ID).Error; err != nil {
			return fmt.Errorf("delete feature: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordCascade("feature", false)
		e.log.Error().Err(err).Uint64("feature_id", feature.ID).Msg("feature cascade failed")
		return fmt.Errorf("%w: %w", ErrCascadeFailed, err)
	}

	metrics.RecordCascade("feature", true)
	return nil
}

// EnsureCompanyAcceptsUsers re-reads the company and refuses suspended ones.
func (e *Engine) EnsureCompanyAcceptsUsers(companyID uint64) (*models.Company, error) {
	var company models.Company
	if err := e.db.First(&company, companyID).Error; err != nil {
		return nil, err
	}
	if company.Status == models.CompanyStatusSuspended {
		return nil, policy.Deny(policy.ReasonCompanySuspended, "company is suspended")
	}
	return &company, nil
}

// CreateWithUniqueUsername assigns a username derived from the user's email and
// calls create. On a username collision it retries once with a numeric suffix.
func (e *Engine) CreateWithUniqueUsername(user *models.User, create func(*models.User) error) error {
	base := utils.UsernameFromEmail(user.Email)
	candidate := base

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			next, err := utils.UsernameWithSuffix(base)
			if err != nil {
				return err
			}
			candidate = next
		}

		taken, err := e.exists("username = ?", candidate)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			continue
		}

		user.Username = candidate
		err = create(user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		emailTaken, checkErr := e.exists("email = ?", user.Email)
		if checkErr != nil {
			return fmt.Errorf("failed to check email: %w", checkErr)
		}
		if emailTaken {
			return ErrEmailTaken
		}
		user.ID = 0
	}

	e.log.Error().Str("username", base).Msg("username retry exhausted")
	return ErrUsernameCollision
}

func (e *Engine) exists(query string, args ...interface{}) (bool, error) {
	var count int64
	if err := e.db.Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
