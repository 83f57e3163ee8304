package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrFeatureNotFound        = errors.New("feature not found")
	ErrFeatureTitleRequired   = errors.New("title is required")
	ErrInvalidFeatureStatus   = errors.New("invalid feature status")
	ErrInvalidFeaturePriority = errors.New("invalid feature priority")
	ErrTooManyTags            = errors.New("too many tags")
	ErrNoUserIDsProvided      = errors.New("at least one user ID is required")
	ErrInvalidAssignee        = errors.New("one or more users do not exist")
	ErrAlreadyAssigned        = errors.New("all users are already assigned to this feature")
	ErrAssignmentNotFound     = errors.New("user is not assigned to this feature")
	ErrCommentTextRequired    = errors.New("comment text is required")
	ErrCommentNotFound        = errors.New("comment not found")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoFeaturesSuggested  = errors.New("AI did not suggest any features")
	ErrAINoValidFeatures      = errors.New("no valid features could be built from AI output")
	ErrAITooManyFeatures      = errors.New("AI suggested too many features")
)

var featureDetailPreloads = []string{"Creator", "Project", "Assignments.User", "Comments.Author"}

// FeatureService handles feature business logic
type FeatureService struct {
	featureRepo repository.FeatureRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	engine      *integrity.Engine
	policy      *policy.Policy
	aiService   *AIService
}

// NewFeatureService creates a new FeatureService
func NewFeatureService(
	featureRepo repository.FeatureRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	engine *integrity.Engine,
	p *policy.Policy,
	aiService *AIService,
) *FeatureService {
	return &FeatureService{
		featureRepo: featureRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		engine:      engine,
		policy:      p,
		aiService:   aiService,
	}
}

// CreateFeatureInput represents input for creating a feature
type CreateFeatureInput struct {
	Title       string
	Description string
	ProjectID   uint64
	Status      models.FeatureStatus
	Priority    models.FeaturePriority
	Deadline    *time.Time
	Tags        []string
	AssignedTo  []uint64
}

// UpdateFeatureInput represents input for updating a feature
type UpdateFeatureInput struct {
	Title         *string
	Description   *string
	Status        *models.FeatureStatus
	Priority      *models.FeaturePriority
	Deadline      *time.Time
	ClearDeadline bool
	Tags          *[]string
}

// ListFeaturesInput represents filters for listing a project's features
type ListFeaturesInput struct {
	Status      *models.FeatureStatus
	Priority    *models.FeaturePriority
	IsCompleted *bool
	SortBy      string
	SortDesc    bool
	Page        utils.PaginationParams
}

// CreateFeature creates a feature under an existing project and appends it to the project's list
func (s *FeatureService) CreateFeature(identity auth.Identity, input CreateFeatureInput) (*models.Feature, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrFeatureTitleRequired
	}

	project, err := s.findProject(input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionCreateFeature, policy.Target{Project: project}); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.FeatureStatusPending
	}
	if !validFeatureStatus(input.Status) {
		return nil, ErrInvalidFeatureStatus
	}
	if input.Priority == "" {
		input.Priority = models.FeaturePriorityLow
	}
	if !validFeaturePriority(input.Priority) {
		return nil, ErrInvalidFeaturePriority
	}
	tags, err := normalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}

	assignees := uniqueUint64(input.AssignedTo)
	if err := ensureUsersExist(s.userRepo, assignees, ErrInvalidAssignee); err != nil {
		return nil, err
	}

	feature := &models.Feature{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		ProjectID:   project.ID,
		CreatedBy:   identity.ID,
		Priority:    input.Priority,
		Deadline:    input.Deadline,
		Tags:        tags,
	}
	feature.SetStatus(input.Status)

	if err := s.featureRepo.Create(feature, assignees); err != nil {
		return nil, fmt.Errorf("failed to create feature: %w", err)
	}

	return s.loadFeature(feature.ID)
}

// GetFeature returns a feature with creator, project, assignees and comments
func (s *FeatureService) GetFeature(identity auth.Identity, featureID uint64) (*models.Feature, error) {
	feature, err := s.loadFeature(featureID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionReadFeature, policy.Target{Feature: feature}); err != nil {
		return nil, err
	}
	return feature, nil
}

// ListProjectFeatures lists the features of a project
func (s *FeatureService) ListProjectFeatures(identity auth.Identity, projectID uint64, input ListFeaturesInput) ([]models.Feature, int64, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionReadProject, policy.Target{Project: project}); err != nil {
		return nil, 0, err
	}

	features, total, err := s.featureRepo.ListByProject(repository.FeatureFilter{
		ProjectID:   project.ID,
		Status:      input.Status,
		Priority:    input.Priority,
		IsCompleted: input.IsCompleted,
		SortBy:      input.SortBy,
		SortDesc:    input.SortDesc,
		Page:        input.Page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list features: %w", err)
	}
	return features, total, nil
}

// UpdateFeature applies a partial update. A status change keeps isCompleted in sync.
func (s *FeatureService) UpdateFeature(identity auth.Identity, featureID uint64, input UpdateFeatureInput) (*models.Feature, error) {
	feature, err := s.authorize(identity, featureID, policy.ActionUpdateFeature)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrFeatureTitleRequired
		}
		feature.Title = title
	}
	if input.Description != nil {
		feature.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if !validFeatureStatus(*input.Status) {
			return nil, ErrInvalidFeatureStatus
		}
		feature.SetStatus(*input.Status)
	}
	if input.Priority != nil {
		if !validFeaturePriority(*input.Priority) {
			return nil, ErrInvalidFeaturePriority
		}
		feature.Priority = *input.Priority
	}
	if input.ClearDeadline {
		feature.Deadline = nil
	} else if input.Deadline != nil {
		feature.Deadline = input.Deadline
	}
	if input.Tags != nil {
		tags, err := normalizeTags(*input.Tags)
		if err != nil {
			return nil, err
		}
		feature.Tags = tags
	}

	if err := s.featureRepo.Update(feature); err != nil {
		return nil, fmt.Errorf("failed to update feature: %w", err)
	}

	return s.loadFeature(feature.ID)
}

// DeleteFeature detaches a feature from its project and deletes it
func (s *FeatureService) DeleteFeature(identity auth.Identity, featureID uint64) error {
	feature, err := s.findFeature(featureID, "Project")
	if err != nil {
		return err
	}
	target := policy.Target{Feature: feature, Project: &feature.Project}
	if err := s.policy.CanPerform(identity, policy.ActionDeleteFeature, target); err != nil {
		return err
	}

	return s.engine.DeleteFeature(feature)
}

// AssignUsers assigns users to a feature. Ids are de-duplicated; requesting only
// users that are already assigned is rejected.
func (s *FeatureService) AssignUsers(identity auth.Identity, featureID uint64, userIDs []uint64) (*models.Feature, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	feature, err := s.authorize(identity, featureID, policy.ActionAssignFeatureUsers, "Assignments")
	if err != nil {
		return nil, err
	}

	ids := uniqueUint64(userIDs)
	if err := ensureUsersExist(s.userRepo, ids, ErrInvalidAssignee); err != nil {
		return nil, err
	}

	assigned := make(map[uint64]struct{}, len(feature.Assignments))
	for _, id := range feature.AssigneeIDs() {
		assigned[id] = struct{}{}
	}
	newIDs := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := assigned[id]; !ok {
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return nil, ErrAlreadyAssigned
	}

	if err := s.featureRepo.AssignUsers(feature.ID, newIDs); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("failed to assign users: %w", err)
	}

	return s.loadFeature(feature.ID)
}

// RemoveUser removes one assignee from a feature
func (s *FeatureService) RemoveUser(identity auth.Identity, featureID, userID uint64) (*models.Feature, error) {
	feature, err := s.authorize(identity, featureID, policy.ActionAssignFeatureUsers)
	if err != nil {
		return nil, err
	}

	if _, err := s.featureRepo.FindAssignment(feature.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}

	if err := s.featureRepo.UnassignUser(feature.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to unassign user: %w", err)
	}

	return s.loadFeature(feature.ID)
}

// AddComment appends a comment authored by the caller
func (s *FeatureService) AddComment(identity auth.Identity, featureID uint64, text string) (*models.Feature, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentTextRequired
	}

	feature, err := s.authorize(identity, featureID, policy.ActionAddComment)
	if err != nil {
		return nil, err
	}

	comment := &models.FeatureComment{
		FeatureID: feature.ID,
		Text:      text,
		CreatedBy: identity.ID,
	}
	if err := s.featureRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return s.loadFeature(feature.ID)
}

// RemoveComment deletes a comment from a feature
func (s *FeatureService) RemoveComment(identity auth.Identity, featureID, commentID uint64) (*models.Feature, error) {
	feature, err := s.findFeature(featureID, "Project", "Comments")
	if err != nil {
		return nil, err
	}

	comment, ok := feature.FindComment(commentID)
	if !ok {
		return nil, ErrCommentNotFound
	}
	target := policy.Target{Feature: feature, Project: &feature.Project, Comment: comment}
	if err := s.policy.CanPerform(identity, policy.ActionRemoveComment, target); err != nil {
		return nil, err
	}

	if err := s.featureRepo.DeleteComment(feature.ID, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to remove comment: %w", err)
	}

	return s.loadFeature(feature.ID)
}

// ToggleCompletion flips a feature between completed and pending
func (s *FeatureService) ToggleCompletion(identity auth.Identity, featureID uint64) (*models.Feature, error) {
	feature, err := s.authorize(identity, featureID, policy.ActionToggleFeatureCompletion)
	if err != nil {
		return nil, err
	}

	feature.ToggleCompletion()
	if err := s.featureRepo.Update(feature); err != nil {
		return nil, fmt.Errorf("failed to toggle completion: %w", err)
	}

	return s.loadFeature(feature.ID)
}

// SuggestFeaturesInput represents input for AI feature suggestions
type SuggestFeaturesInput struct {
	ProjectID uint64
	Text      string
}

// SuggestFeatures asks the AI service for feature drafts. Nothing is persisted.
func (s *FeatureService) SuggestFeatures(ctx context.Context, identity auth.Identity, input SuggestFeaturesInput) ([]SuggestedFeature, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	project, err := s.findProject(input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionCreateFeature, policy.Target{Project: project}); err != nil {
		return nil, err
	}

	suggestions, err := s.aiService.SuggestFeatures(ctx, project.Name, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest features: %w", err)
	}
	return sanitizeSuggestions(suggestions)
}

// sanitizeSuggestions drops untitled drafts and normalizes the rest
func sanitizeSuggestions(suggestions []SuggestedFeature) ([]SuggestedFeature, error) {
	if len(suggestions) == 0 {
		return nil, ErrAINoFeaturesSuggested
	}
	if len(suggestions) > constants.MaxAIGeneratedFeatures {
		return nil, fmt.Errorf("%w (max %d)", ErrAITooManyFeatures, constants.MaxAIGeneratedFeatures)
	}

	valid := make([]SuggestedFeature, 0, len(suggestions))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, suggestion := range suggestions {
		suggestion.Title = strings.TrimSpace(suggestion.Title)
		if suggestion.Title == "" {
			continue
		}
		if !validFeaturePriority(suggestion.Priority) {
			suggestion.Priority = models.FeaturePriorityLow
		}
		if suggestion.Deadline != nil && suggestion.Deadline.Before(cutoff) {
			suggestion.Deadline = nil
		}
		tags, err := normalizeTags(suggestion.Tags)
		if err != nil {
			tags = nil
		}
		suggestion.Tags = tags
		valid = append(valid, suggestion)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidFeatures
	}
	return valid, nil
}

// authorize loads the feature (404 first) and checks action against it
func (s *FeatureService) authorize(identity auth.Identity, featureID uint64, action policy.Action, preload ...string) (*models.Feature, error) {
	feature, err := s.findFeature(featureID, preload...)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, action, policy.Target{Feature: feature}); err != nil {
		return nil, err
	}
	return feature, nil
}

func (s *FeatureService) findFeature(featureID uint64, preload ...string) (*models.Feature, error) {
	feature, err := s.featureRepo.FindByID(featureID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, fmt.Errorf("failed to find feature: %w", err)
	}
	return feature, nil
}

func (s *FeatureService) loadFeature(featureID uint64) (*models.Feature, error) {
	return s.findFeature(featureID, featureDetailPreloads...)
}

func (s *FeatureService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// normalizeTags trims, drops empty and duplicate tags, and enforces the tag limit
func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, exists := seen[tag]; exists {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	if len(result) > constants.MaxTagsPerFeature {
		return nil, ErrTooManyTags
	}
	return result, nil
}

func validFeatureStatus(status models.FeatureStatus) bool {
	switch status {
	case models.FeatureStatusPending, models.FeatureStatusWorking, models.FeatureStatusCompleted, models.FeatureStatusBlocked:
		return true
	}
	return false
}

func validFeaturePriority(priority models.FeaturePriority) bool {
	switch priority {
	case models.FeaturePriorityLow, models.FeaturePriorityMedium, models.FeaturePriorityHigh, models.FeaturePriorityUrgent:
		return true
	}
	return false
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
