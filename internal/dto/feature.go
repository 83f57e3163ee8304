package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// FeatureSummaryDTO is the compact feature projection embedded in projects
type FeatureSummaryDTO struct {
	ID       uint64                 `json:"id"`
	Title    string                 `json:"title"`
	Status   models.FeatureStatus   `json:"status"`
	Priority models.FeaturePriority `json:"priority"`
}

// CommentDTO represents a feature comment
type CommentDTO struct {
	ID        uint64          `json:"id"`
	Text      string          `json:"text"`
	CreatedBy uint64          `json:"createdBy"`
	Author    *UserSummaryDTO `json:"author,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// FeatureProjectDTO is the parent project reference of a feature
type FeatureProjectDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// FeatureDTO represents a feature with assignees and comments expanded
type FeatureDTO struct {
	ID          uint64                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      models.FeatureStatus   `json:"status"`
	Priority    models.FeaturePriority `json:"priority"`
	ProjectID   uint64                 `json:"projectId"`
	Project     *FeatureProjectDTO     `json:"project,omitempty"`
	CreatedBy   uint64                 `json:"createdBy"`
	Creator     *UserSummaryDTO        `json:"creator,omitempty"`
	Deadline    *time.Time             `json:"deadline"`
	Tags        []string               `json:"tags"`
	IsCompleted bool                   `json:"isCompleted"`
	AssignedTo  []UserSummaryDTO       `json:"assignedTo"`
	Comments    []CommentDTO           `json:"comments"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// FeatureListResponse represents a paginated list of features
type FeatureListResponse struct {
	Features   []FeatureDTO             `json:"features"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToFeatureSummaryDTO converts a Feature model to FeatureSummaryDTO
func ToFeatureSummaryDTO(feature models.Feature) FeatureSummaryDTO {
	return FeatureSummaryDTO{
		ID:       feature.ID,
		Title:    feature.Title,
		Status:   feature.Status,
		Priority: feature.Priority,
	}
}

// ToFeatureDTO converts a Feature model to FeatureDTO
func ToFeatureDTO(feature models.Feature) FeatureDTO {
	tags := []string(feature.Tags)
	if tags == nil {
		tags = []string{}
	}

	dto := FeatureDTO{
		ID:          feature.ID,
		Title:       feature.Title,
		Description: feature.Description,
		Status:      feature.Status,
		Priority:    feature.Priority,
		ProjectID:   feature.ProjectID,
		CreatedBy:   feature.CreatedBy,
		Deadline:    feature.Deadline,
		Tags:        tags,
		IsCompleted: feature.IsCompleted,
		AssignedTo:  make([]UserSummaryDTO, 0, len(feature.Assignments)),
		Comments:    make([]CommentDTO, 0, len(feature.Comments)),
		CreatedAt:   feature.CreatedAt,
		UpdatedAt:   feature.UpdatedAt,
	}

	// Include project if preloaded
	if feature.Project.ID != 0 {
		dto.Project = &FeatureProjectDTO{ID: feature.Project.ID, Name: feature.Project.Name}
	}

	// Include creator if preloaded
	if feature.Creator.ID != 0 {
		creator := ToUserSummaryDTO(feature.Creator)
		dto.Creator = &creator
	}

	for _, assignment := range feature.Assignments {
		if assignment.User.ID == 0 {
			continue
		}
		dto.AssignedTo = append(dto.AssignedTo, ToUserSummaryDTO(assignment.User))
	}

	for _, comment := range feature.Comments {
		item := CommentDTO{
			ID:        comment.ID,
			Text:      comment.Text,
			CreatedBy: comment.CreatedBy,
			CreatedAt: comment.CreatedAt,
		}
		if comment.Author.ID != 0 {
			author := ToUserSummaryDTO(comment.Author)
			item.Author = &author
		}
		dto.Comments = append(dto.Comments, item)
	}

	return dto
}

// ToFeatureListResponse converts a page of features
func ToFeatureListResponse(features []models.Feature, params utils.PaginationParams, total int64) FeatureListResponse {
	items := make([]FeatureDTO, len(features))
	for i, feature := range features {
		items[i] = ToFeatureDTO(feature)
	}
	return FeatureListResponse{
		Features:   items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
