package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// ProjectMemberDTO represents a project member
type ProjectMemberDTO struct {
	User     UserSummaryDTO `json:"user"`
	AddedBy  uint64         `json:"addedBy"`
	JoinedAt time.Time      `json:"joinedAt"`
}

// ProjectDTO represents a project with members and features expanded
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	CompanyID   *uint64              `json:"companyId"`
	Status      models.ProjectStatus `json:"status"`
	Deadline    *time.Time           `json:"deadline"`
	IsShown     bool                 `json:"isShown"`
	CreatedBy   uint64               `json:"createdBy"`
	Creator     *UserSummaryDTO      `json:"creator,omitempty"`
	Members     []ProjectMemberDTO   `json:"members"`
	Features    []FeatureSummaryDTO  `json:"features"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ProjectNameDTO is an id and name pair
type ProjectNameDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CompanyID:   project.CompanyID,
		Status:      project.Status,
		Deadline:    project.Deadline,
		IsShown:     project.IsShown,
		CreatedBy:   project.CreatedBy,
		Members:     make([]ProjectMemberDTO, 0, len(project.Members)),
		Features:    make([]FeatureSummaryDTO, 0, len(project.FeatureLinks)),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}

	// Include creator if preloaded
	if project.Creator.ID != 0 {
		creator := ToUserSummaryDTO(project.Creator)
		dto.Creator = &creator
	}

	for _, member := range project.Members {
		dto.Members = append(dto.Members, ProjectMemberDTO{
			User:     ToUserSummaryDTO(member.User),
			AddedBy:  member.AddedBy,
			JoinedAt: member.JoinedAt,
		})
	}

	for _, link := range project.FeatureLinks {
		if link.Feature.ID == 0 {
			continue
		}
		dto.Features = append(dto.Features, ToFeatureSummaryDTO(link.Feature))
	}

	return dto
}

// ToProjectListResponse converts a page of projects
func ToProjectListResponse(projects []models.Project, params utils.PaginationParams, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}
	return ProjectListResponse{
		Projects:   items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToProjectNameDTOs converts projects to id and name pairs
func ToProjectNameDTOs(projects []models.Project) []ProjectNameDTO {
	items := make([]ProjectNameDTO, len(projects))
	for i, project := range projects {
		items[i] = ProjectNameDTO{ID: project.ID, Name: project.Name}
	}
	return items
}
