package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

type createProjectRequest struct {
	Name        string               `json:"name" binding:"required,max=255"`
	Description string               `json:"description" binding:"max=5000"`
	Status      models.ProjectStatus `json:"status" binding:"omitempty,oneof=draft active archived completed"`
	Deadline    *time.Time           `json:"deadline"`
	Members     []uint64             `json:"members" binding:"omitempty,dive,gt=0"`
}

// CreateProject creates a project in the caller's company
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.CreateProject(identity, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
		MemberIDs:   req.Members,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, dto.ToProjectDTO(*project), "Project created successfully")
}

type listProjectsQuery struct {
	CompanyID *uint64              `form:"companyId" binding:"omitempty,gt=0"`
	Status    models.ProjectStatus `form:"status" binding:"omitempty,oneof=draft active archived completed"`
	Search    string               `form:"search" binding:"max=255"`
}

// ListProjects returns the projects visible to the caller
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var query listProjectsQuery
	if !bindQuery(c, &query) {
		return
	}

	input := services.ListProjectsInput{
		CompanyID: query.CompanyID,
		Search:    query.Search,
		Page:      utils.GetPaginationParams(c),
	}
	if query.Status != "" {
		input.Status = &query.Status
	}

	projects, total, err := h.projectService.ListProjects(identity, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToProjectListResponse(projects, input.Page, total), "Projects fetched successfully")
}

// GetProject returns one project with members and features
func (h *ProjectHandler) GetProject(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(identity, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToProjectDTO(*project), "Project fetched successfully")
}

type updateProjectRequest struct {
	Name          *string               `json:"name" binding:"omitempty,max=255"`
	Description   *string               `json:"description" binding:"omitempty,max=5000"`
	Status        *models.ProjectStatus `json:"status" binding:"omitempty,oneof=draft active archived completed"`
	Deadline      *time.Time            `json:"deadline"`
	ClearDeadline bool                  `json:"clearDeadline"`
}

// UpdateProject applies a partial update
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req updateProjectRequest
	nulls, ok := bindPatch(c, &req)
	if !ok {
		return
	}

	project, err := h.projectService.UpdateProject(identity, projectID, services.UpdateProjectInput{
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline || nulls["deadline"],
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToProjectDTO(*project), "Project updated successfully")
}

// DeleteProject deletes a project together with its features
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(identity, projectID); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"id": projectID}, "Project and its features deleted successfully")
}

// ToggleVisibility flips the project's isShown flag
func (h *ProjectHandler) ToggleVisibility(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.ToggleVisibility(identity, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToProjectDTO(*project), "Project visibility updated")
}

type projectMemberRequest struct {
	UserID uint64 `json:"userId" binding:"required,gt=0"`
}

// AddMember adds a user to the project
func (h *ProjectHandler) AddMember(c *gin.Context) {
	h.editMember(c, h.projectService.AddMember, "Member added to project")
}

// RemoveMember removes a user from the project
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	h.editMember(c, h.projectService.RemoveMember, "Member removed from project")
}

type projectFeatureRequest struct {
	FeatureID uint64 `json:"featureId" binding:"required,gt=0"`
}

// AddFeature appends an existing feature to the project's feature list
func (h *ProjectHandler) AddFeature(c *gin.Context) {
	h.editFeature(c, h.projectService.AddFeature, "Feature added to project")
}

// RemoveFeature removes a feature from the project's feature list
func (h *ProjectHandler) RemoveFeature(c *gin.Context) {
	h.editFeature(c, h.projectService.RemoveFeature, "Feature removed from project")
}

type projectEdit func(identity auth.Identity, projectID, id uint64) (*models.Project, error)

func (h *ProjectHandler) editMember(c *gin.Context, edit projectEdit, message string) {
	var req projectMemberRequest
	h.applyEdit(c, &req, func() uint64 { return req.UserID }, edit, message)
}

func (h *ProjectHandler) editFeature(c *gin.Context, edit projectEdit, message string) {
	var req projectFeatureRequest
	h.applyEdit(c, &req, func() uint64 { return req.FeatureID }, edit, message)
}

func (h *ProjectHandler) applyEdit(c *gin.Context, req any, id func() uint64, edit projectEdit, message string) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !bindJSON(c, req) {
		return
	}

	project, err := edit(identity, projectID, id())
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToProjectDTO(*project), message)
}
