package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

type FeatureHandler struct {
	featureService *services.FeatureService
	projectService *services.ProjectService
}

func NewFeatureHandler(featureService *services.FeatureService, projectService *services.ProjectService) *FeatureHandler {
	return &FeatureHandler{
		featureService: featureService,
		projectService: projectService,
	}
}

type createFeatureRequest struct {
	Title       string                 `json:"title" binding:"required,max=255"`
	Description string                 `json:"description" binding:"max=5000"`
	ProjectID   uint64                 `json:"projectId" binding:"required,gt=0"`
	Status      models.FeatureStatus   `json:"status" binding:"omitempty,oneof=pending working completed blocked"`
	Priority    models.FeaturePriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Deadline    *time.Time             `json:"deadline"`
	Tags        []string               `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	AssignedTo  []uint64               `json:"assignedTo" binding:"omitempty,dive,gt=0"`
}

// CreateFeature creates a feature in a project
func (h *FeatureHandler) CreateFeature(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req createFeatureRequest
	if !bindJSON(c, &req) {
		return
	}

	feature, err := h.featureService.CreateFeature(identity, services.CreateFeatureInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		Status:      req.Status,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		Tags:        req.Tags,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, dto.ToFeatureDTO(*feature), "Feature created successfully")
}

// GetFeature returns a feature with assignees and comments
func (h *FeatureHandler) GetFeature(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}

	feature, err := h.featureService.GetFeature(identity, featureID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToFeatureDTO(*feature), "Feature fetched successfully")
}

type listFeaturesQuery struct {
	Status      models.FeatureStatus   `form:"status" binding:"omitempty,oneof=pending working completed blocked"`
	Priority    models.FeaturePriority `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	IsCompleted *bool                  `form:"isCompleted"`
	SortBy      string                 `form:"sortBy" binding:"omitempty,oneof=createdAt updatedAt deadline priority status title"`
	Order       string                 `form:"order" binding:"omitempty,oneof=asc desc"`
}

// ListProjectFeatures lists a project's features
func (h *FeatureHandler) ListProjectFeatures(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "projectId")
	if !ok {
		return
	}

	var query listFeaturesQuery
	if !bindQuery(c, &query) {
		return
	}

	input := services.ListFeaturesInput{
		IsCompleted: query.IsCompleted,
		SortBy:      query.SortBy,
		SortDesc:    query.Order != "asc",
		Page:        utils.GetPaginationParams(c),
	}
	if query.Status != "" {
		input.Status = &query.Status
	}
	if query.Priority != "" {
		input.Priority = &query.Priority
	}

	features, total, err := h.featureService.ListProjectFeatures(identity, projectID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToFeatureListResponse(features, input.Page, total), "Features fetched successfully")
}

// ListProjectNames returns id and name of the projects the caller created or joined
func (h *FeatureHandler) ListProjectNames(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjectNames(identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToProjectNameDTOs(projects), "Project names fetched successfully")
}

type updateFeatureRequest struct {
	Title         *string                 `json:"title" binding:"omitempty,max=255"`
	Description   *string                 `json:"description" binding:"omitempty,max=5000"`
	Status        *models.FeatureStatus   `json:"status" binding:"omitempty,oneof=pending working completed blocked"`
	Priority      *models.FeaturePriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Deadline      *time.Time              `json:"deadline"`
	ClearDeadline bool                    `json:"clearDeadline"`
	Tags          *[]string               `json:"tags" binding:"omitempty,max=20,dive,max=50"`
}

// UpdateFeature applies a partial update
func (h *FeatureHandler) UpdateFeature(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req updateFeatureRequest
	nulls, ok := bindPatch(c, &req)
	if !ok {
		return
	}

	feature, err := h.featureService.UpdateFeature(identity, featureID, services.UpdateFeatureInput{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline || nulls["deadline"],
		Tags:          req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToFeatureDTO(*feature), "Feature updated successfully")
}

// DeleteFeature removes a feature and detaches it from its project
func (h *FeatureHandler) DeleteFeature(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.featureService.DeleteFeature(identity, featureID); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"id": featureID}, "Feature deleted successfully")
}

type assignUsersRequest struct {
	UserIDs []uint64 `json:"userIds" binding:"required,min=1,dive,gt=0"`
}

// AssignUsers assigns users to a feature
func (h *FeatureHandler) AssignUsers(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req assignUsersRequest
	if !bindJSON(c, &req) {
		return
	}

	feature, err := h.featureService.AssignUsers(identity, featureID, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToFeatureDTO(*feature), "Users assigned successfully")
}

type removeUserRequest struct {
	UserID uint64 `json:"userId" binding:"required,gt=0"`
}

// RemoveUser removes one assignee from a feature
func (h *FeatureHandler) RemoveUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req removeUserRequest
	if !bindJSON(c, &req) {
		return
	}

	feature, err := h.featureService.RemoveUser(identity, featureID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToFeatureDTO(*feature), "User removed from feature")
}

type addCommentRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// AddComment adds a comment by the caller
func (h *FeatureHandler) AddComment(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req addCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	feature, err := h.featureService.AddComment(identity, featureID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, dto.ToFeatureDTO(*feature), "Comment added successfully")
}

// RemoveComment deletes a comment
func (h *FeatureHandler) RemoveComment(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}
	commentID, ok := idParam(c, "commentId")
	if !ok {
		return
	}

	feature, err := h.featureService.RemoveComment(identity, featureID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToFeatureDTO(*feature), "Comment removed successfully")
}

// ToggleCompletion flips a feature between completed and pending
func (h *FeatureHandler) ToggleCompletion(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	featureID, ok := idParam(c, "id")
	if !ok {
		return
	}

	feature, err := h.featureService.ToggleCompletion(identity, featureID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToFeatureDTO(*feature), "Feature completion toggled")
}

type generateFeaturesRequest struct {
	ProjectID uint64 `json:"projectId" binding:"required,gt=0"`
	Text      string `json:"text" binding:"required,max=10000"`
}

// GenerateFeatures asks the AI service for feature drafts. Nothing is saved.
func (h *FeatureHandler) GenerateFeatures(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req generateFeaturesRequest
	if !bindJSON(c, &req) {
		return
	}

	suggestions, err := h.featureService.SuggestFeatures(c.Request.Context(), identity, services.SuggestFeaturesInput{
		ProjectID: req.ProjectID,
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"features": suggestions}, "Features generated successfully")
}
