package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

type CompanyHandler struct {
	companyService *services.CompanyService
	userService    *services.UserService
}

func NewCompanyHandler(companyService *services.CompanyService, userService *services.UserService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		userService:    userService,
	}
}

type createCompanyRequest struct {
	Name   string  `json:"name" binding:"required,max=255"`
	Email  string  `json:"email" binding:"required,email"`
	Domain *string `json:"domain" binding:"omitempty,max=255"`
}

// CreateCompany creates a company owned by the caller
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req createCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.companyService.CreateCompany(identity, services.CreateCompanyInput{
		Name:   req.Name,
		Email:  req.Email,
		Domain: req.Domain,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, dto.ToCompanyDTO(*company), "Company created successfully")
}

// ListCompanies returns every company
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	companies, total, err := h.companyService.ListCompanies(identity, params)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToCompanyListResponse(companies, params, total), "Companies fetched successfully")
}

// GetCompany returns one company with owner and users
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	companyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	company, err := h.companyService.GetCompany(identity, companyID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToCompanyDTO(*company), "Company fetched successfully")
}

type updateCompanyRequest struct {
	Name        *string               `json:"name" binding:"omitempty,max=255"`
	Domain      *string               `json:"domain" binding:"omitempty,max=255"`
	ClearDomain bool                  `json:"clearDomain"`
	Status      *models.CompanyStatus `json:"status" binding:"omitempty,oneof=active inactive suspended"`
}

// UpdateCompany applies a partial update
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	companyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req updateCompanyRequest
	nulls, ok := bindPatch(c, &req)
	if !ok {
		return
	}

	company, err := h.companyService.UpdateCompany(identity, companyID, services.UpdateCompanyInput{
		Name:        req.Name,
		Domain:      req.Domain,
		ClearDomain: req.ClearDomain || nulls["domain"],
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToCompanyDTO(*company), "Company updated successfully")
}

// DeleteCompany deletes a company. Users and projects are detached, not deleted.
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	companyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.companyService.DeleteCompany(identity, companyID); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"id": companyID}, "Company deleted successfully")
}

type createCompanyUserRequest struct {
	Name        string      `json:"name" binding:"required,max=255"`
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"required,min=8,max=128"`
	PhoneNumber string      `json:"phoneNumber" binding:"omitempty,max=32"`
	Role        models.Role `json:"role" binding:"omitempty,oneof=ADMIN USER SUPERADMIN"`
	CompanyID   *uint64     `json:"companyId" binding:"omitempty,gt=0"`
}

// CreateCompanyUser creates a user inside a company
func (h *CompanyHandler) CreateCompanyUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req createCompanyUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateCompanyUser(c.Request.Context(), identity, services.CreateCompanyUserInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		CompanyID:   req.CompanyID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, dto.ToUserDTO(*user), "User created successfully")
}

type changeRoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=ADMIN USER SUPERADMIN"`
}

// ChangeUserRole changes the role of a user in the caller's company.
// The path id is the user's id.
func (h *CompanyHandler) ChangeUserRole(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req changeRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.ChangeUserRole(identity, userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToUserDTO(*user), "Role changed for the user")
}

type listCompanyUsersQuery struct {
	CompanyID *uint64 `form:"companyId" binding:"omitempty,gt=0"`
}

// ListCompanyUsers lists the users of the caller's company, or of companyId
func (h *CompanyHandler) ListCompanyUsers(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var query listCompanyUsersQuery
	if !bindQuery(c, &query) {
		return
	}

	params := utils.GetPaginationParams(c)
	company, users, total, err := h.userService.ListCompanyUsers(identity, query.CompanyID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.CompanyUsersResponse{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		Users:       dto.ToUserDTOs(users),
		Pagination:  utils.NewPaginationResponse(params, total),
	}, "Company users fetched successfully")
}
