package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// CompanyDTO represents a company with its owner and users expanded
type CompanyDTO struct {
	ID        uint64               `json:"id"`
	Name      string               `json:"name"`
	Email     string               `json:"email"`
	Status    models.CompanyStatus `json:"status"`
	Domain    *string              `json:"domain"`
	OwnerID   uint64               `json:"ownerId"`
	Owner     *UserSummaryDTO      `json:"owner,omitempty"`
	Users     []UserSummaryDTO     `json:"users"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// CompanyListResponse represents a paginated list of companies
type CompanyListResponse struct {
	Companies  []CompanyDTO             `json:"companies"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// CompanyUsersResponse lists the users of one company
type CompanyUsersResponse struct {
	CompanyID   uint64                   `json:"companyId"`
	CompanyName string                   `json:"companyName"`
	Users       []UserDTO                `json:"users"`
	Pagination  utils.PaginationResponse `json:"pagination"`
}

// ToCompanyDTO converts a Company model to CompanyDTO
func ToCompanyDTO(company models.Company) CompanyDTO {
	dto := CompanyDTO{
		ID:        company.ID,
		Name:      company.Name,
		Email:     company.Email,
		Status:    company.Status,
		Domain:    company.Domain,
		OwnerID:   company.OwnerID,
		Users:     make([]UserSummaryDTO, 0, len(company.Users)),
		CreatedAt: company.CreatedAt,
		UpdatedAt: company.UpdatedAt,
	}

	// Include owner if preloaded
	if company.Owner.ID != 0 {
		owner := ToUserSummaryDTO(company.Owner)
		dto.Owner = &owner
	}

	for _, cu := range company.Users {
		if cu.User.ID == 0 {
			continue
		}
		dto.Users = append(dto.Users, ToUserSummaryDTO(cu.User))
	}

	return dto
}

// ToCompanyListResponse converts a page of companies
func ToCompanyListResponse(companies []models.Company, params utils.PaginationParams, total int64) CompanyListResponse {
	items := make([]CompanyDTO, len(companies))
	for i, company := range companies {
		items[i] = ToCompanyDTO(company)
	}
	return CompanyListResponse{
		Companies:  items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
