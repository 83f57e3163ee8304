package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrCompanyNameRequired  = errors.New("company name cannot be empty")
	ErrCompanyEmailTaken    = errors.New("company with this email already exists")
	ErrInvalidCompanyStatus = errors.New("invalid company status")
)

var companyDetailPreloads = []string{"Owner", "Users.User"}

// CompanyService provides business logic for company operations.
type CompanyService struct {
	companyRepo repository.CompanyRepository
	policy      *policy.Policy
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companyRepo repository.CompanyRepository, p *policy.Policy) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		policy:      p,
	}
}

// CreateCompanyInput represents parameters to create a new company.
type CreateCompanyInput struct {
	Name   string
	Email  string
	Domain *string
}

// UpdateCompanyInput holds the fields to change; nil fields are left untouched.
type UpdateCompanyInput struct {
	Name        *string
	Domain      *string
	ClearDomain bool
	Status      *models.CompanyStatus
}

// CreateCompany creates a company owned by the caller, who also becomes its first user.
func (s *CompanyService) CreateCompany(identity auth.Identity, input CreateCompanyInput) (*models.Company, error) {
	if err := s.policy.CanPerform(identity, policy.ActionCreateCompany, policy.Target{}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCompanyNameRequired
	}
	email := normalizeEmail(input.Email)

	if _, err := s.companyRepo.FindByEmail(email); err == nil {
		return nil, ErrCompanyEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check company email: %w", err)
	}

	company := &models.Company{
		Name:    name,
		Email:   email,
		OwnerID: identity.ID,
		Status:  models.CompanyStatusActive,
		Domain:  trimOptional(input.Domain),
	}

	if err := s.companyRepo.Create(company); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCompanyEmailTaken
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	return s.loadCompany(company.ID)
}

// GetCompany returns a company with its owner and users.
func (s *CompanyService) GetCompany(identity auth.Identity, companyID uint64) (*models.Company, error) {
	company, err := s.loadCompany(companyID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionReadCompany, policy.Target{Company: company}); err != nil {
		return nil, err
	}
	return company, nil
}

// ListCompanies returns every company. Super admins only.
func (s *CompanyService) ListCompanies(identity auth.Identity, params utils.PaginationParams) ([]models.Company, int64, error) {
	if err := s.policy.CanPerform(identity, policy.ActionListCompanies, policy.Target{}); err != nil {
		return nil, 0, err
	}

	companies, total, err := s.companyRepo.List(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, total, nil
}

// UpdateCompany applies a partial update. Owner or super admin only.
func (s *CompanyService) UpdateCompany(identity auth.Identity, companyID uint64, input UpdateCompanyInput) (*models.Company, error) {
	company, err := s.findCompany(companyID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionUpdateCompany, policy.Target{Company: company}); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrCompanyNameRequired
		}
		company.Name = name
	}
	if input.ClearDomain {
		company.Domain = nil
	} else if input.Domain != nil {
		company.Domain = trimOptional(input.Domain)
	}
	if input.Status != nil {
		if !validCompanyStatus(*input.Status) {
			return nil, ErrInvalidCompanyStatus
		}
		company.Status = *input.Status
	}

	if err := s.companyRepo.Update(company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return s.loadCompany(company.ID)
}

// DeleteCompany removes a company. Its users and projects survive, detached.
func (s *CompanyService) DeleteCompany(identity auth.Identity, companyID uint64) error {
	company, err := s.findCompany(companyID)
	if err != nil {
		return err
	}
	if err := s.policy.CanPerform(identity, policy.ActionDeleteCompany, policy.Target{Company: company}); err != nil {
		return err
	}

	if err := s.companyRepo.Delete(companyID); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}

func (s *CompanyService) findCompany(companyID uint64, preload ...string) (*models.Company, error) {
	company, err := s.companyRepo.FindByID(companyID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	return company, nil
}

func (s *CompanyService) loadCompany(companyID uint64) (*models.Company, error) {
	return s.findCompany(companyID, companyDetailPreloads...)
}

func validCompanyStatus(status models.CompanyStatus) bool {
	switch status {
	case models.CompanyStatusActive, models.CompanyStatusInactive, models.CompanyStatusSuspended:
		return true
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
