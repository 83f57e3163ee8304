package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/tenancy"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrCompanyIDRequired = errors.New("companyId is required")
	ErrInvalidRole       = errors.New("role must be ADMIN or USER")
)

// UserService manages users inside a company.
type UserService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	engine      *integrity.Engine
	policy      *policy.Policy
	auth        *AuthService
	log         zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	engine *integrity.Engine,
	p *policy.Policy,
	authService *AuthService,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		engine:      engine,
		policy:      p,
		auth:        authService,
		log:         log,
	}
}

// CreateCompanyUserInput represents a user created by an administrator.
// CompanyID is only honored for super admins; admins always create in their own company.
type CreateCompanyUserInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Role        models.Role
	CompanyID   *uint64
}

// CreateCompanyUser creates a user and links it to the target company.
func (s *UserService) CreateCompanyUser(ctx context.Context, identity auth.Identity, input CreateCompanyUserInput) (*models.User, error) {
	if err := policy.RequireRole(identity, models.RoleAdmin, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	companyID, err := s.targetCompany(identity, input.CompanyID)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if role == models.RoleSuperAdmin {
		return nil, policy.Deny(policy.ReasonImmutableRole, "the super admin role cannot be assigned")
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	company, err := s.engine.EnsureCompanyAcceptsUsers(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionCreateCompanyUser, policy.Target{Company: company}); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	if err := s.auth.ensureEmailAvailable(email); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	token, err := utils.GenerateTemporaryToken(s.auth.settings.TemporaryTokenExpiry)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:                    strings.TrimSpace(input.Name),
		Email:                   email,
		PhoneNumber:             strings.TrimSpace(input.PhoneNumber),
		PasswordHash:            hashed,
		Role:                    role,
		LoginType:               models.LoginTypeEmailPassword,
		EmailVerificationToken:  token.Hashed,
		EmailVerificationExpiry: &token.Expiry,
	}

	create := func(u *models.User) error {
		return s.userRepo.CreateInCompany(u, company.ID)
	}
	if err := s.auth.createUser(user, create); err != nil {
		return nil, err
	}

	s.log.Info().Uint64("user_id", user.ID).Uint64("company_id", company.ID).Str("role", string(role)).Msg("company user created")
	s.auth.sendVerification(ctx, user, token.Unhashed)
	return user, nil
}

// targetCompany picks the company a new user goes into. Admins are pinned to
// their own company; the request body is ignored for them.
func (s *UserService) targetCompany(identity auth.Identity, requested *uint64) (uint64, error) {
	if identity.IsSuperAdmin() {
		if requested == nil {
			return 0, ErrCompanyIDRequired
		}
		return *requested, nil
	}

	companyID, err := tenancy.Resolve(identity, nil, true)
	if err != nil {
		return 0, err
	}
	return *companyID, nil
}

// ChangeUserRole switches a user between ADMIN and USER.
func (s *UserService) ChangeUserRole(identity auth.Identity, userID uint64, role models.Role) (*models.User, error) {
	target, err := s.auth.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.policy.CanPerform(identity, policy.ActionChangeUserRole, policy.Target{User: target, RequestedRole: role}); err != nil {
		return nil, err
	}

	target.Role = role
	if err := s.userRepo.Update(target); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	return target, nil
}

// ListCompanyUsers lists the users of the effective company.
func (s *UserService) ListCompanyUsers(identity auth.Identity, companyID *uint64, params utils.PaginationParams) (*models.Company, []models.User, int64, error) {
	scope, err := tenancy.Resolve(identity, companyID, true)
	if err != nil {
		return nil, nil, 0, err
	}

	company, err := s.companyRepo.FindByID(*scope, "Users")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, 0, ErrCompanyNotFound
		}
		return nil, nil, 0, fmt.Errorf("failed to find company: %w", err)
	}
	if err := s.policy.CanPerform(identity, policy.ActionListCompanyUsers, policy.Target{Company: company}); err != nil {
		return nil, nil, 0, err
	}

	users, total, err := s.userRepo.ListByCompany(company.ID, params)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return company, users, total, nil
}
