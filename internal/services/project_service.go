package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/tenancy"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrProjectNameRequired   = errors.New("project name is required")
	ErrProjectNameTaken      = errors.New("a project with this name already exists in the company")
	ErrDeadlineInPast        = errors.New("deadline must be today or a future date")
	ErrInvalidProjectStatus  = errors.New("invalid project status")
	ErrInvalidProjectMember  = errors.New("one or more member IDs are invalid")
	ErrAlreadyProjectMember  = errors.New("user is already a member of this project")
	ErrProjectMemberNotFound = errors.New("user is not a member of this project")
	ErrCannotRemoveCreator   = errors.New("the project creator cannot be removed from the project")
	ErrFeatureNotInProject   = errors.New("feature belongs to another project")
	ErrFeatureAlreadyLinked  = errors.New("feature is already in the project's feature list")
	ErrFeatureNotLinked      = errors.New("feature is not in the project's feature list")
)

var projectDetailPreloads = []string{"Creator", "Members.User", "FeatureLinks.Feature"}

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	featureRepo repository.FeatureRepository
	userRepo    repository.UserRepository
	engine      *integrity.Engine
	policy      *policy.Policy
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo repository.ProjectRepository,
	featureRepo repository.FeatureRepository,
	userRepo repository.UserRepository,
	engine *integrity.Engine,
	p *policy.Policy,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		featureRepo: featureRepo,
		userRepo:    userRepo,
		engine:      engine,
		policy:      p,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description string
	Status      models.ProjectStatus
	Deadline    *time.Time
	MemberIDs   []uint64
}

// UpdateProjectInput represents input for updating a project
type UpdateProjectInput struct {
	Name          *string
	Description   *string
	Status        *models.ProjectStatus
	Deadline      *time.Time
	ClearDeadline bool
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	CompanyID *uint64
	Status    *models.ProjectStatus
	Search    string
	Page      utils.PaginationParams
}

// CreateProject creates a project in the caller's company. The creator becomes a member.
func (s *ProjectService) CreateProject(identity auth.Identity, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}
	if err := validateDeadline(input.Deadline); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusActive
	}
	if !validProjectStatus(input.Status) {
		return nil, ErrInvalidProjectStatus
	}

	if err := s.policy.CanPerform(identity, policy.ActionCreateProject, policy.Target{}); err != nil {
		return nil, err
	}

	companyID, err := tenancy.Resolve(identity, nil, false)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNameAvailable(name, companyID, 0); err != nil {
		return nil, err
	}

	memberIDs := make([]uint64, 0, len(input.MemberIDs))
	for _, id := range uniqueUint64(input.MemberIDs) {
		if id != identity.ID {
			memberIDs = append(memberIDs, id)
		}
	}
	if err := ensureUsersExist(s.userRepo, memberIDs, ErrInvalidProjectMember); err != nil {
		return nil, err
	}

	now := time.Now()
	members := make([]models.ProjectMember, 0, len(memberIDs)+1)
	members = append(members, models.ProjectMember{UserID: identity.ID, AddedBy: identity.ID, JoinedAt: now})
	for _, id := range memberIDs {
		members = append(members, models.ProjectMember{UserID: id, AddedBy: identity.ID, JoinedAt: now})
	}

	project := &models.Project{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CompanyID:   companyID,
		CreatedBy:   identity.ID,
		Status:      input.Status,
		Deadline:    input.Deadline,
	}

	if err := s.projectRepo.Create(project, members); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProjectNameTaken
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.loadProject(project.ID)
}

// ListProjects lists the projects the caller created or belongs to. With a company
// filter the list is scoped to that company; admins then see every project in it.
func (s *ProjectService) ListProjects(identity auth.Identity, input ListProjectsInput) ([]models.Project, int64, error) {
	filter := repository.ProjectFilter{
		Status: input.Status,
		Search: input.Search,
		Page:   input.Page,
	}

	if input.CompanyID != nil {
		scope, err := tenancy.Resolve(identity, input.CompanyID, true)
		if err != nil {
			return nil, 0, err
		}
		filter.CompanyID = scope
		if identity.Role == models.RoleUser {
			filter.VisibleTo = &identity.ID
		}
	} else {
		filter.VisibleTo = &identity.ID
	}

	projects, total, err := s.projectRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// ListProjectNames returns id and name of every project visible to the caller.
func (s *ProjectService) ListProjectNames(identity auth.Identity) ([]models.Project, error) {
	projects, err := s.projectRepo.ListNames(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project names: %w", err)
	}
	return projects, nil
}

// GetProject returns a project with creator, members and features
func (s *ProjectService) GetProject(identity auth.Identity, projectID uint64) (*models.Project, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, policy.ActionReadProject, policy.Target{Project: project}); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateProject applies a partial update to a project
func (s *ProjectService) UpdateProject(identity auth.Identity, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.authorize(identity, projectID, policy.ActionUpdateProject)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProjectNameRequired
		}
		if name != project.Name {
			if err := s.ensureNameAvailable(name, project.CompanyID, project.ID); err != nil {
				return nil, err
			}
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if !validProjectStatus(*input.Status) {
			return nil, ErrInvalidProjectStatus
		}
		project.Status = *input.Status
	}
	if input.ClearDeadline {
		project.Deadline = nil
	} else if input.Deadline != nil {
		if err := validateDeadline(input.Deadline); err != nil {
			return nil, err
		}
		project.Deadline = input.Deadline
	}

	if err := s.projectRepo.Update(project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProjectNameTaken
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.loadProject(project.ID)
}

// DeleteProject deletes a project and every feature it owns
func (s *ProjectService) DeleteProject(identity auth.Identity, projectID uint64) error {
	if _, err := s.authorize(identity, projectID, policy.ActionDeleteProject); err != nil {
		return err
	}

	if _, err := s.engine.DeleteProject(projectID); err != nil {
		return err
	}
	return nil
}

// ToggleVisibility flips the project's isShown flag
func (s *ProjectService) ToggleVisibility(identity auth.Identity, projectID uint64) (*models.Project, error) {
	project, err := s.authorize(identity, projectID, policy.ActionToggleProjectVisibility)
	if err != nil {
		return nil, err
	}

	project.IsShown = !project.IsShown
	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to toggle visibility: %w", err)
	}

	return s.loadProject(project.ID)
}

// AddMember adds an existing user to the project
func (s *ProjectService) AddMember(identity auth.Identity, projectID, userID uint64) (*models.Project, error) {
	project, err := s.authorize(identity, projectID, policy.ActionManageProjectMembers, "Members")
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if project.HasMember(userID) {
		return nil, ErrAlreadyProjectMember
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    userID,
		AddedBy:   identity.ID,
		JoinedAt:  time.Now(),
	}
	if err := s.projectRepo.AddMember(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyProjectMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return s.loadProject(project.ID)
}

// RemoveMember removes a member from the project. The creator cannot be removed.
func (s *ProjectService) RemoveMember(identity auth.Identity, projectID, userID uint64) (*models.Project, error) {
	project, err := s.authorize(identity, projectID, policy.ActionManageProjectMembers, "Members")
	if err != nil {
		return nil, err
	}

	if userID == project.CreatedBy {
		return nil, ErrCannotRemoveCreator
	}

	if !project.HasMember(userID) {
		return nil, ErrProjectMemberNotFound
	}

	if err := s.projectRepo.RemoveMember(project.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	return s.loadProject(project.ID)
}

// AddFeature puts one of the project's features back into its feature list
func (s *ProjectService) AddFeature(identity auth.Identity, projectID, featureID uint64) (*models.Project, error) {
	project, err := s.authorize(identity, projectID, policy.ActionManageProjectFeatures, "FeatureLinks")
	if err != nil {
		return nil, err
	}

	feature, err := s.featureRepo.FindByID(featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, fmt.Errorf("failed to find feature: %w", err)
	}
	if feature.ProjectID != project.ID {
		return nil, ErrFeatureNotInProject
	}

	if project.HasFeature(featureID) {
		return nil, ErrFeatureAlreadyLinked
	}

	link := &models.ProjectFeature{
		ProjectID: project.ID,
		FeatureID: featureID,
		LinkedAt:  time.Now(),
	}
	if err := s.projectRepo.LinkFeature(link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrFeatureAlreadyLinked
		}
		return nil, fmt.Errorf("failed to link feature: %w", err)
	}

	return s.loadProject(project.ID)
}

// RemoveFeature takes a feature out of the project's feature list without deleting it
func (s *ProjectService) RemoveFeature(identity auth.Identity, projectID, featureID uint64) (*models.Project, error) {
	project, err := s.authorize(identity, projectID, policy.ActionManageProjectFeatures, "FeatureLinks")
	if err != nil {
		return nil, err
	}

	if !project.HasFeature(featureID) {
		return nil, ErrFeatureNotLinked
	}

	if err := s.projectRepo.UnlinkFeature(project.ID, featureID); err != nil {
		return nil, fmt.Errorf("failed to unlink feature: %w", err)
	}

	return s.loadProject(project.ID)
}

// authorize loads the project (404 first) and checks action against it
func (s *ProjectService) authorize(identity auth.Identity, projectID uint64, action policy.Action, preload ...string) (*models.Project, error) {
	project, err := s.findProject(projectID, preload...)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanPerform(identity, action, policy.Target{Project: project}); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) findProject(projectID uint64, preload ...string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) loadProject(projectID uint64) (*models.Project, error) {
	project, err := s.findProject(projectID, projectDetailPreloads...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(project.FeatureLinks, func(i, j int) bool {
		return project.FeatureLinks[i].LinkedAt.Before(project.FeatureLinks[j].LinkedAt)
	})
	return project, nil
}

func (s *ProjectService) ensureNameAvailable(name string, companyID *uint64, exceptID uint64) error {
	existing, err := s.projectRepo.FindByNameAndCompany(name, companyID)
	if err == nil {
		if existing.ID != exceptID {
			return ErrProjectNameTaken
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check project name: %w", err)
	}
	return nil
}

// ensureUsersExist returns invalid unless every id names an existing user
func ensureUsersExist(userRepo repository.UserRepository, ids []uint64, invalid error) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := userRepo.CountByIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(ids) {
		return invalid
	}
	return nil
}

// validateDeadline rejects deadlines before the start of today
func validateDeadline(deadline *time.Time) error {
	if deadline == nil {
		return nil
	}
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if deadline.Before(startOfDay) {
		return ErrDeadlineInPast
	}
	return nil
}

func validProjectStatus(status models.ProjectStatus) bool {
	switch status {
	case models.ProjectStatusDraft, models.ProjectStatusActive, models.ProjectStatusArchived, models.ProjectStatusCompleted:
		return true
	}
	return false
}
