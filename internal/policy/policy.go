// Package policy decides whether an identity may perform an action on a loaded target.
// Decisions are pure: callers load the entities, the policy only reads their attributes.
package policy

import (
	"errors"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/models"
)

// Action identifies a guarded operation.
type Action string

const (
	ActionCreateCompany     Action = "company:create"
	ActionReadCompany       Action = "company:read"
	ActionListCompanies     Action = "company:list"
	ActionUpdateCompany     Action = "company:update"
	ActionDeleteCompany     Action = "company:delete"
	ActionCreateCompanyUser Action = "company:create_user"
	ActionChangeUserRole    Action = "user:change_role"
	ActionListCompanyUsers  Action = "company:list_users"

	ActionCreateProject           Action = "project:create"
	ActionReadProject             Action = "project:read"
	ActionUpdateProject           Action = "project:update"
	ActionDeleteProject           Action = "project:delete"
	ActionToggleProjectVisibility Action = "project:toggle_visibility"
	ActionManageProjectMembers    Action = "project:manage_members"
	ActionManageProjectFeatures   Action = "project:manage_features"

	ActionCreateFeature           Action = "feature:create"
	ActionReadFeature             Action = "feature:read"
	ActionUpdateFeature           Action = "feature:update"
	ActionDeleteFeature           Action = "feature:delete"
	ActionAddComment              Action = "feature:add_comment"
	ActionRemoveComment           Action = "feature:remove_comment"
	ActionAssignFeatureUsers      Action = "feature:assign_users"
	ActionToggleFeatureCompletion Action = "feature:toggle_completion"
)

// Reason tells callers why a request was denied.
type Reason string

const (
	ReasonNotOwner          Reason = "NOT_OWNER"
	ReasonRoleInsufficient  Reason = "ROLE_INSUFFICIENT"
	ReasonCompanySuspended  Reason = "COMPANY_SUSPENDED"
	ReasonCrossTenantDenied Reason = "CROSS_TENANT_DENIED"
	ReasonImmutableRole     Reason = "IMMUTABLE_ROLE"
	ReasonSameRole          Reason = "SAME_ROLE"
)

// Denial is the error returned for a refused action.
type Denial struct {
	Reason  Reason
	Message string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("%s: %s", d.Reason, d.Message)
}

// Deny builds a Denial.
func Deny(reason Reason, message string) *Denial {
	return &Denial{Reason: reason, Message: message}
}

// IsDenied reports whether err is a Denial with the given reason.
func IsDenied(err error, reason Reason) bool {
	var d *Denial
	return errors.As(err, &d) && d.Reason == reason
}

// Target carries the already-loaded attributes a decision may look at.
// Only the fields relevant to the action need to be set.
type Target struct {
	// Company must have Users preloaded for ActionListCompanyUsers.
	Company *models.Company
	User    *models.User
	Project *models.Project
	Feature *models.Feature
	Comment *models.FeatureComment

	// RequestedRole is the new role for ActionChangeUserRole.
	RequestedRole models.Role
}

// Policy holds the switches that change authorization behavior.
type Policy struct {
	// StrictOwnership restricts project mutations to the project creator and
	// feature/comment removal to their authors. When false, any authenticated
	// identity may perform them.
	StrictOwnership bool
}

func New(strictOwnership bool) *Policy {
	return &Policy{StrictOwnership: strictOwnership}
}

// CanPerform returns nil when identity may perform action on target, otherwise a *Denial.
func (p *Policy) CanPerform(identity auth.Identity, action Action, target Target) error {
	switch action {
	case ActionCreateCompany, ActionListCompanies:
		if !identity.IsSuperAdmin() {
			return Deny(ReasonRoleInsufficient, "only a super admin can perform this action")
		}
		return nil

	case ActionReadCompany:
		return nil

	case ActionUpdateCompany, ActionDeleteCompany:
		if target.Company == nil {
			return errMissingTarget(action)
		}
		if identity.IsSuperAdmin() || target.Company.OwnerID == identity.ID {
			return nil
		}
		return Deny(ReasonNotOwner, "only the company owner can modify this company")

	case ActionCreateCompanyUser:
		return p.canCreateCompanyUser(identity, target)

	case ActionChangeUserRole:
		return p.canChangeRole(identity, target)

	case ActionListCompanyUsers:
		return p.canListCompanyUsers(identity, target)

	case ActionCreateProject, ActionReadProject:
		return nil

	case ActionUpdateProject, ActionDeleteProject, ActionToggleProjectVisibility,
		ActionManageProjectMembers, ActionManageProjectFeatures:
		if target.Project == nil {
			return errMissingTarget(action)
		}
		if !p.StrictOwnership || identity.IsSuperAdmin() || target.Project.CreatedBy == identity.ID {
			return nil
		}
		return Deny(ReasonNotOwner, "only the project creator can modify this project")

	case ActionCreateFeature, ActionReadFeature, ActionUpdateFeature, ActionAddComment,
		ActionAssignFeatureUsers, ActionToggleFeatureCompletion:
		return nil

	case ActionDeleteFeature:
		if target.Feature == nil {
			return errMissingTarget(action)
		}
		if !p.StrictOwnership || identity.IsSuperAdmin() || target.Feature.CreatedBy == identity.ID ||
			isProjectCreator(target.Project, identity.ID) {
			return nil
		}
		return Deny(ReasonNotOwner, "only the feature or project creator can delete this feature")

	case ActionRemoveComment:
		if target.Comment == nil {
			return errMissingTarget(action)
		}
		if !p.StrictOwnership || identity.IsSuperAdmin() || target.Comment.CreatedBy == identity.ID ||
			isProjectCreator(target.Project, identity.ID) {
			return nil
		}
		return Deny(ReasonNotOwner, "only the comment author or project creator can remove this comment")
	}

	return fmt.Errorf("policy: unknown action %q", action)
}

func (p *Policy) canCreateCompanyUser(identity auth.Identity, target Target) error {
	if target.Company == nil {
		return errMissingTarget(ActionCreateCompanyUser)
	}
	switch identity.Role {
	case models.RoleSuperAdmin:
	case models.RoleAdmin:
		if !identity.InCompany(target.Company.ID) {
			return Deny(ReasonCrossTenantDenied, "admins can only create users in their own company")
		}
	default:
		return Deny(ReasonRoleInsufficient, "only admins can create company users")
	}
	if target.Company.Status == models.CompanyStatusSuspended {
		return Deny(ReasonCompanySuspended, "company is suspended")
	}
	return nil
}

// canChangeRole admits ADMIN callers only; a SUPERADMIN caller is refused as well.
func (p *Policy) canChangeRole(identity auth.Identity, target Target) error {
	if target.User == nil {
		return errMissingTarget(ActionChangeUserRole)
	}
	if target.RequestedRole == models.RoleSuperAdmin {
		return Deny(ReasonImmutableRole, "the super admin role cannot be assigned")
	}
	if identity.Role != models.RoleAdmin {
		return Deny(ReasonRoleInsufficient, "only admins can change user roles")
	}
	if target.User.Role == models.RoleSuperAdmin {
		return Deny(ReasonImmutableRole, "a super admin's role cannot be changed")
	}
	if target.User.CompanyID == nil || !identity.InCompany(*target.User.CompanyID) {
		return Deny(ReasonCrossTenantDenied, "user belongs to another company")
	}
	if target.User.Role == target.RequestedRole {
		return Deny(ReasonSameRole, fmt.Sprintf("user already has role %s", target.RequestedRole))
	}
	return nil
}

func (p *Policy) canListCompanyUsers(identity auth.Identity, target Target) error {
	if target.Company == nil {
		return errMissingTarget(ActionListCompanyUsers)
	}
	switch identity.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		if !identity.InCompany(target.Company.ID) {
			return Deny(ReasonCrossTenantDenied, "admins can only list users of their own company")
		}
		// The token's company may be stale; check against the stored membership.
		if !target.Company.HasUser(identity.ID) {
			return Deny(ReasonCrossTenantDenied, "caller is not a member of this company")
		}
		return nil
	default:
		return Deny(ReasonRoleInsufficient, "only admins can list company users")
	}
}

func isProjectCreator(project *models.Project, userID uint64) bool {
	return project != nil && project.CreatedBy == userID
}

func errMissingTarget(action Action) error {
	return fmt.Errorf("policy: action %q requires a loaded target", action)
}

// RequireRole denies identities whose role is not listed.
func RequireRole(identity auth.Identity, roles ...models.Role) error {
	for _, r := range roles {
		if identity.Role == r {
			return nil
		}
	}
	return Deny(ReasonRoleInsufficient, "you do not have permission to perform this action")
}
