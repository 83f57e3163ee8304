package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/tenancy"
	"gorm.io/gorm"
)

// Response is the success envelope
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// currentIdentity returns the caller or writes a 401
func currentIdentity(c *gin.Context) (auth.Identity, bool) {
	identity, exists := auth.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return auth.Identity{}, false
	}
	return identity, true
}

// idParam returns a path id parsed by middleware.RequireIDParams
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, ok := middleware.GetIDParam(c, name)
	if !ok {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

var (
	notFoundErrors = []error{
		services.ErrCompanyNotFound,
		services.ErrUserNotFound,
		services.ErrProjectNotFound,
		services.ErrFeatureNotFound,
		services.ErrProjectMemberNotFound,
		services.ErrFeatureNotLinked,
		services.ErrAssignmentNotFound,
		services.ErrCommentNotFound,
		auth.ErrUnknownProvider,
	}
	alreadyExistsErrors = []error{
		services.ErrEmailTaken,
		services.ErrCompanyEmailTaken,
		services.ErrProjectNameTaken,
		services.ErrAlreadyProjectMember,
		services.ErrFeatureAlreadyLinked,
		integrity.ErrEmailTaken,
		gorm.ErrDuplicatedKey,
	}
	conflictErrors = []error{
		services.ErrAlreadyAssigned,
		services.ErrEmailAlreadyVerified,
	}
	invalidStateErrors = []error{
		tenancy.ErrNoCompany,
		services.ErrCompanyIDRequired,
		services.ErrCannotRemoveCreator,
		services.ErrFeatureNotInProject,
		services.ErrWrongLoginType,
		services.ErrAINoFeaturesSuggested,
		services.ErrAINoValidFeatures,
		services.ErrAITooManyFeatures,
	}
	validationErrors = []error{
		services.ErrCompanyNameRequired,
		services.ErrInvalidCompanyStatus,
		services.ErrInvalidRole,
		services.ErrProjectNameRequired,
		services.ErrDeadlineInPast,
		services.ErrInvalidProjectStatus,
		services.ErrInvalidProjectMember,
		services.ErrFeatureTitleRequired,
		services.ErrInvalidFeatureStatus,
		services.ErrInvalidFeaturePriority,
		services.ErrTooManyTags,
		services.ErrNoUserIDsProvided,
		services.ErrInvalidAssignee,
		services.ErrCommentTextRequired,
		services.ErrInvalidTemporaryToken,
		services.ErrInvalidOldPassword,
		services.ErrOAuthEmailMissing,
	}
	unauthenticatedErrors = []error{
		services.ErrInvalidCredentials,
		services.ErrInvalidRefreshToken,
	}
)

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError translates a service error into the error envelope
func respondError(c *gin.Context, err error) {
	var denial *policy.Denial
	switch {
	case errors.As(err, &denial):
		apierrors.Denied(c, denial)
	case matches(err, notFoundErrors):
		apierrors.NotFound(c, err.Error())
	case matches(err, alreadyExistsErrors):
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			apierrors.AlreadyExists(c, "Resource already exists")
			return
		}
		apierrors.AlreadyExists(c, err.Error())
	case matches(err, conflictErrors):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be between %d and %d characters",
			constants.MinPasswordLength, constants.MaxPasswordLength))
	case matches(err, validationErrors):
		apierrors.BadRequest(c, err.Error())
	case matches(err, invalidStateErrors):
		apierrors.InvalidOperation(c, err.Error())
	case matches(err, unauthenticatedErrors):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, integrity.ErrCascadeFailed):
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("cascade delete failed")
		apierrors.InternalError(c, "Delete could not be completed")
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		apierrors.InternalError(c, "Internal server error")
	}
}

// bindJSON binds the body and writes a validation error on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.ValidationFailed(c, err)
		return false
	}
	return true
}

// bindPatch binds a partial update body and reports which keys were sent as null
func bindPatch(c *gin.Context, req any) (map[string]bool, bool) {
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
		apierrors.ValidationFailed(c, err)
		return nil, false
	}
	var raw map[string]any
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}
	nulls := make(map[string]bool)
	for key, value := range raw {
		if value == nil {
			nulls[key] = true
		}
	}
	return nulls, true
}

// bindQuery binds query parameters and writes a validation error on failure
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		apierrors.ValidationFailed(c, err)
		return false
	}
	return true
}
