package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/policy"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeRoleInsufficient  = "ROLE_INSUFFICIENT"
	ErrCodeCrossTenantDenied = "CROSS_TENANT_DENIED"
	ErrCodeNotOwner          = "NOT_OWNER"
	ErrCodeImmutableRole     = "IMMUTABLE_ROLE"
	ErrCodeCompanySuspended  = "COMPANY_SUSPENDED"

	// Validation errors
	ErrCodeInvalidInput = "VALIDATION_ERROR"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeSameRole      = "SAME_ROLE"

	// Business logic errors
	ErrCodeInvalidOperation = "INVALID_OPERATION"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// APIError is the uniform error envelope
type APIError struct {
	StatusCode int           `json:"statusCode"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Success    bool          `json:"success"`
	Errors     []FieldDetail `json:"errors,omitempty"`
}

// FieldDetail describes one rejected request field
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with field details
func NewAPIErrorWithDetails(statusCode int, code, message string, details []FieldDetail) *APIError {
	apiErr := NewAPIError(statusCode, code, message)
	apiErr.Errors = details
	return apiErr
}

// RespondWithError aborts the request with an error envelope
func RespondWithError(c *gin.Context, err *APIError) {
	c.AbortWithStatusJSON(err.StatusCode, err)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, NewAPIError(http.StatusUnauthorized, ErrCodeUnauthorized, message))
}

// InvalidCredentials sends a 401 response for failed logins
func InvalidCredentials(c *gin.Context, message string) {
	RespondWithError(c, NewAPIError(http.StatusUnauthorized, ErrCodeInvalidCredentials, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, NewAPIError(http.StatusForbidden, ErrCodeForbidden, message))
}

var denialStatus = map[policy.Reason]struct {
	status int
	code   string
}{
	policy.ReasonRoleInsufficient:  {http.StatusForbidden, ErrCodeRoleInsufficient},
	policy.ReasonCrossTenantDenied: {http.StatusForbidden, ErrCodeCrossTenantDenied},
	policy.ReasonNotOwner:          {http.StatusForbidden, ErrCodeNotOwner},
	policy.ReasonImmutableRole:     {http.StatusForbidden, ErrCodeImmutableRole},
	policy.ReasonCompanySuspended:  {http.StatusForbidden, ErrCodeCompanySuspended},
	policy.ReasonSameRole:          {http.StatusConflict, ErrCodeSameRole},
}

// Denied sends the response for a policy denial and counts it by reason
func Denied(c *gin.Context, denial *policy.Denial) {
	metrics.RecordDenial(string(denial.Reason))

	mapping, ok := denialStatus[denial.Reason]
	if !ok {
		Forbidden(c, denial.Message)
		return
	}
	RespondWithError(c, NewAPIError(mapping.status, mapping.code, denial.Message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, NewAPIError(http.StatusNotFound, ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with field details
func BadRequestWithDetails(c *gin.Context, message string, details []FieldDetail) {
	RespondWithError(c, NewAPIErrorWithDetails(http.StatusBadRequest, ErrCodeInvalidInput, message, details))
}

// InvalidOperation sends a 400 response for requests the caller's state does not allow
func InvalidOperation(c *gin.Context, message string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeInvalidOperation, message))
}

// ValidationFailed sends a 400 response for a binding error, listing each failed field
func ValidationFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		BadRequest(c, "Invalid request body")
		return
	}

	details := make([]FieldDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldDetail{
			Field:   lowerFirst(fe.Field()),
			Message: fieldMessage(fe),
		})
	}
	BadRequestWithDetails(c, "Validation failed", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return fmt.Sprintf("failed the %q check", fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	RespondWithError(c, NewAPIError(http.StatusConflict, ErrCodeConflict, message))
}

// AlreadyExists sends a 409 response for duplicate entities
func AlreadyExists(c *gin.Context, message string) {
	RespondWithError(c, NewAPIError(http.StatusConflict, ErrCodeAlreadyExists, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, NewAPIError(http.StatusInternalServerError, ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, NewAPIError(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message))
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	RespondWithError(c, NewAPIError(http.StatusTooManyRequests, ErrCodeRateLimited, message))
}
