package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

// CookieSettings controls the auth cookies written on login
type CookieSettings struct {
	Secure        bool
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	cookies     CookieSettings
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		cookies:     cookies,
	}
}

type registerRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,max=32"`
}

// Register creates a USER account and sends the verification email.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, dto.ToUserDTO(*user), "User registered successfully. A verification email has been sent")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates with email and password and sets the token cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookies(c, tokens)
	respond(c, http.StatusOK, authResponse(user, tokens), "User logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken rotates the token pair. The refresh token comes from the cookie or the body.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(constants.RefreshTokenCookieName)
	if token == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	if token == "" {
		apierrors.Unauthorized(c, "Refresh token is required")
		return
	}

	user, tokens, err := h.authService.RefreshTokens(token)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookies(c, tokens)
	respond(c, http.StatusOK, authResponse(user, tokens), "Access token refreshed")
}

// Logout clears the cookies and the stored refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(identity.ID); err != nil {
		respondError(c, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(identity.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, dto.ToUserDTO(*user), "Current user fetched successfully")
}

// VerifyEmail consumes an email verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.authService.VerifyEmail(c.Param("verificationToken"))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"isEmailVerified": user.IsEmailVerified}, "Email is verified")
}

// ResendEmailVerification issues a new verification token for the caller.
func (h *AuthHandler) ResendEmailVerification(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.authService.ResendEmailVerification(c.Request.Context(), identity.ID); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Mail has been sent to your email")
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword sends a reset link. The response does not reveal whether the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "If the email is registered, a password reset link has been sent")
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
}

// ResetPassword sets a new password using a reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Param("resetToken"), req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password reset successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
}

// ChangePassword changes the caller's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(identity.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

type assignRoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=ADMIN USER SUPERADMIN"`
}

// AssignRole changes another user's role.
func (h *AuthHandler) AssignRole(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	var req assignRoleRequest
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

func authResponse(user *models.User, tokens *services.TokenPair) dto.AuthResponse {
	return dto.AuthResponse{
		User:         dto.ToUserDTO(*user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, tokens *services.TokenPair) {
	setAuthCookies(c, h.cookies, tokens)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.AccessTokenCookieName, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(constants.RefreshTokenCookieName, "", -1, "/", "", h.cookies.Secure, true)
}

func setAuthCookies(c *gin.Context, cookies CookieSettings, tokens *services.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.AccessTokenCookieName, tokens.AccessToken, int(cookies.AccessExpiry.Seconds()), "/", "", cookies.Secure, true)
	c.SetCookie(constants.RefreshTokenCookieName, tokens.RefreshToken, int(cookies.RefreshExpiry.Seconds()), "/", "", cookies.Secure, true)
}
