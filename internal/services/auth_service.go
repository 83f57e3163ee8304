package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/markbates/goth"
	"github.com/rs/zerolog"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/queue"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken            = errors.New("user with this email already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrUserNotFound          = errors.New("user not found")
	ErrWrongLoginType        = errors.New("account uses a different login method")
	ErrInvalidRefreshToken   = errors.New("refresh token is invalid, expired or already used")
	ErrInvalidTemporaryToken = errors.New("token is invalid or expired")
	ErrEmailAlreadyVerified  = errors.New("email is already verified")
	ErrInvalidOldPassword    = errors.New("old password is incorrect")
	ErrOAuthEmailMissing     = errors.New("oauth provider did not return an email address")
)

// TokenPair is the access and refresh token issued on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthSettings holds the configuration the auth flows need.
type AuthSettings struct {
	PublicBaseURL        string
	TemporaryTokenExpiry time.Duration
}

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	engine   *integrity.Engine
	issuer   *auth.TokenIssuer
	mailer   queue.Mailer
	settings AuthSettings
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	engine *integrity.Engine,
	issuer *auth.TokenIssuer,
	mailer queue.Mailer,
	settings AuthSettings,
	log zerolog.Logger,
) *AuthService {
	if settings.TemporaryTokenExpiry == 0 {
		settings.TemporaryTokenExpiry = constants.DefaultTemporaryTokenExpiry
	}
	return &AuthService{
		userRepo: userRepo,
		engine:   engine,
		issuer:   issuer,
		mailer:   mailer,
		settings: settings,
		log:      log,
	}
}

// RegisterInput represents the information needed for self-registration.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
}

// Register creates a USER account and queues the verification mail.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	email := normalizeEmail(input.Email)
	if err := s.ensureEmailAvailable(email); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	token, err := utils.GenerateTemporaryToken(s.settings.TemporaryTokenExpiry)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:                    strings.TrimSpace(input.Name),
		Email:                   email,
		PhoneNumber:             strings.TrimSpace(input.PhoneNumber),
		PasswordHash:            hashed,
		Role:                    models.RoleUser,
		LoginType:               models.LoginTypeEmailPassword,
		EmailVerificationToken:  token.Hashed,
		EmailVerificationExpiry: &token.Expiry,
	}

	if err := s.createUser(user, s.userRepo.Create); err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user, token.Unhashed)
	return user, nil
}

// LoginInput represents email/password credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(input LoginInput) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuthAttempt("password", false)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LoginType != models.LoginTypeEmailPassword {
		return nil, nil, fmt.Errorf("%w: please use the %s login option", ErrWrongLoginType, strings.ToLower(string(user.LoginType)))
	}

	if err := auth.CheckPassword(user.PasswordHash, input.Password); err != nil {
		metrics.RecordAuthAttempt("password", false)
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordAuthAttempt("password", true)
	return user, tokens, nil
}

// RefreshTokens rotates the token pair. A refresh token is accepted once.
func (s *AuthService) RefreshTokens(refreshToken string) (*models.User, *TokenPair, error) {
	claims, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.RefreshTokenHash == "" || user.RefreshTokenHash != utils.HashToken(refreshToken) {
		return nil, nil, ErrInvalidRefreshToken
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Logout forgets the stored refresh token.
func (s *AuthService) Logout(userID uint64) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	user.RefreshTokenHash = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// GetUser returns a user by id.
func (s *AuthService) GetUser(userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// VerifyEmail consumes an email verification token.
func (s *AuthService) VerifyEmail(token string) (*models.User, error) {
	user, err := s.userRepo.FindByVerificationToken(utils.HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidTemporaryToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = ""
	user.EmailVerificationExpiry = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}
	return user, nil
}

// ResendEmailVerification issues a fresh verification token for the caller.
func (s *AuthService) ResendEmailVerification(ctx context.Context, userID uint64) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	token, err := utils.GenerateTemporaryToken(s.settings.TemporaryTokenExpiry)
	if err != nil {
		return err
	}
	user.EmailVerificationToken = token.Hashed
	user.EmailVerificationExpiry = &token.Expiry
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	s.sendVerification(ctx, user, token.Unhashed)
	return nil
}

// ForgotPassword queues a reset mail when the address is known. Unknown
// addresses succeed silently so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := utils.GenerateTemporaryToken(s.settings.TemporaryTokenExpiry)
	if err != nil {
		return err
	}
	user.ForgotPasswordToken = token.Hashed
	user.ForgotPasswordExpiry = &token.Expiry
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/reset-password/%s", strings.TrimRight(s.settings.PublicBaseURL, "/"), token.Unhashed)
	if err := s.mailer.EnqueuePasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		s.log.Warn().Err(err).Uint64("user_id", user.ID).Msg("password reset mail not queued")
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
// Existing sessions are invalidated.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByResetToken(utils.HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidTemporaryToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.ForgotPasswordToken = ""
	user.ForgotPasswordExpiry = nil
	user.RefreshTokenHash = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	if user.LoginType != models.LoginTypeEmailPassword {
		return ErrWrongLoginType
	}
	if err := auth.CheckPassword(user.PasswordHash, oldPassword); err != nil {
		return ErrInvalidOldPassword
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// OAuthLogin signs in the user behind a provider profile, creating the account
// on first login. An address registered with another login type is refused.
func (s *AuthService) OAuthLogin(provider string, profile goth.User) (*models.User, *TokenPair, error) {
	loginType, ok := auth.LoginTypeForProvider(provider)
	if !ok {
		return nil, nil, auth.ErrUnknownProvider
	}
	email := normalizeEmail(profile.Email)
	if email == "" {
		return nil, nil, ErrOAuthEmailMissing
	}

	user, err := s.userRepo.FindByEmail(email)
	switch {
	case err == nil:
		if user.LoginType != loginType {
			metrics.RecordAuthAttempt(provider, false)
			return nil, nil, fmt.Errorf("%w: please use the %s login option", ErrWrongLoginType, strings.ToLower(string(user.LoginType)))
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createOAuthUser(email, loginType, profile)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordAuthAttempt(provider, true)
	return user, tokens, nil
}

func (s *AuthService) createOAuthUser(email string, loginType models.LoginType, profile goth.User) (*models.User, error) {
	// OAuth accounts never log in with a password; store an unguessable one.
	random, err := utils.RandomHex(32)
	if err != nil {
		return nil, err
	}
	hashed, err := auth.HashPassword(random)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = profile.NickName
	}
	user := &models.User{
		Name:            name,
		Email:           email,
		PasswordHash:    hashed,
		Role:            models.RoleUser,
		LoginType:       loginType,
		IsEmailVerified: true,
	}
	if err := s.createUser(user, s.userRepo.Create); err != nil {
		return nil, err
	}
	return user, nil
}

// BootstrapSuperAdmin creates the configured super admin if it does not exist yet.
// It is the only way to obtain the SUPERADMIN role.
func (s *AuthService) BootstrapSuperAdmin(email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err == nil {
		if existing.Role != models.RoleSuperAdmin {
			s.log.Warn().Str("email", email).Msg("configured super admin email belongs to a non super admin account")
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find super admin: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:            "Super Admin",
		Email:           email,
		PasswordHash:    hashed,
		Role:            models.RoleSuperAdmin,
		LoginType:       models.LoginTypeEmailPassword,
		IsEmailVerified: true,
	}
	if err := s.createUser(user, s.userRepo.Create); err != nil {
		return nil, err
	}
	s.log.Info().Uint64("user_id", user.ID).Msg("super admin created")
	return user, nil
}

// issueTokens issues a fresh pair and stores the refresh token hash.
func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	user.RefreshTokenHash = utils.HashToken(refresh)
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) ensureEmailAvailable(email string) error {
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *AuthService) createUser(user *models.User, create func(*models.User) error) error {
	if err := s.engine.CreateWithUniqueUsername(user, create); err != nil {
		if errors.Is(err, integrity.ErrEmailTaken) {
			return ErrEmailTaken
		}
		if errors.Is(err, integrity.ErrUsernameCollision) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User, token string) {
	verifyURL := fmt.Sprintf("%s/api/v1/users/verify-email/%s", strings.TrimRight(s.settings.PublicBaseURL, "/"), token)
	if err := s.mailer.EnqueueEmailVerification(ctx, user.Email, user.Name, verifyURL); err != nil {
		s.log.Warn().Err(err).Uint64("user_id", user.ID).Msg("verification mail not queued")
	}
}
