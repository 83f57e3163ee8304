package constants

import "time"

// Context keys
const (
	ContextKeyIdentity  = "identity"
	ContextKeyRequestID = "request_id"
)

// Cookies and sessions
const (
	SessionCookieName       = "pm_session"
	AccessTokenCookieName   = "accessToken"
	RefreshTokenCookieName  = "refreshToken"
	OAuthStateSessionKey    = "oauth_state"
	OAuthProviderSessionKey = "oauth_session"
	RequestIDHeader         = "X-Request-ID"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxTagsPerFeature = 20
)

// Token lifetimes used when configuration does not override them.
const (
	DefaultAccessTokenExpiry    = 7 * 24 * time.Hour
	DefaultRefreshTokenExpiry   = 10 * 24 * time.Hour
	DefaultTemporaryTokenExpiry = 20 * time.Minute
)

const MaxAIGeneratedFeatures = 20
