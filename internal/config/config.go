package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yukikurage/project-management-api/internal/constants"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	SessionSecret string

	AccessTokenSecret    string
	AccessTokenExpiry    time.Duration
	RefreshTokenSecret   string
	RefreshTokenExpiry   time.Duration
	TemporaryTokenExpiry time.Duration

	CORSOrigins   []string
	RateLimitAuth string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	ClientSSORedirectURL string
	PublicBaseURL        string

	SuperAdminEmail    string
	SuperAdminPassword string

	// StrictOwnership restricts project mutations to the creator or a SUPERADMIN.
	StrictOwnership bool

	OpenAIAPIKey string
}

// Load reads an optional .env file, then the environment (and CONFIG_FILE when set).
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		v.SetConfigFile(p)
		_ = v.ReadInConfig()
	}
	setDefaults(v)

	return &Config{
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetString("REDIS_PORT"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		SessionSecret: v.GetString("SESSION_SECRET"),

		AccessTokenSecret:    v.GetString("ACCESS_TOKEN_SECRET"),
		AccessTokenExpiry:    v.GetDuration("ACCESS_TOKEN_EXPIRY"),
		RefreshTokenSecret:   v.GetString("REFRESH_TOKEN_SECRET"),
		RefreshTokenExpiry:   v.GetDuration("REFRESH_TOKEN_EXPIRY"),
		TemporaryTokenExpiry: v.GetDuration("TEMPORARY_TOKEN_EXPIRY"),

		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		RateLimitAuth: v.GetString("RATE_LIMIT_AUTH"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  v.GetString("GOOGLE_CALLBACK_URL"),
		GitHubClientID:     v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  v.GetString("GITHUB_CALLBACK_URL"),

		ClientSSORedirectURL: v.GetString("CLIENT_SSO_REDIRECT_URL"),
		PublicBaseURL:        v.GetString("PUBLIC_BASE_URL"),

		SuperAdminEmail:    v.GetString("SUPERADMIN_EMAIL"),
		SuperAdminPassword: v.GetString("SUPERADMIN_PASSWORD"),

		StrictOwnership: v.GetBool("STRICT_OWNERSHIP"),

		OpenAIAPIKey: v.GetString("OPENAI_API_KEY"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "pmuser")
	v.SetDefault("DB_PASSWORD", "pmpassword")
	v.SetDefault("DB_NAME", "project_management")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")
	v.SetDefault("ACCESS_TOKEN_SECRET", "access-secret-change-me")
	v.SetDefault("ACCESS_TOKEN_EXPIRY", constants.DefaultAccessTokenExpiry)
	v.SetDefault("REFRESH_TOKEN_SECRET", "refresh-secret-change-me")
	v.SetDefault("REFRESH_TOKEN_EXPIRY", constants.DefaultRefreshTokenExpiry)
	v.SetDefault("TEMPORARY_TOKEN_EXPIRY", constants.DefaultTemporaryTokenExpiry)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_AUTH", "20-M")
	v.SetDefault("CLIENT_SSO_REDIRECT_URL", "http://localhost:3000/sso")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("STRICT_OWNERSHIP", true)
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// RedisAddr returns host:port, or "" when redis is not configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
