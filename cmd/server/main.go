package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/queue"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := newLogger(cfg)
	log.Logger = logger

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	db := database.GetDB()

	// Redis backs the mail queue, OAuth sessions and rate limits when configured
	var redisClient *redis.Client
	var mailer queue.Mailer
	var worker *queue.Worker
	if addr := cfg.RedisAddr(); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.RedisPassword})
		redisOpt := asynq.RedisClientOpt{Addr: addr, Password: cfg.RedisPassword}

		enqueuer := queue.NewAsynqEnqueuer(redisOpt, logger)
		defer enqueuer.Close()
		mailer = enqueuer

		worker = queue.NewWorker(redisOpt, logger)
		if err := worker.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start mail worker")
		}
	} else {
		logger.Warn().Msg("REDIS_HOST not set; mail is logged, sessions use cookies, rate limits are per process")
		mailer = queue.NewNoopEnqueuer(logger)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	featureRepo := repository.NewFeatureRepository(db)

	// Core collaborators
	pol := policy.New(cfg.StrictOwnership)
	engine := integrity.NewEngine(db, logger)
	issuer := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	strategies := auth.NewOAuthStrategies(auth.OAuthConfig{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GoogleCallbackURL:  cfg.GoogleCallbackURL,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		GitHubCallbackURL:  cfg.GitHubCallbackURL,
	})

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Services
	authService := services.NewAuthService(userRepo, engine, issuer, mailer, services.AuthSettings{
		PublicBaseURL:        cfg.PublicBaseURL,
		TemporaryTokenExpiry: cfg.TemporaryTokenExpiry,
	}, logger)
	userService := services.NewUserService(userRepo, companyRepo, engine, pol, authService, logger)
	companyService := services.NewCompanyService(companyRepo, pol)
	projectService := services.NewProjectService(projectRepo, featureRepo, userRepo, engine, pol)
	featureService := services.NewFeatureService(featureRepo, projectRepo, userRepo, engine, pol, aiService)

	if _, err := authService.BootstrapSuperAdmin(cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap super admin")
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Metrics(),
		middleware.Secure(middleware.SecureOptions(!cfg.IsProduction())),
		middleware.CORS(cfg.CORSOrigins),
		sessions.Sessions(constants.SessionCookieName, newSessionStore(cfg, logger)),
	)

	authLimiter, err := middleware.NewRateLimiter(cfg.RateLimitAuth, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid RATE_LIMIT_AUTH")
	}

	cookies := handlers.CookieSettings{
		Secure:        cfg.IsProduction(),
		AccessExpiry:  issuer.AccessExpiry(),
		RefreshExpiry: issuer.RefreshExpiry(),
	}
	routes := handlers.Handlers{
		Auth:    handlers.NewAuthHandler(authService, userService, cookies),
		OAuth:   handlers.NewOAuthHandler(strategies, authService, cookies, cfg.ClientSSORedirectURL),
		Company: handlers.NewCompanyHandler(companyService, userService),
		Project: handlers.NewProjectHandler(projectService),
		Feature: handlers.NewFeatureHandler(featureService, projectService),
	}

	// Health check and metrics
	r.GET("/health", handlers.NewHealthHandler(db, redisClient).Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	handlers.RegisterRoutes(r.Group("/api/v1"), routes, middleware.RequireAuth(issuer, userRepo), authLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Strs("oauth_providers", strategies.Names()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if worker != nil {
		worker.Shutdown()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// newSessionStore keeps the OAuth handshake state in redis, or in a signed cookie without redis.
func newSessionStore(cfg *config.Config, logger zerolog.Logger) sessions.Store {
	var store sessions.Store
	if addr := cfg.RedisAddr(); addr != "" {
		rs, err := redisStore.NewStore(10, "tcp", addr, "", cfg.RedisPassword, []byte(cfg.SessionSecret))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create redis session store")
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
