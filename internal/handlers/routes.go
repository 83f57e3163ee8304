package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/models"
)

// Handlers groups the resource handlers mounted under /api/v1
type Handlers struct {
	Auth    *AuthHandler
	OAuth   *OAuthHandler
	Company *CompanyHandler
	Project *ProjectHandler
	Feature *FeatureHandler
}

// RegisterRoutes mounts every API route on api. requireAuth authenticates the caller;
// authLimiter throttles the unauthenticated credential endpoints.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, requireAuth, authLimiter gin.HandlerFunc) {
	id := middleware.RequireIDParams("id")

	users := api.Group("/users")
	{
		users.POST("/register", authLimiter, h.Auth.Register)
		users.POST("/login", authLimiter, h.Auth.Login)
		users.POST("/refresh-token", authLimiter, h.Auth.RefreshToken)
		users.GET("/verify-email/:verificationToken", h.Auth.VerifyEmail)
		users.POST("/forgot-password", authLimiter, h.Auth.ForgotPassword)
		users.POST("/reset-password/:resetToken", authLimiter, h.Auth.ResetPassword)

		users.GET("/logout", requireAuth, h.Auth.Logout)
		users.GET("/current-user", requireAuth, h.Auth.GetCurrentUser)
		users.POST("/change-password", requireAuth, h.Auth.ChangePassword)
		users.POST("/resend-email-verification", requireAuth, h.Auth.ResendEmailVerification)
		users.POST("/assign-role/:userId", requireAuth, middleware.RequireIDParams("userId"),
			middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin), h.Auth.AssignRole)

		if h.OAuth != nil {
			users.GET("/google", h.OAuth.Begin("google"))
			users.GET("/github", h.OAuth.Begin("github"))
			users.GET("/:provider/callback", h.OAuth.Callback)
		}
	}

	companies := api.Group("/companies")
	companies.Use(requireAuth)
	{
		companies.POST("", middleware.RequireRole(models.RoleSuperAdmin), h.Company.CreateCompany)
		companies.GET("", middleware.RequireRole(models.RoleSuperAdmin), h.Company.ListCompanies)
		companies.POST("/create-user", middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin), h.Company.CreateCompanyUser)
		companies.GET("/get-users", h.Company.ListCompanyUsers)
		companies.GET("/:id", id, h.Company.GetCompany)
		companies.PATCH("/:id", id, h.Company.UpdateCompany)
		companies.DELETE("/:id", id, h.Company.DeleteCompany)
		companies.PATCH("/:id/change-role", id, middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin), h.Company.ChangeUserRole)
	}

	projects := api.Group("/projects")
	projects.Use(requireAuth)
	{
		projects.POST("", h.Project.CreateProject)
		projects.GET("", h.Project.ListProjects)
		projects.GET("/:id", id, h.Project.GetProject)
		projects.PATCH("/:id", id, h.Project.UpdateProject)
		projects.DELETE("/:id", id, h.Project.DeleteProject)
		projects.PATCH("/:id/toggle-visibility", id, h.Project.ToggleVisibility)
		projects.POST("/:id/members", id, h.Project.AddMember)
		projects.DELETE("/:id/members", id, h.Project.RemoveMember)
		projects.POST("/:id/features", id, h.Project.AddFeature)
		projects.DELETE("/:id/features", id, h.Project.RemoveFeature)
	}

	features := api.Group("/features")
	features.Use(requireAuth)
	{
		features.POST("", h.Feature.CreateFeature)
		features.POST("/generate", h.Feature.GenerateFeatures)
		features.GET("/get-project-name", h.Feature.ListProjectNames)
		features.GET("/project/:projectId", middleware.RequireIDParams("projectId"), h.Feature.ListProjectFeatures)
		features.GET("/:id", id, h.Feature.GetFeature)
		features.PATCH("/:id", id, h.Feature.UpdateFeature)
		features.DELETE("/:id", id, h.Feature.DeleteFeature)
		features.POST("/:id/assign-users", id, h.Feature.AssignUsers)
		features.POST("/:id/remove-user", id, h.Feature.RemoveUser)
		features.POST("/:id/comments", id, h.Feature.AddComment)
		features.POST("/:id/add-comment", id, h.Feature.AddComment)
		features.DELETE("/:id/comments/:commentId", middleware.RequireIDParams("id", "commentId"), h.Feature.RemoveComment)
		features.PATCH("/:id/toggle-completion", id, h.Feature.ToggleCompletion)
	}
}
