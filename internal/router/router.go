package router

import (
	"github.com/bheruji/learnflow-backend/config"
	"github.com/bheruji/learnflow-backend/internal/app/controller"
	"github.com/bheruji/learnflow-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController    *controller.AuthController
	profileController *controller.ProfileController
	noteController    *controller.NoteController
	taskController    *controller.TaskController
	roadmapController *controller.RoadmapController
	authMiddleware    *middleware.AuthMiddleware
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	profileController *controller.ProfileController,
	noteController *controller.NoteController,
	taskController *controller.TaskController,
	roadmapController *controller.RoadmapController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		profileController: profileController,
		noteController:    noteController,
		taskController:    taskController,
		roadmapController: roadmapController,
		authMiddleware:    authMiddleware,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "LearnFlow API is running",
		})
	})

	// Public auth endpoints
	router.POST("/sign_up", r.authController.SignUp)
	router.POST("/sign_up/verify", r.authController.VerifySignUp)
	router.POST("/login", r.authController.Login)
	router.POST("/forgotpassword", r.authController.ForgotPassword)
	router.POST("/reset-password", r.authController.ResetPassword)

	// Roadmap catalog is public, enrolment is not
	roadmaps := router.Group("/roadmaps")
	{
		roadmaps.GET("", r.roadmapController.List)
		roadmaps.POST("/extended", r.roadmapController.CreateExtended)
		roadmaps.GET("/:id", r.roadmapController.Get)
		roadmaps.GET("/:id/extended", r.roadmapController.GetExtended)
		roadmaps.POST("/:id/steps", r.roadmapController.AddStep)
		roadmaps.POST("/:id/enroll", r.authMiddleware.Authenticate(), r.roadmapController.Enroll)
	}

	authed := router.Group("", r.authMiddleware.Authenticate())
	{
		authed.GET("/profile", r.profileController.GetProfile)
		authed.POST("/profile_create", r.profileController.CreateProfile)
		authed.PATCH("/profile_update", r.profileController.UpdateProfile)

		authed.POST("/profile/photo", r.profileController.UploadPhoto)
		authed.GET("/profile/photo", r.profileController.GetPhoto)
		authed.DELETE("/profile/photo", r.profileController.DeletePhoto)

		authed.PATCH("/profile/email/request", r.profileController.RequestEmailChange)
		authed.POST("/profile/email/verify", r.profileController.VerifyEmailChange)

		authed.GET("/my/roadmaps", r.roadmapController.MyRoadmaps)
		authed.POST("/my/roadmaps/topics/:id/complete", r.roadmapController.CompleteTopic)

		api := authed.Group("/api")
		{
			api.POST("/notes/upload", r.noteController.Upload)
			api.GET("/notes/", r.noteController.List)

			api.POST("/tasks", r.taskController.Create)
			api.GET("/tasks", r.taskController.List)
			api.GET("/tasks/summary", r.taskController.Summary)
			api.GET("/tasks/export", r.taskController.Export)
			api.GET("/tasks/:id", r.taskController.Get)
			api.PATCH("/tasks/:id", r.taskController.Update)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
