package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlasedu/rollcall/internal/app/controllers"
	"github.com/atlasedu/rollcall/internal/app/models/dto"
	"github.com/atlasedu/rollcall/internal/middleware"
	"github.com/atlasedu/rollcall/internal/pkg/auth"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	sessionController *controllers.SessionController,
	checkInController *controllers.CheckInController,
	liveController *controllers.LiveController,
	authMiddleware *middleware.AuthMiddleware,
	checkInLimiter *middleware.TokenBucket,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		sessions := authenticated.Group("/attendance-sessions")
		{
			sessions.GET("/:id", sessionController.GetSession)
			sessions.GET("/:id/live", liveController.Watch)

			// Lecturer-only routes
			sessionsLecturerProtected := sessions.Group("")
			sessionsLecturerProtected.Use(authMiddleware.RoleRequired(auth.RoleLecturer))
			{
				sessionsLecturerProtected.POST("", sessionController.StartSession)
				sessionsLecturerProtected.GET("/:id/records", checkInController.ListSessionRecords)
			}

			// Student-only routes
			sessionsStudentProtected := sessions.Group("")
			sessionsStudentProtected.Use(authMiddleware.RoleRequired(auth.RoleStudent))
			{
				sessionsStudentProtected.POST("/:id/check-ins", checkInLimiter.Limit(), checkInController.CheckIn)
			}
		}

		courses := authenticated.Group("/courses")
		{
			courses.GET("/:courseId/attendance-sessions", sessionController.ListCourseSessions)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.NewAPIResponse(gin.H{"status": "ok"}))
	})

	// Prometheus metrics (public; deployments front this with network policy)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
