package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swipeattend/backend/internal/app/controllers"
	"github.com/swipeattend/backend/internal/app/models/dto"
	"github.com/swipeattend/backend/internal/middleware"
)

// HealthCheck reports whether the record store is reachable
type HealthCheck func(ctx context.Context) error

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	teacherController *controllers.TeacherController,
	attendanceController *controllers.AttendanceController,
	authMiddleware *middleware.AuthMiddleware,
	health HealthCheck,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	router.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				detail := dto.NewErrorDetail(dto.ErrorCodeStoreUnavailable, "Record store unreachable")
				c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(detail))
				return
			}
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/google", authController.GoogleLogin)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authProtected := authenticated.Group("/auth")
		{
			authProtected.POST("/logout", authController.Logout)
			authProtected.GET("/me", authController.Me)
			authProtected.POST("/verify-token", authController.VerifyToken)
		}

		teacher := authenticated.Group("/teacher")
		{
			teacher.GET("/classes", teacherController.ListClasses)
			teacher.POST("/classes", teacherController.CreateClass)
			teacher.GET("/dashboard", teacherController.Dashboard)
			teacher.GET("/class/:classId", teacherController.ClassDetail)
			teacher.GET("/class/:classId/students", teacherController.Roster)
			teacher.POST("/class/:classId/students", teacherController.EnrollStudent)
		}

		attendance := authenticated.Group("/attendance")
		{
			attendance.POST("/mark", attendanceController.MarkAttendance)
			attendance.POST("/batch-mark", attendanceController.BatchMark)
			attendance.PUT("/:markId", attendanceController.UpdateAttendance)
			attendance.GET("/class/:classId", attendanceController.ClassReport)
			attendance.GET("/student/:studentId", attendanceController.StudentHistory)
			attendance.GET("/analytics/:classId", attendanceController.ClassAnalytics)
		}
	}
}
