package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/middleware"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/services"
)

type HandlerManager struct {
	courseHandler   *CourseHandler
	attemptHandler  *AttemptHandler
	progressHandler *ProgressHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger *slog.Logger) *HandlerManager {
	return &HandlerManager{
		courseHandler:   NewCourseHandler(serviceManager.Module(), serviceManager.Export(), logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), logger),
		progressHandler: NewProgressHandler(serviceManager.Slide(), serviceManager.Note(), serviceManager.Certificate(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth *middleware.Authenticator) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware())
	{
		trainer := auth.RequireRole(models.RoleTrainer)

		courses := v1.Group("/courses")
		{
			courses.POST("", trainer, hm.courseHandler.CreateCourse)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.POST("/:id/students/:student_id/reset", trainer, hm.courseHandler.ResetProgress)
			courses.GET("/:id/export/progress", trainer, hm.courseHandler.ExportProgress)
			courses.GET("/:id/export/certificates", trainer, hm.courseHandler.ExportCertificates)
		}

		modules := v1.Group("/modules")
		{
			modules.POST("", trainer, hm.courseHandler.CreateModule)
			modules.GET("/search", hm.courseHandler.SearchModules)
			modules.PUT("/:id", trainer, hm.courseHandler.UpdateModule)
			modules.POST("/:id/publish", trainer, hm.courseHandler.PublishModule)
			modules.POST("/:id/unpublish", trainer, hm.courseHandler.UnpublishModule)

			modules.POST("/:id/slides", trainer, hm.courseHandler.AddSlide)
			modules.PUT("/:id/slides", trainer, hm.courseHandler.ReorderSlides)
			modules.PUT("/:id/slides/:slide_id", trainer, hm.courseHandler.UpdateSlide)
			modules.DELETE("/:id/slides/:slide_id", trainer, hm.courseHandler.DeleteSlide)

			modules.POST("/:id/students/:student_id", trainer, hm.courseHandler.AssignStudent)
			modules.POST("/:id/students/:student_id/quiz-access", trainer, hm.courseHandler.GrantQuizAccess)

			// Slide player
			modules.GET("/:id/player", hm.progressHandler.CurrentSlide)
			modules.POST("/:id/player/advance", hm.progressHandler.AdvanceSlide)
			modules.POST("/:id/player/retreat", hm.progressHandler.RetreatSlide)
			modules.PUT("/:id/player/variant", hm.progressHandler.ChooseVariant)

			// Notes
			modules.GET("/:id/note", hm.progressHandler.GetNote)
			modules.PUT("/:id/note", hm.progressHandler.SaveNote)

			// Quiz entry
			modules.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
			modules.POST("/:id/quiz-access-request", hm.attemptHandler.RequestQuizAccess)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/:session_id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:session_id/next", hm.attemptHandler.NextQuestion)
			attempts.POST("/:session_id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.POST("/:session_id/retake", hm.attemptHandler.RetakeAttempt)
			attempts.DELETE("/:session_id", hm.attemptHandler.TeardownAttempt)
			attempts.POST("/:session_id/cheat-events", hm.attemptHandler.ReportCheatEvent)
		}

		v1.GET("/certificates", hm.progressHandler.MyCertificates)
	}
}
