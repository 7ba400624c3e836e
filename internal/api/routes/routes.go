// Package routes wires HTTP handlers into the gin router.
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/api/handlers"
	"github.com/lifedash/privacy_service/internal/api/middleware"
	"github.com/lifedash/privacy_service/pkg/metrics"
)

// SetupRoutes builds the router for the privacy service
func SetupRoutes(h *handlers.Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", h.Health.Live)
	router.GET("/health/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.UserContext())
	{
		consents := v1.Group("/consents")
		{
			consents.POST("", h.Consent.Grant)
			consents.GET("", h.Consent.List)
			consents.GET("/check", h.Consent.Check)
			consents.DELETE("/:purpose", h.Consent.Withdraw)
		}

		privacy := v1.Group("/privacy")
		{
			privacy.GET("/settings", h.Privacy.GetSettings)
			privacy.PATCH("/settings", h.Privacy.UpdateSetting)
			privacy.GET("/can-process", h.Privacy.CanProcess)
			privacy.GET("/activities/summary", h.Privacy.ActivitySummary)
		}

		requests := v1.Group("/requests")
		{
			requests.POST("/export", h.DataSubject.CreateExport)
			requests.POST("/deletion", h.DataSubject.CreateDeletion)
			requests.GET("", h.DataSubject.List)
			requests.GET("/:id", h.DataSubject.Get)
		}

		admin := v1.Group("/admin/requests")
		{
			admin.GET("/pending", h.DataSubject.Pending)
			admin.GET("/overdue", h.DataSubject.Overdue)
			admin.POST("/:id/export", h.DataSubject.ProcessExport)
			admin.POST("/:id/deletion", h.DataSubject.ProcessDeletion)
		}

		profiles := v1.Group("/profiles")
		{
			profiles.POST("", h.Profile.Create)
			profiles.GET("/me", h.Profile.Get)
			profiles.PATCH("/me", h.Profile.Update)
			profiles.POST("/me/experience", h.Profile.AddExperience)
		}

		onboarding := v1.Group("/onboarding")
		{
			onboarding.GET("", h.Onboarding.Status)
			onboarding.POST("/registration", h.Onboarding.CompleteRegistration)
			onboarding.POST("/profile-setup", h.Onboarding.CompleteProfileSetup)
			onboarding.POST("/initial-goals", h.Onboarding.CompleteInitialGoals)
			onboarding.POST("/skip", h.Onboarding.SkipToDashboard)
		}
	}

	return router
}
