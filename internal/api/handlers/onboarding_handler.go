package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/api/handlers/common"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/services/onboarding"
)

// OnboardingHandler serves onboarding flow endpoints
type OnboardingHandler struct {
	service *onboarding.Service
	logger  *zap.Logger
}

// NewOnboardingHandler creates an onboarding handler
func NewOnboardingHandler(service *onboarding.Service, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{service: service, logger: logger}
}

// Status handles GET /onboarding
func (h *OnboardingHandler) Status(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), userID)
	if err != nil {
		common.RespondInternalError(c, "Failed to load onboarding status")
		return
	}

	common.RespondSuccess(c, status)
}

// CompleteRegistration handles POST /onboarding/registration
func (h *OnboardingHandler) CompleteRegistration(c *gin.Context) {
	h.advance(c, func(ctx *gin.Context, userID uuid.UUID) (*onboarding.Status, error) {
		return h.service.CompleteRegistration(ctx.Request.Context(), userID)
	})
}

// ProfileSetupRequest is the body for completing profile setup
type ProfileSetupRequest struct {
	SkipGoals bool `json:"skip_goals"`
}

// CompleteProfileSetup handles POST /onboarding/profile-setup
func (h *OnboardingHandler) CompleteProfileSetup(c *gin.Context) {
	var req ProfileSetupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, "Invalid JSON format")
			return
		}
	}

	h.advance(c, func(ctx *gin.Context, userID uuid.UUID) (*onboarding.Status, error) {
		return h.service.CompleteProfileSetup(ctx.Request.Context(), userID, req.SkipGoals)
	})
}

// CompleteInitialGoals handles POST /onboarding/initial-goals
func (h *OnboardingHandler) CompleteInitialGoals(c *gin.Context) {
	h.advance(c, func(ctx *gin.Context, userID uuid.UUID) (*onboarding.Status, error) {
		return h.service.CompleteInitialGoals(ctx.Request.Context(), userID)
	})
}

// SkipToDashboard handles POST /onboarding/skip
func (h *OnboardingHandler) SkipToDashboard(c *gin.Context) {
	h.advance(c, func(ctx *gin.Context, userID uuid.UUID) (*onboarding.Status, error) {
		return h.service.SkipToDashboard(ctx.Request.Context(), userID)
	})
}

func (h *OnboardingHandler) advance(c *gin.Context, step func(*gin.Context, uuid.UUID) (*onboarding.Status, error)) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	status, err := step(c, userID)
	if err != nil {
		var transitionErr *entities.OnboardingTransitionError
		if errors.As(err, &transitionErr) {
			common.RespondConflict(c, err.Error())
			return
		}
		common.RespondInternalError(c, "Failed to advance onboarding")
		return
	}

	common.RespondSuccess(c, status)
}
