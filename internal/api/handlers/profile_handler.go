package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/api/handlers/common"
	"github.com/lifedash/privacy_service/internal/domain/services/profile"
)

// ProfileHandler serves user profile and experience endpoints
type ProfileHandler struct {
	service *profile.Service
	logger  *zap.Logger
}

// NewProfileHandler creates a profile handler
func NewProfileHandler(service *profile.Service, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, logger: logger}
}

// CreateProfileRequest is the body for creating a profile
type CreateProfileRequest struct {
	Username string `json:"username" binding:"required"`
}

// Create handles POST /profiles
func (h *ProfileHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid JSON format")
		return
	}

	created, err := h.service.CreateProfile(c.Request.Context(), userID, req.Username)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	common.RespondCreated(c, created)
}

// Get handles GET /profiles/me
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	p, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			common.RespondNotFound(c, "Profile not found")
			return
		}
		common.RespondInternalError(c, "Failed to load profile")
		return
	}

	common.RespondSuccess(c, p)
}

// Update handles PATCH /profiles/me with a map of field updates
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		common.RespondBadRequest(c, "Invalid JSON format")
		return
	}
	if len(fields) == 0 {
		common.RespondBadRequest(c, "No fields to update")
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), userID, fields)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			common.RespondNotFound(c, "Profile not found")
			return
		}
		common.RespondBadRequest(c, err.Error())
		return
	}

	common.RespondSuccess(c, p)
}

// AddExperienceRequest is the body for awarding experience points
type AddExperienceRequest struct {
	Points int64 `json:"points" binding:"required"`
}

// AddExperience handles POST /profiles/me/experience
func (h *ProfileHandler) AddExperience(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req AddExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid JSON format")
		return
	}

	p, leveledUp, err := h.service.AddExperience(c.Request.Context(), userID, req.Points)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			common.RespondNotFound(c, "Profile not found")
			return
		}
		common.RespondBadRequest(c, err.Error())
		return
	}

	common.RespondSuccess(c, gin.H{
		"profile":    p,
		"leveled_up": leveledUp,
	})
}
