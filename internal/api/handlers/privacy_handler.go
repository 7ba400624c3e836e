package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/api/handlers/common"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/services/privacy"
)

// PrivacyHandler serves privacy settings and processing gate endpoints
type PrivacyHandler struct {
	service *privacy.Service
	logger  *zap.Logger
}

// NewPrivacyHandler creates a privacy handler
func NewPrivacyHandler(service *privacy.Service, logger *zap.Logger) *PrivacyHandler {
	return &PrivacyHandler{service: service, logger: logger}
}

// GetSettings handles GET /privacy/settings
func (h *PrivacyHandler) GetSettings(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	settings, err := h.service.GetOrCreatePrivacySettings(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load privacy settings",
			zap.String("user_id", userID.String()), zap.Error(err))
		common.RespondInternalError(c, "Failed to load privacy settings")
		return
	}

	common.RespondSuccess(c, settings.ToMap())
}

// UpdateSettingRequest is the body for changing one privacy setting
type UpdateSettingRequest struct {
	Setting string      `json:"setting" binding:"required"`
	Value   interface{} `json:"value"`
}

// UpdateSetting handles PATCH /privacy/settings
func (h *PrivacyHandler) UpdateSetting(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid JSON format")
		return
	}

	settings, err := h.service.UpdatePrivacySetting(c.Request.Context(), userID, req.Setting, req.Value)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	common.RespondSuccess(c, settings.ToMap())
}

// CanProcess handles GET /privacy/can-process?purpose=...&category=...
func (h *PrivacyHandler) CanProcess(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	purpose := entities.DataProcessingPurpose(c.Query("purpose"))
	category := entities.DataCategory(c.Query("category"))
	if !purpose.IsValid() || !category.IsValid() {
		common.RespondBadRequest(c, "Invalid purpose or category")
		return
	}

	allowed, err := h.service.CanProcessData(c.Request.Context(), userID, purpose, category)
	if err != nil {
		common.RespondInternalError(c, "Failed to evaluate processing gate")
		return
	}

	common.RespondSuccess(c, gin.H{
		"purpose":  string(purpose),
		"category": string(category),
		"allowed":  allowed,
	})
}

// ActivitySummary handles GET /privacy/activities/summary?days=30
func (h *PrivacyHandler) ActivitySummary(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	days := common.ParseIntParam(c, "days", 30)
	if days <= 0 {
		common.RespondBadRequest(c, "days must be positive")
		return
	}

	summary, err := h.service.GetUserActivitySummary(c.Request.Context(), userID, days)
	if err != nil {
		common.RespondInternalError(c, "Failed to build activity summary")
		return
	}

	common.RespondSuccess(c, summary)
}
