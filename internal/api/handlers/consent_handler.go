package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/api/handlers/common"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/services/consent"
	"github.com/lifedash/privacy_service/pkg/validation"
)

// ConsentHandler serves consent lifecycle endpoints
type ConsentHandler struct {
	service   *consent.Service
	validator *validation.Validator
	logger    *zap.Logger
}

// NewConsentHandler creates a consent handler
func NewConsentHandler(service *consent.Service, validator *validation.Validator, logger *zap.Logger) *ConsentHandler {
	return &ConsentHandler{service: service, validator: validator, logger: logger}
}

// GrantConsentRequest is the body for granting consent
type GrantConsentRequest struct {
	Purpose    string   `json:"purpose" validate:"required,processing_purpose"`
	Categories []string `json:"categories" validate:"dive,data_category"`
}

// Grant handles POST /consents
func (h *ConsentHandler) Grant(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req GrantConsentRequest
	if !h.validator.ValidateJSON(c, &req) {
		return
	}

	purpose := entities.DataProcessingPurpose(req.Purpose)
	categories, err := entities.CategorySetFromValues(req.Categories)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	record, err := h.service.GrantConsent(c.Request.Context(), userID, purpose, categories,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.logger.Error("failed to grant consent",
			zap.String("user_id", userID.String()),
			zap.String("purpose", req.Purpose),
			zap.Error(err))
		common.RespondBadRequest(c, err.Error())
		return
	}

	common.RespondCreated(c, record.ToMap())
}

// Withdraw handles DELETE /consents/:purpose
func (h *ConsentHandler) Withdraw(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	purpose := entities.DataProcessingPurpose(c.Param("purpose"))
	record, err := h.service.WithdrawConsent(c.Request.Context(), userID, purpose)
	if err != nil {
		h.logger.Error("failed to withdraw consent",
			zap.String("user_id", userID.String()),
			zap.String("purpose", string(purpose)),
			zap.Error(err))
		common.RespondInternalError(c, "Failed to withdraw consent")
		return
	}
	if record == nil {
		common.RespondNotFound(c, "No consent record for purpose")
		return
	}

	common.RespondSuccess(c, record.ToMap())
}

// Check handles GET /consents/check?purpose=...&category=...
func (h *ConsentHandler) Check(c *gin.Context) {
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

	granted, err := h.service.CheckConsent(c.Request.Context(), userID, purpose, category)
	if err != nil {
		common.RespondInternalError(c, "Failed to check consent")
		return
	}

	common.RespondSuccess(c, gin.H{
		"purpose":  string(purpose),
		"category": string(category),
		"granted":  granted,
	})
}

// List handles GET /consents
func (h *ConsentHandler) List(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	records, err := h.service.GetUserConsents(c.Request.Context(), userID)
	if err != nil {
		common.RespondInternalError(c, "Failed to list consents")
		return
	}

	out := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		out = append(out, record.ToMap())
	}
	common.RespondSuccess(c, gin.H{"consents": out})
}
