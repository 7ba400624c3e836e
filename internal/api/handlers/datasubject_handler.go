package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/api/handlers/common"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/services/datasubject"
	"github.com/lifedash/privacy_service/pkg/validation"
)

// DataSubjectHandler serves data subject request endpoints
type DataSubjectHandler struct {
	service   *datasubject.Service
	validator *validation.Validator
	logger    *zap.Logger
}

// NewDataSubjectHandler creates a data subject request handler
func NewDataSubjectHandler(service *datasubject.Service, validator *validation.Validator, logger *zap.Logger) *DataSubjectHandler {
	return &DataSubjectHandler{service: service, validator: validator, logger: logger}
}

// CreateExportRequest is the body for opening an export request
type CreateExportRequest struct {
	Categories []string `json:"categories" validate:"dive,data_category"`
}

// CreateExport handles POST /requests/export
func (h *DataSubjectHandler) CreateExport(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req CreateExportRequest
	if !h.validator.ValidateJSON(c, &req) {
		return
	}

	categories, err := entities.CategorySetFromValues(req.Categories)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.service.CreateDataExportRequest(c.Request.Context(), userID, categories)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	common.RespondCreated(c, request.ToMap())
}

// CreateDeletion handles POST /requests/deletion
func (h *DataSubjectHandler) CreateDeletion(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	request, err := h.service.CreateDataDeletionRequest(c.Request.Context(), userID)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	common.RespondCreated(c, request.ToMap())
}

// List handles GET /requests
func (h *DataSubjectHandler) List(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	requests, err := h.service.GetUserRequests(c.Request.Context(), userID)
	if err != nil {
		common.RespondInternalError(c, "Failed to list requests")
		return
	}

	out := make([]map[string]interface{}, 0, len(requests))
	for _, request := range requests {
		out = append(out, request.ToMap())
	}
	common.RespondSuccess(c, gin.H{"requests": out})
}

// Get handles GET /requests/:id
func (h *DataSubjectHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	requestID, err := common.ParseUUID(c.Param("id"))
	if err != nil {
		common.RespondBadRequest(c, "Invalid request ID")
		return
	}

	request, err := h.service.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, datasubject.ErrRequestNotFound) {
			common.RespondNotFound(c, "Request not found")
			return
		}
		common.RespondInternalError(c, "Failed to load request")
		return
	}
	if request.UserID != userID {
		common.RespondForbidden(c, "Request belongs to another user")
		return
	}

	common.RespondSuccess(c, request.ToMap())
}

// ProcessRequest is the body for processing a claimed request
type ProcessRequest struct {
	VerificationMethod string `json:"verification_method"`
}

// ProcessExport handles POST /admin/requests/:id/export. The caller is
// the processor working the request.
func (h *DataSubjectHandler) ProcessExport(c *gin.Context) {
	processorID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	requestID, err := common.ParseUUID(c.Param("id"))
	if err != nil {
		common.RespondBadRequest(c, "Invalid request ID")
		return
	}

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid JSON format")
		return
	}

	payload, err := h.service.ProcessExportRequest(c.Request.Context(), requestID, processorID, req.VerificationMethod)
	if err != nil {
		h.respondProcessError(c, requestID, err)
		return
	}

	common.RespondSuccess(c, payload)
}

// ProcessDeletion handles POST /admin/requests/:id/deletion
func (h *DataSubjectHandler) ProcessDeletion(c *gin.Context) {
	processorID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	requestID, err := common.ParseUUID(c.Param("id"))
	if err != nil {
		common.RespondBadRequest(c, "Invalid request ID")
		return
	}

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Invalid JSON format")
		return
	}

	deleted, err := h.service.ProcessDeletionRequest(c.Request.Context(), requestID, processorID, req.VerificationMethod)
	if err != nil {
		h.respondProcessError(c, requestID, err)
		return
	}

	common.RespondSuccess(c, gin.H{"deleted": deleted})
}

// Pending handles GET /admin/requests/pending
func (h *DataSubjectHandler) Pending(c *gin.Context) {
	requests, err := h.service.GetPendingRequests(c.Request.Context())
	if err != nil {
		common.RespondInternalError(c, "Failed to list pending requests")
		return
	}

	out := make([]map[string]interface{}, 0, len(requests))
	for _, request := range requests {
		out = append(out, request.ToMap())
	}
	common.RespondSuccess(c, gin.H{"requests": out})
}

// Overdue handles GET /admin/requests/overdue
func (h *DataSubjectHandler) Overdue(c *gin.Context) {
	requests, err := h.service.GetOverdueRequests(c.Request.Context())
	if err != nil {
		common.RespondInternalError(c, "Failed to list overdue requests")
		return
	}

	out := make([]map[string]interface{}, 0, len(requests))
	for _, request := range requests {
		out = append(out, request.ToMap())
	}
	common.RespondSuccess(c, gin.H{"requests": out})
}

func (h *DataSubjectHandler) respondProcessError(c *gin.Context, requestID uuid.UUID, err error) {
	var wrongType *datasubject.WrongTypeError
	var stateErr *datasubject.RequestStateError

	switch {
	case errors.Is(err, datasubject.ErrRequestNotFound):
		common.RespondNotFound(c, "Request not found")
	case errors.Is(err, datasubject.ErrVerificationRequired):
		common.RespondError(c, 422, "VERIFICATION_REQUIRED", "Identity verification required", nil)
	case errors.As(err, &wrongType):
		common.RespondBadRequest(c, err.Error())
	case errors.As(err, &stateErr):
		common.RespondConflict(c, err.Error())
	default:
		h.logger.Error("request processing failed",
			zap.String("request_id", requestID.String()),
			zap.Error(err))
		common.RespondInternalError(c, "Request processing failed")
	}
}
