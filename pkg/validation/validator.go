package validation

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/lifedash/privacy_service/internal/api/handlers/common"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// Validator wraps the validator library with domain validation rules
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("processing_purpose", validateProcessingPurpose)
	v.RegisterValidation("data_category", validateDataCategory)
	v.RegisterValidation("request_type", validateRequestType)
	v.RegisterValidation("sharing_level", validateSharingLevel)

	return &Validator{validate: v}
}

// Validate validates a struct and returns error if validation fails
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateJSON binds and validates a JSON request body
func (v *Validator) ValidateJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		common.RespondBadRequest(c, "Invalid JSON format")
		return false
	}

	if err := v.Validate(obj); err != nil {
		common.RespondBadRequest(c, err.Error())
		return false
	}

	return true
}

// ValidateURI binds and validates URI parameters
func (v *Validator) ValidateURI(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindUri(obj); err != nil {
		common.RespondBadRequest(c, "Invalid URI parameters")
		return false
	}

	if err := v.Validate(obj); err != nil {
		common.RespondBadRequest(c, err.Error())
		return false
	}

	return true
}

// ValidateQuery binds and validates query parameters
func (v *Validator) ValidateQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		common.RespondBadRequest(c, "Invalid query parameters")
		return false
	}

	if err := v.Validate(obj); err != nil {
		common.RespondBadRequest(c, err.Error())
		return false
	}

	return true
}

// Custom validation functions

func validateProcessingPurpose(fl validator.FieldLevel) bool {
	return entities.DataProcessingPurpose(fl.Field().String()).IsValid()
}

func validateDataCategory(fl validator.FieldLevel) bool {
	return entities.DataCategory(fl.Field().String()).IsValid()
}

func validateRequestType(fl validator.FieldLevel) bool {
	return entities.RequestType(fl.Field().String()).IsValid()
}

func validateSharingLevel(fl validator.FieldLevel) bool {
	return entities.SharingLevel(fl.Field().String()).IsValid()
}

// Common validation request structures

// PaginationRequest validates pagination parameters
type PaginationRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500" json:"limit"`
}

// UUIDRequest validates UUID path parameters
type UUIDRequest struct {
	ID string `uri:"id" validate:"required,uuid" json:"id"`
}
