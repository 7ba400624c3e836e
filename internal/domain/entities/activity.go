package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityType tags a data processing activity. Free-form values are
// accepted; the constants below cover the activities this service emits.
type ActivityType string

const (
	ActivityConsentGranted          ActivityType = "consent_granted"
	ActivityConsentWithdrawn        ActivityType = "consent_withdrawn"
	ActivitySettingsUpdated         ActivityType = "settings_updated"
	ActivityDSARExportStarted       ActivityType = "dsar_export_started"
	ActivityDSARExportCompleted     ActivityType = "dsar_export_completed"
	ActivityDSARExportFailed        ActivityType = "dsar_export_failed"
	ActivityDSARDeletionStarted     ActivityType = "dsar_deletion_started"
	ActivityDSARDeletionCompleted   ActivityType = "dsar_deletion_completed"
	ActivityDSARDeletionFailed      ActivityType = "dsar_deletion_failed"
	ActivityOnboardingStepCompleted ActivityType = "onboarding_step_completed"
	ActivityExperienceAdded         ActivityType = "experience_added"
	ActivityProfileUpdated          ActivityType = "profile_updated"
)

// LegalBasis is the GDPR-style justification recorded for an activity
type LegalBasis string

const (
	LegalBasisConsent            LegalBasis = "consent"
	LegalBasisLegitimateInterest LegalBasis = "legitimate_interest"
	LegalBasisContract           LegalBasis = "contract"
	LegalBasisLegalObligation    LegalBasis = "legal_obligation"
)

// ErrEmptyContext is returned when an activity is constructed without a
// processing context.
var ErrEmptyContext = errors.New("processing context is required")

// DataProcessingActivity is an append-only audit record of a data-touching
// action. Activities are never updated after creation, only created and
// queried.
type DataProcessingActivity struct {
	ActivityID     uuid.UUID             `json:"activity_id" db:"activity_id"`
	UserID         uuid.UUID             `json:"user_id" db:"user_id"`
	Purpose        DataProcessingPurpose `json:"purpose" db:"purpose"`
	DataCategories CategorySet           `json:"data_categories" db:"data_categories"`
	ProcessingType ActivityType          `json:"processing_type" db:"processing_type"`
	Timestamp      time.Time             `json:"timestamp" db:"timestamp"`

	// Context information
	Context   string `json:"context" db:"context"`
	RequestID string `json:"request_id,omitempty" db:"request_id"`
	SessionID string `json:"session_id,omitempty" db:"session_id"`

	// Legal basis
	LegalBasis LegalBasis `json:"legal_basis" db:"legal_basis"`
	ConsentID  *uuid.UUID `json:"consent_id,omitempty" db:"consent_id"`

	Details map[string]any `json:"details,omitempty" db:"details"`
}

// NewDataProcessingActivity creates an activity with a generated id, a UTC
// timestamp and consent as the default legal basis. Construction fails when
// context is empty. Callers set RequestID, ConsentID, LegalBasis and
// Details before handing the activity to the repository.
func NewDataProcessingActivity(userID uuid.UUID, purpose DataProcessingPurpose, categories CategorySet, processingType ActivityType, context string) (*DataProcessingActivity, error) {
	if strings.TrimSpace(context) == "" {
		return nil, ErrEmptyContext
	}

	return &DataProcessingActivity{
		ActivityID:     uuid.New(),
		UserID:         userID,
		Purpose:        purpose,
		DataCategories: categories,
		ProcessingType: processingType,
		Timestamp:      time.Now().UTC(),
		Context:        context,
		LegalBasis:     LegalBasisConsent,
	}, nil
}

// ToMap converts the activity to a JSON-serializable map for audit exports
func (a *DataProcessingActivity) ToMap() map[string]any {
	m := map[string]any{
		"activity_id":     a.ActivityID.String(),
		"user_id":         a.UserID.String(),
		"purpose":         string(a.Purpose),
		"data_categories": a.DataCategories.Values(),
		"processing_type": string(a.ProcessingType),
		"timestamp":       a.Timestamp.Format(time.RFC3339Nano),
		"context":         a.Context,
		"legal_basis":     string(a.LegalBasis),
	}
	if a.RequestID != "" {
		m["request_id"] = a.RequestID
	}
	if a.SessionID != "" {
		m["session_id"] = a.SessionID
	}
	if a.ConsentID != nil {
		m["consent_id"] = a.ConsentID.String()
	}
	if len(a.Details) > 0 {
		m["details"] = a.Details
	}
	return m
}
