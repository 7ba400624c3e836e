package entities

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataProcessingActivityRequiresContext(t *testing.T) {
	userID := uuid.New()
	categories := NewCategorySet(CategoryBehavioral)

	_, err := NewDataProcessingActivity(userID, PurposeAnalytics, categories, ActivityConsentGranted, "")
	assert.ErrorIs(t, err, ErrEmptyContext)

	_, err = NewDataProcessingActivity(userID, PurposeAnalytics, categories, ActivityConsentGranted, "   ")
	assert.ErrorIs(t, err, ErrEmptyContext)
}

func TestNewDataProcessingActivityDefaults(t *testing.T) {
	activity, err := NewDataProcessingActivity(uuid.New(), PurposeAnalytics, NewCategorySet(CategoryBehavioral), ActivityConsentGranted, "consent_service")
	require.NoError(t, err)

	assert.Equal(t, LegalBasisConsent, activity.LegalBasis)
	assert.Equal(t, "consent_service", activity.Context)
	assert.False(t, activity.Timestamp.IsZero())
	assert.NotEqual(t, uuid.Nil, activity.ActivityID)
}

func TestActivityToMapIsJSONSerializable(t *testing.T) {
	activity, err := NewDataProcessingActivity(uuid.New(), PurposeCoreFunctionality, AllCategoriesSet(), ActivityDSARExportStarted, "data_subject_service:export")
	require.NoError(t, err)
	activity.LegalBasis = LegalBasisLegalObligation
	activity.RequestID = uuid.New().String()
	activity.Details = map[string]any{"error": "boom"}

	m := activity.ToMap()
	_, err = json.Marshal(m)
	require.NoError(t, err)

	assert.Equal(t, string(LegalBasisLegalObligation), m["legal_basis"])
	assert.Equal(t, string(ActivityDSARExportStarted), m["processing_type"])
	assert.Equal(t, activity.RequestID, m["request_id"])
}
