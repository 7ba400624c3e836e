package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsentRecordDefaults(t *testing.T) {
	userID := uuid.New()
	record, err := NewConsentRecord(userID, PurposeAnalytics, NewCategorySet(CategoryBehavioral), ConsentStatusPending)
	require.NoError(t, err)

	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, ConsentStatusPending, record.Status)
	assert.Equal(t, "1.0", record.Version)
	assert.Equal(t, "web_form", record.ConsentMethod)
	assert.Nil(t, record.GrantedAt)
	assert.Nil(t, record.ExpiresAt)
}

func TestNewConsentRecordRejectsInvalidInput(t *testing.T) {
	userID := uuid.New()

	_, err := NewConsentRecord(userID, "nonsense", NewCategorySet(CategoryHealth), ConsentStatusGranted)
	assert.Error(t, err)

	_, err = NewConsentRecord(userID, PurposeAnalytics, NewCategorySet(CategoryHealth), "maybe")
	assert.Error(t, err)

	_, err = NewConsentRecord(userID, PurposeAnalytics, NewCategorySet("bogus"), ConsentStatusGranted)
	assert.Error(t, err)
}

func TestGrantSetsExpiryOnlyForAutoExpiringPurposes(t *testing.T) {
	expiring := []DataProcessingPurpose{PurposeMarketing, PurposeResearch}
	for _, purpose := range expiring {
		record, err := NewConsentRecord(uuid.New(), purpose, NewCategorySet(CategoryBehavioral), ConsentStatusPending)
		require.NoError(t, err)
		record.Grant("203.0.113.7", "test-agent")

		require.NotNil(t, record.ExpiresAt, "purpose %s should expire", purpose)
		expected := time.Now().UTC().AddDate(0, 0, ConsentExpiryDays)
		assert.WithinDuration(t, expected, *record.ExpiresAt, time.Minute)
	}

	nonExpiring := []DataProcessingPurpose{
		PurposeCoreFunctionality, PurposeAnalytics, PurposeAIInsights,
		PurposeSocialFeatures, PurposeExternalIntegrations,
	}
	for _, purpose := range nonExpiring {
		record, err := NewConsentRecord(uuid.New(), purpose, NewCategorySet(CategoryBehavioral), ConsentStatusPending)
		require.NoError(t, err)
		record.Grant("", "")
		assert.Nil(t, record.ExpiresAt, "purpose %s should never auto-expire", purpose)
	}
}

func TestGrantRecordsAuditMetadata(t *testing.T) {
	record, err := NewConsentRecord(uuid.New(), PurposeAnalytics, NewCategorySet(CategoryBehavioral), ConsentStatusPending)
	require.NoError(t, err)

	record.Grant("203.0.113.7", "test-agent")

	assert.Equal(t, ConsentStatusGranted, record.Status)
	require.NotNil(t, record.GrantedAt)
	assert.Equal(t, "203.0.113.7", record.IPAddress)
	assert.Equal(t, "test-agent", record.UserAgent)
	assert.Nil(t, record.WithdrawnAt)
}

func TestWithdrawOnlyAffectsGrantedRecords(t *testing.T) {
	record, err := NewConsentRecord(uuid.New(), PurposeAnalytics, NewCategorySet(CategoryBehavioral), ConsentStatusPending)
	require.NoError(t, err)

	record.Withdraw()
	assert.Equal(t, ConsentStatusPending, record.Status)
	assert.Nil(t, record.WithdrawnAt)

	record.Grant("", "")
	record.Withdraw()
	assert.Equal(t, ConsentStatusWithdrawn, record.Status)
	require.NotNil(t, record.WithdrawnAt)
}

func TestIsValidDoesNotMutateExpiredRecord(t *testing.T) {
	record, err := NewConsentRecord(uuid.New(), PurposeMarketing, NewCategorySet(CategoryBehavioral), ConsentStatusPending)
	require.NoError(t, err)
	record.Grant("", "")

	past := time.Now().UTC().Add(-time.Hour)
	record.ExpiresAt = &past

	assert.True(t, record.IsExpired())
	assert.False(t, record.IsValid())
	// The validity check is a pure read: the persisted status stays granted
	// until the batch refresh job transitions it.
	assert.Equal(t, ConsentStatusGranted, record.Status)
}

func TestCoversCategory(t *testing.T) {
	record, err := NewConsentRecord(uuid.New(), PurposeAnalytics, NewCategorySet(CategoryBehavioral, CategoryLocation), ConsentStatusGranted)
	require.NoError(t, err)

	assert.True(t, record.CoversCategory(CategoryBehavioral))
	assert.True(t, record.CoversCategory(CategoryLocation))
	assert.False(t, record.CoversCategory(CategoryHealth))
}

func TestConsentRecordToMapRoundTrip(t *testing.T) {
	record, err := NewConsentRecord(uuid.New(), PurposeMarketing, NewCategorySet(CategoryBehavioral), ConsentStatusPending)
	require.NoError(t, err)
	record.Grant("203.0.113.7", "test-agent")

	m := record.ToMap()

	_, err = json.Marshal(m)
	require.NoError(t, err, "map must be JSON-serializable")

	assert.Equal(t, string(PurposeMarketing), m["purpose"])
	assert.Equal(t, string(ConsentStatusGranted), m["status"])
	assert.Equal(t, record.IsValid(), m["is_valid"])
	assert.Equal(t, record.IsExpired(), m["is_expired"])
}

func TestCategorySetFromValues(t *testing.T) {
	set, err := CategorySetFromValues([]string{"behavioral", "health"})
	require.NoError(t, err)
	assert.True(t, set.Contains(CategoryBehavioral))
	assert.True(t, set.Contains(CategoryHealth))
	assert.Equal(t, 2, set.Len())

	_, err = CategorySetFromValues([]string{"behavioral", "bogus"})
	assert.Error(t, err)
}

func TestCategorySetJSONIsSorted(t *testing.T) {
	set := NewCategorySet(CategoryLocation, CategoryBasicProfile, CategoryHealth)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["basic_profile","health","location"]`, string(data))

	var decoded CategorySet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set, decoded)
}
