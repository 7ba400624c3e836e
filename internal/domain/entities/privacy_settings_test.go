package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsArePrivacyFriendly(t *testing.T) {
	settings := NewDefaultPrivacySettings(uuid.New())

	assert.False(t, settings.AnalyticsEnabled)
	assert.False(t, settings.AIInsightsEnabled)
	assert.False(t, settings.SocialFeaturesEnabled)
	assert.False(t, settings.MarketingEnabled)

	assert.Equal(t, SharingPrivate, settings.AchievementSharing)
	assert.Equal(t, SharingPrivate, settings.ProgressSharing)
	assert.Equal(t, SharingPrivate, settings.ProfileVisibility)

	assert.True(t, settings.PrivacyNotifications)
	assert.True(t, settings.ConsentReminders)
	assert.True(t, settings.DataBreachNotifications)
	assert.True(t, settings.DifferentialPrivacy)
	assert.True(t, settings.DataMinimization)
	assert.True(t, settings.Pseudonymization)
}

func TestUpdateSettingTogglesBooleans(t *testing.T) {
	settings := NewDefaultPrivacySettings(uuid.New())

	require.NoError(t, settings.UpdateSetting("analytics_enabled", true))
	assert.True(t, settings.AnalyticsEnabled)

	require.NoError(t, settings.UpdateSetting("marketing_enabled", true))
	assert.True(t, settings.MarketingEnabled)

	err := settings.UpdateSetting("analytics_enabled", "yes")
	assert.Error(t, err, "wrong value type must be rejected")
	assert.True(t, settings.AnalyticsEnabled, "failed update must not change the field")
}

func TestUpdateSettingUnknownName(t *testing.T) {
	settings := NewDefaultPrivacySettings(uuid.New())

	err := settings.UpdateSetting("telemetry_enabled", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown privacy setting")
}

func TestUpdateSettingSharingLevels(t *testing.T) {
	settings := NewDefaultPrivacySettings(uuid.New())

	require.NoError(t, settings.UpdateSetting("profile_visibility", "friends"))
	assert.Equal(t, SharingFriends, settings.ProfileVisibility)

	err := settings.UpdateSetting("profile_visibility", "everyone")
	assert.Error(t, err)
	assert.Equal(t, SharingFriends, settings.ProfileVisibility)
}

func TestUpdateSettingExportFormat(t *testing.T) {
	settings := NewDefaultPrivacySettings(uuid.New())

	require.NoError(t, settings.UpdateSetting("export_format", "csv"))
	assert.Equal(t, ExportFormatCSV, settings.ExportFormat)

	assert.Error(t, settings.UpdateSetting("export_format", "parquet"))
}

func TestRetentionPreferences(t *testing.T) {
	settings := NewDefaultPrivacySettings(uuid.New())

	assert.Equal(t, RetentionYear1, settings.GetRetentionPeriod(CategoryHealth))

	require.NoError(t, settings.SetRetentionPreference(CategoryHealth, RetentionDays90))
	assert.Equal(t, RetentionDays90, settings.GetRetentionPeriod(CategoryHealth))

	assert.Error(t, settings.SetRetentionPreference("bogus", RetentionDays90))
	assert.Error(t, settings.SetRetentionPreference(CategoryHealth, "forever"))
}

func TestIsFeatureEnabled(t *testing.T) {
	settings := NewDefaultPrivacySettings(uuid.New())

	assert.False(t, settings.IsFeatureEnabled("analytics"))
	require.NoError(t, settings.UpdateSetting("analytics_enabled", true))
	assert.True(t, settings.IsFeatureEnabled("analytics"))

	assert.False(t, settings.IsFeatureEnabled("teleportation"))
}
