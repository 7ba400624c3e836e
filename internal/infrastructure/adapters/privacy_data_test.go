package adapters

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	infra "github.com/lifedash/privacy_service/internal/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dataFixture struct {
	profileStore  *infra.MemoryProfileStore
	consentStore  *infra.MemoryConsentStore
	settingsStore *infra.MemorySettingsStore
	activityStore *infra.MemoryActivityStore
	collector     *StoreDataCollector
	deleter       *StoreDataDeleter
}

func newDataFixture() *dataFixture {
	profileStore := infra.NewMemoryProfileStore()
	consentStore := infra.NewMemoryConsentStore()
	settingsStore := infra.NewMemorySettingsStore()
	activityStore := infra.NewMemoryActivityStore()
	logger := zap.NewNop()
	return &dataFixture{
		profileStore:  profileStore,
		consentStore:  consentStore,
		settingsStore: settingsStore,
		activityStore: activityStore,
		collector:     NewStoreDataCollector(profileStore, consentStore, settingsStore, activityStore, logger),
		deleter:       NewStoreDataDeleter(consentStore, settingsStore, activityStore, logger),
	}
}

func (f *dataFixture) seedUser(t *testing.T, ctx context.Context) uuid.UUID {
	t.Helper()
	userID := uuid.New()

	profile, err := entities.NewUserProfile(userID, "ada")
	require.NoError(t, err)
	require.NoError(t, f.profileStore.Create(ctx, profile))

	consent, err := entities.NewConsentRecord(userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), entities.ConsentStatusGranted)
	require.NoError(t, err)
	require.NoError(t, f.consentStore.Create(ctx, consent))

	require.NoError(t, f.settingsStore.Create(ctx, entities.NewDefaultPrivacySettings(userID)))

	activity, err := entities.NewDataProcessingActivity(userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), entities.ActivityConsentGranted, "consent_service")
	require.NoError(t, err)
	require.NoError(t, f.activityStore.LogActivity(ctx, activity))

	return userID
}

func TestCollectUserDataScopesToCategories(t *testing.T) {
	f := newDataFixture()
	ctx := context.Background()
	userID := f.seedUser(t, ctx)

	payload, err := f.collector.CollectUserData(ctx, userID, entities.NewCategorySet(entities.CategoryBasicProfile))
	require.NoError(t, err)

	assert.Contains(t, payload, "basic_profile")
	assert.NotContains(t, payload, "behavioral")
	assert.Contains(t, payload, "consent_records", "consent decisions are always included")
	assert.Contains(t, payload, "privacy_settings")
}

func TestCollectUserDataIncludesActivities(t *testing.T) {
	f := newDataFixture()
	ctx := context.Background()
	userID := f.seedUser(t, ctx)

	payload, err := f.collector.CollectUserData(ctx, userID, entities.AllCategoriesSet())
	require.NoError(t, err)

	entries, ok := payload["behavioral"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestDeleteUserDataPreservesAuditTrailByDefault(t *testing.T) {
	f := newDataFixture()
	ctx := context.Background()
	userID := f.seedUser(t, ctx)

	require.NoError(t, f.deleter.DeleteUserData(ctx, userID, entities.AllCategoriesSet(), false))

	consents, err := f.consentStore.GetAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, consents)

	settings, err := f.settingsStore.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, settings)

	activities, err := f.activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 1, "audit trail survives by default")
}

func TestDeleteUserDataCanEraseActivities(t *testing.T) {
	f := newDataFixture()
	ctx := context.Background()
	userID := f.seedUser(t, ctx)

	require.NoError(t, f.deleter.DeleteUserData(ctx, userID, entities.AllCategoriesSet(), true))

	activities, err := f.activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, activities)
}
