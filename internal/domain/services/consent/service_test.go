package consent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	infra "github.com/lifedash/privacy_service/internal/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cacheEntry struct {
	allowed bool
}

type recordingCache struct {
	entries       map[string]cacheEntry
	invalidations int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]cacheEntry)}
}

func cacheKey(userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) string {
	return fmt.Sprintf("%s:%s:%s", userID, purpose, category)
}

func (c *recordingCache) Get(_ context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) (bool, bool) {
	entry, ok := c.entries[cacheKey(userID, purpose, category)]
	return entry.allowed, ok
}

func (c *recordingCache) Set(_ context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory, allowed bool) {
	c.entries[cacheKey(userID, purpose, category)] = cacheEntry{allowed: allowed}
}

func (c *recordingCache) InvalidateUser(_ context.Context, _ uuid.UUID) {
	c.invalidations++
	c.entries = make(map[string]cacheEntry)
}

func newTestService() (*Service, *infra.MemoryConsentStore, *infra.MemoryActivityStore, *recordingCache) {
	consentStore := infra.NewMemoryConsentStore()
	activityStore := infra.NewMemoryActivityStore()
	cache := newRecordingCache()
	service := NewService(consentStore, activityStore, cache, zap.NewNop())
	return service, consentStore, activityStore, cache
}

func TestGrantConsentCreatesRecordAndActivity(t *testing.T) {
	service, _, activityStore, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	record, err := service.GrantConsent(ctx, userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), "203.0.113.7", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, entities.ConsentStatusGranted, record.Status)
	assert.Nil(t, record.ExpiresAt, "analytics consent never auto-expires")

	activities, err := activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1, "exactly one activity per grant")
	assert.Equal(t, entities.ActivityConsentGranted, activities[0].ProcessingType)
	require.NotNil(t, activities[0].ConsentID)
	assert.Equal(t, record.ConsentID, *activities[0].ConsentID)
}

func TestGrantConsentSetsExpiryForMarketing(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()

	record, err := service.GrantConsent(ctx, uuid.New(), entities.PurposeMarketing, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)
	require.NotNil(t, record.ExpiresAt)
	expected := time.Now().UTC().AddDate(0, 0, entities.ConsentExpiryDays)
	assert.WithinDuration(t, expected, *record.ExpiresAt, time.Minute)
}

func TestGrantConsentIsIdempotentReGrant(t *testing.T) {
	service, consentStore, activityStore, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	first, err := service.GrantConsent(ctx, userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)

	second, err := service.GrantConsent(ctx, userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral, entities.CategoryLocation), "", "")
	require.NoError(t, err)

	// Re-grant reuses the record and replaces its categories.
	assert.Equal(t, first.ConsentID, second.ConsentID)
	stored, err := consentStore.GetByUserAndPurpose(ctx, userID, entities.PurposeAnalytics)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.DataCategories.Len())

	activities, err := activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 2)
}

func TestWithdrawConsentMissingRecordIsNoOp(t *testing.T) {
	service, _, activityStore, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	record, err := service.WithdrawConsent(ctx, userID, entities.PurposeAnalytics)
	require.NoError(t, err)
	assert.Nil(t, record)

	activities, err := activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestWithdrawConsent(t *testing.T) {
	service, consentStore, activityStore, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := service.GrantConsent(ctx, userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)

	record, err := service.WithdrawConsent(ctx, userID, entities.PurposeAnalytics)
	require.NoError(t, err)
	assert.Equal(t, entities.ConsentStatusWithdrawn, record.Status)

	stored, err := consentStore.GetByUserAndPurpose(ctx, userID, entities.PurposeAnalytics)
	require.NoError(t, err)
	assert.Equal(t, entities.ConsentStatusWithdrawn, stored.Status)

	activities, err := activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, entities.ActivityConsentWithdrawn, activities[0].ProcessingType)
}

func TestCheckConsent(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	allowed, err := service.CheckConsent(ctx, userID, entities.PurposeAnalytics, entities.CategoryBehavioral)
	require.NoError(t, err)
	assert.False(t, allowed, "no record means no consent")

	_, err = service.GrantConsent(ctx, userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)

	allowed, err = service.CheckConsent(ctx, userID, entities.PurposeAnalytics, entities.CategoryBehavioral)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = service.CheckConsent(ctx, userID, entities.PurposeAnalytics, entities.CategoryHealth)
	require.NoError(t, err)
	assert.False(t, allowed, "uncovered category is denied")
}

func TestCheckConsentDoesNotPersistExpiry(t *testing.T) {
	service, consentStore, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	record, err := service.GrantConsent(ctx, userID, entities.PurposeMarketing, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Hour)
	record.ExpiresAt = &past
	require.NoError(t, consentStore.Save(ctx, record))

	allowed, err := service.CheckConsent(ctx, userID, entities.PurposeMarketing, entities.CategoryBehavioral)
	require.NoError(t, err)
	assert.False(t, allowed)

	// The expired record is reported invalid but its persisted status is
	// untouched; only the batch refresh transitions it.
	stored, err := consentStore.GetByUserAndPurpose(ctx, userID, entities.PurposeMarketing)
	require.NoError(t, err)
	assert.Equal(t, entities.ConsentStatusGranted, stored.Status)
}

func TestCheckConsentUsesCache(t *testing.T) {
	service, _, _, cache := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := service.GrantConsent(ctx, userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)

	_, err = service.CheckConsent(ctx, userID, entities.PurposeAnalytics, entities.CategoryBehavioral)
	require.NoError(t, err)
	assert.Len(t, cache.entries, 1, "decision is cached after a miss")

	// A withdrawal invalidates the user's cached decisions.
	_, err = service.WithdrawConsent(ctx, userID, entities.PurposeAnalytics)
	require.NoError(t, err)
	assert.Empty(t, cache.entries)

	allowed, err := service.CheckConsent(ctx, userID, entities.PurposeAnalytics, entities.CategoryBehavioral)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRefreshExpiredConsents(t *testing.T) {
	service, consentStore, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	record, err := service.GrantConsent(ctx, userID, entities.PurposeMarketing, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Hour)
	record.ExpiresAt = &past
	require.NoError(t, consentStore.Save(ctx, record))

	// A non-expiring consent must be left alone.
	_, err = service.GrantConsent(ctx, userID, entities.PurposeAnalytics, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)

	count, err := service.RefreshExpiredConsents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := consentStore.GetByUserAndPurpose(ctx, userID, entities.PurposeMarketing)
	require.NoError(t, err)
	assert.Equal(t, entities.ConsentStatusExpired, stored.Status)

	untouched, err := consentStore.GetByUserAndPurpose(ctx, userID, entities.PurposeAnalytics)
	require.NoError(t, err)
	assert.Equal(t, entities.ConsentStatusGranted, untouched.Status)

	// A second pass finds nothing left to transition.
	count, err = service.RefreshExpiredConsents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

type recordingExpiryNotifier struct {
	notified []*entities.ConsentRecord
	err      error
}

func (n *recordingExpiryNotifier) NotifyConsentExpired(_ context.Context, record *entities.ConsentRecord) error {
	n.notified = append(n.notified, record)
	return n.err
}

func TestRefreshExpiredConsentsNotifiesReminder(t *testing.T) {
	service, consentStore, _, _ := newTestService()
	notifier := &recordingExpiryNotifier{}
	service.SetExpiryNotifier(notifier)
	ctx := context.Background()
	userID := uuid.New()

	record, err := service.GrantConsent(ctx, userID, entities.PurposeMarketing, entities.NewCategorySet(entities.CategoryBehavioral), "", "")
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Hour)
	record.ExpiresAt = &past
	require.NoError(t, consentStore.Save(ctx, record))

	count, err := service.RefreshExpiredConsents(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.Len(t, notifier.notified, 1)
	assert.Equal(t, entities.PurposeMarketing, notifier.notified[0].Purpose)
	assert.Equal(t, userID, notifier.notified[0].UserID)
}

func TestRefreshExpiredConsentsSurvivesNotifierFailure(t *testing.T) {
	service, consentStore, _, _ := newTestService()
	notifier := &recordingExpiryNotifier{err: fmt.Errorf("smtp down")}
	service.SetExpiryNotifier(notifier)
	ctx := context.Background()
	userID := uuid.New()

	record, err := service.GrantConsent(ctx, userID, entities.PurposeResearch, entities.NewCategorySet(entities.CategoryHealth), "", "")
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	record.ExpiresAt = &past
	require.NoError(t, consentStore.Save(ctx, record))

	count, err := service.RefreshExpiredConsents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := consentStore.GetByUserAndPurpose(ctx, userID, entities.PurposeResearch)
	require.NoError(t, err)
	assert.Equal(t, entities.ConsentStatusExpired, stored.Status)
}
