package profile

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

func newTestService() (*Service, *infra.MemoryProfileStore, *infra.MemoryActivityStore) {
	profileStore := infra.NewMemoryProfileStore()
	activityStore := infra.NewMemoryActivityStore()
	return NewService(profileStore, activityStore, zap.NewNop()), profileStore, activityStore
}

func TestCreateProfile(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	profile, err := service.CreateProfile(ctx, userID, "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Level)

	_, err = service.CreateProfile(ctx, userID, "ada")
	assert.Error(t, err, "duplicate profiles are rejected")
}

func TestGetProfileNotFound(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestAddExperiencePersistsAndLogs(t *testing.T) {
	service, profileStore, activityStore := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := service.CreateProfile(ctx, userID, "ada")
	require.NoError(t, err)

	profile, leveledUp, err := service.AddExperience(ctx, userID, 1500)
	require.NoError(t, err)
	assert.True(t, leveledUp)
	assert.Equal(t, 2, profile.Level)

	stored, err := profileStore.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), stored.ExperiencePoints)

	activities, err := activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, entities.ActivityExperienceAdded, activities[0].ProcessingType)
	assert.Equal(t, true, activities[0].Details["leveled_up"])
}

func TestAddExperienceRejectsNonPositive(t *testing.T) {
	service, profileStore, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := service.CreateProfile(ctx, userID, "ada")
	require.NoError(t, err)

	_, _, err = service.AddExperience(ctx, userID, -5)
	require.Error(t, err)

	stored, err := profileStore.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.ExperiencePoints, "failed additions are not persisted")
}

func TestUpdateProfile(t *testing.T) {
	service, _, activityStore := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := service.CreateProfile(ctx, userID, "ada")
	require.NoError(t, err)

	profile, err := service.UpdateProfile(ctx, userID, map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.FullName())

	activities, err := activityStore.GetActivitiesForUser(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, entities.ActivityProfileUpdated, activities[0].ProcessingType)
}

func TestUpdateProfileUnknownField(t *testing.T) {
	service, profileStore, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := service.CreateProfile(ctx, userID, "ada")
	require.NoError(t, err)

	_, err = service.UpdateProfile(ctx, userID, map[string]any{
		"first_name": "Ada",
		"level":      50,
	})
	require.Error(t, err)

	stored, err := profileStore.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, stored.FirstName, "nothing applied when any field is unknown")
}
