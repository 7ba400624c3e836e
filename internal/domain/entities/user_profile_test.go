package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserProfileStartsAtLevelOne(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	assert.Equal(t, 1, profile.Level)
	assert.Equal(t, int64(0), profile.ExperiencePoints)

	_, err = NewUserProfile(uuid.New(), "")
	assert.Error(t, err)
}

func TestAddExperienceLevelsUp(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	level, leveledUp, err := profile.AddExperience(500)
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	assert.False(t, leveledUp)

	level, leveledUp, err = profile.AddExperience(500)
	require.NoError(t, err)
	assert.Equal(t, 2, level)
	assert.True(t, leveledUp)
	assert.Equal(t, int64(1000), profile.ExperiencePoints)
}

func TestAddExperienceRejectsNonPositive(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	_, _, err = profile.AddExperience(0)
	assert.Error(t, err)
	_, _, err = profile.AddExperience(-10)
	assert.Error(t, err)
	assert.Equal(t, int64(0), profile.ExperiencePoints)
}

func TestAddExperienceCapsAtMax(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	profile.ExperiencePoints = MaxExperiencePoints - 1
	profile.Level = calculateLevel(profile.ExperiencePoints)

	level, _, err := profile.AddExperience(1_000_000)
	require.NoError(t, err)
	assert.Equal(t, MaxExperiencePoints, profile.ExperiencePoints)
	assert.Equal(t, calculateLevel(MaxExperiencePoints), level)

	// Once capped, further additions hold the cap and never lower the level.
	again, leveledUp, err := profile.AddExperience(1)
	require.NoError(t, err)
	assert.Equal(t, MaxExperiencePoints, profile.ExperiencePoints)
	assert.Equal(t, level, again)
	assert.False(t, leveledUp)
}

func TestLevelNeverDecreases(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	previous := profile.Level
	for _, points := range []int64{1, 999, 1, 2500, 10_000} {
		level, _, err := profile.AddExperience(points)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, level, previous)
		previous = level
	}
}

func TestUpdateProfileRejectsUnknownFieldBeforeApplying(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	err = profile.UpdateProfile(map[string]any{
		"first_name": "Ada",
		"level":      99,
	})
	require.Error(t, err)
	// Nothing from the batch is applied.
	assert.Empty(t, profile.FirstName)
}

func TestUpdateProfileAppliesAllowedFields(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	err = profile.UpdateProfile(map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Equal(t, "Lovelace", profile.LastName)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada Lovelace", profile.FullName())
}

func TestExperienceToNextLevel(t *testing.T) {
	profile, err := NewUserProfile(uuid.New(), "ada")
	require.NoError(t, err)

	assert.Equal(t, ExperiencePerLevel, profile.ExperienceToNextLevel())

	_, _, err = profile.AddExperience(250)
	require.NoError(t, err)
	assert.Equal(t, int64(750), profile.ExperienceToNextLevel())
	assert.Equal(t, 25.0, profile.LevelProgressPercentage())
}
