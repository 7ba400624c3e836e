package adapters

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
)

const exportActivityLimit = 1000

// StoreDataCollector assembles a user's export payload from the
// repositories this service owns, scoped to the requested categories. The
// payload is keyed by category value, plus a consent/settings section that
// is always included so the subject can see the decisions governing their
// data.
type StoreDataCollector struct {
	profileRepo  repositories.UserProfileRepository
	consentRepo  repositories.ConsentRepository
	settingsRepo repositories.PrivacySettingsRepository
	activityRepo repositories.ProcessingActivityRepository
	logger       *zap.Logger
}

// NewStoreDataCollector creates a store-backed data collector
func NewStoreDataCollector(
	profileRepo repositories.UserProfileRepository,
	consentRepo repositories.ConsentRepository,
	settingsRepo repositories.PrivacySettingsRepository,
	activityRepo repositories.ProcessingActivityRepository,
	logger *zap.Logger,
) *StoreDataCollector {
	return &StoreDataCollector{
		profileRepo:  profileRepo,
		consentRepo:  consentRepo,
		settingsRepo: settingsRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CollectUserData gathers the user's data for the requested categories
func (c *StoreDataCollector) CollectUserData(ctx context.Context, userID uuid.UUID, categories entities.CategorySet) (map[string]any, error) {
	payload := make(map[string]any)

	if categories.Contains(entities.CategoryBasicProfile) {
		profile, err := c.profileRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to collect profile data: %w", err)
		}
		if profile != nil {
			payload[string(entities.CategoryBasicProfile)] = profile
		}
	}

	if categories.Contains(entities.CategoryBehavioral) {
		activities, err := c.activityRepo.GetActivitiesForUser(ctx, userID, exportActivityLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to collect activity data: %w", err)
		}
		entries := make([]map[string]any, 0, len(activities))
		for _, activity := range activities {
			entries = append(entries, activity.ToMap())
		}
		payload[string(entities.CategoryBehavioral)] = entries
	}

	consents, err := c.consentRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect consent data: %w", err)
	}
	consentEntries := make([]map[string]any, 0, len(consents))
	for _, consent := range consents {
		consentEntries = append(consentEntries, consent.ToMap())
	}
	payload["consent_records"] = consentEntries

	settings, err := c.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect settings data: %w", err)
	}
	if settings != nil {
		payload["privacy_settings"] = settings.ToMap()
	}

	c.logger.Info("user data collected for export",
		zap.String("user_id", userID.String()),
		zap.Int("categories", categories.Len()),
	)
	return payload, nil
}

// StoreDataDeleter erases a user's data from the repositories this service
// owns. Consent records and the activity log follow the delete_activities
// policy; everything else scoped to the requested categories is removed.
type StoreDataDeleter struct {
	consentRepo  repositories.ConsentRepository
	settingsRepo repositories.PrivacySettingsRepository
	activityRepo repositories.ProcessingActivityRepository
	logger       *zap.Logger
}

// NewStoreDataDeleter creates a store-backed data deleter
func NewStoreDataDeleter(
	consentRepo repositories.ConsentRepository,
	settingsRepo repositories.PrivacySettingsRepository,
	activityRepo repositories.ProcessingActivityRepository,
	logger *zap.Logger,
) *StoreDataDeleter {
	return &StoreDataDeleter{
		consentRepo:  consentRepo,
		settingsRepo: settingsRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// DeleteUserData erases the user's stored data. The consent records
// themselves are erased last so a partial failure leaves the user's
// decisions intact.
func (d *StoreDataDeleter) DeleteUserData(ctx context.Context, userID uuid.UUID, categories entities.CategorySet, deleteActivities bool) error {
	if _, err := d.settingsRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete privacy settings: %w", err)
	}

	var activitiesDeleted int64
	if deleteActivities {
		deleted, err := d.activityRepo.DeleteActivitiesForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete activity log: %w", err)
		}
		activitiesDeleted = deleted
	}

	consentsDeleted, err := d.consentRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete consent records: %w", err)
	}

	d.logger.Info("user data deleted",
		zap.String("user_id", userID.String()),
		zap.Int64("consents_deleted", consentsDeleted),
		zap.Int64("activities_deleted", activitiesDeleted),
		zap.Bool("activity_log_included", deleteActivities),
	)
	return nil
}
