package privacy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
	"go.uber.org/zap"
)

// ConsentChecker is the slice of the consent service this service needs.
type ConsentChecker interface {
	CheckConsent(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) (bool, error)
}

// purposeToggles maps each settings-gated purpose to the toggle that
// controls it. CoreFunctionality is deliberately absent: it bypasses
// settings entirely. Unknown purposes fail closed.
var purposeToggles = map[entities.DataProcessingPurpose]func(*entities.PrivacySettings) bool{
	entities.PurposeAnalytics:      func(s *entities.PrivacySettings) bool { return s.AnalyticsEnabled },
	entities.PurposeAIInsights:     func(s *entities.PrivacySettings) bool { return s.AIInsightsEnabled },
	entities.PurposeSocialFeatures: func(s *entities.PrivacySettings) bool { return s.SocialFeaturesEnabled },
	entities.PurposeMarketing:      func(s *entities.PrivacySettings) bool { return s.MarketingEnabled },
}

// Service combines privacy settings with consent decisions and exposes the
// activity log to callers outside the consent flow.
type Service struct {
	settingsRepo repositories.PrivacySettingsRepository
	activityRepo repositories.ProcessingActivityRepository
	consent      ConsentChecker
	logger       *zap.Logger
}

func NewService(settingsRepo repositories.PrivacySettingsRepository, activityRepo repositories.ProcessingActivityRepository, consent ConsentChecker, logger *zap.Logger) *Service {
	return &Service{
		settingsRepo: settingsRepo,
		activityRepo: activityRepo,
		consent:      consent,
		logger:       logger,
	}
}

// GetOrCreatePrivacySettings returns the user's settings, creating a row
// with privacy-friendly defaults when none exists.
func (s *Service) GetOrCreatePrivacySettings(ctx context.Context, userID uuid.UUID) (*entities.PrivacySettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up privacy settings: %w", err)
	}
	if settings != nil {
		return settings, nil
	}

	settings = entities.NewDefaultPrivacySettings(userID)
	if err := s.settingsRepo.Create(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to create privacy settings: %w", err)
	}

	s.logger.Info("privacy settings created with defaults", zap.String("user_id", userID.String()))
	return settings, nil
}

// UpdatePrivacySetting creates settings if absent, applies the named
// setting, persists, and logs a settings_updated activity.
func (s *Service) UpdatePrivacySetting(ctx context.Context, userID uuid.UUID, settingName string, value any) (*entities.PrivacySettings, error) {
	settings, err := s.GetOrCreatePrivacySettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := settings.UpdateSetting(settingName, value); err != nil {
		return nil, err
	}

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save privacy settings: %w", err)
	}

	activity, err := entities.NewDataProcessingActivity(
		userID,
		entities.PurposeCoreFunctionality,
		entities.NewCategorySet(entities.CategoryBasicProfile),
		entities.ActivitySettingsUpdated,
		"privacy_service",
	)
	if err != nil {
		return nil, err
	}
	activity.Details = map[string]any{"setting": settingName}

	if err := s.activityRepo.LogActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("settings persisted but activity logging failed: %w", err)
	}

	s.logger.Info("privacy setting updated",
		zap.String("user_id", userID.String()),
		zap.String("setting", settingName),
	)
	return settings, nil
}

// CanProcessData is the AND of a valid consent and the purpose's settings
// toggle. CoreFunctionality is allowed on consent alone. This is a read
// path: when no settings row exists, toggle-gated purposes are treated as
// disabled without creating one.
func (s *Service) CanProcessData(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) (bool, error) {
	allowed, err := s.consent.CheckConsent(ctx, userID, purpose, category)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}

	if purpose == entities.PurposeCoreFunctionality {
		return true, nil
	}

	toggle, ok := purposeToggles[purpose]
	if !ok {
		return false, nil
	}

	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to look up privacy settings: %w", err)
	}
	if settings == nil {
		return false, nil
	}

	return toggle(settings), nil
}

// LogDataAccess records an activity for callers outside the consent and
// settings flows.
func (s *Service) LogDataAccess(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, categories entities.CategorySet, processingType entities.ActivityType, contextName string, details map[string]any) (*entities.DataProcessingActivity, error) {
	activity, err := entities.NewDataProcessingActivity(userID, purpose, categories, processingType, contextName)
	if err != nil {
		return nil, err
	}
	if details != nil {
		activity.Details = details
	}

	if err := s.activityRepo.LogActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to log data access: %w", err)
	}
	return activity, nil
}

// GetUserActivitySummary aggregates the user's recent processing activity.
func (s *Service) GetUserActivitySummary(ctx context.Context, userID uuid.UUID, days int) (*repositories.ActivitySummary, error) {
	return s.activityRepo.GetActivitySummary(ctx, userID, days)
}
