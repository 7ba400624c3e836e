package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
	"github.com/lifedash/privacy_service/pkg/metrics"
	"go.uber.org/zap"
)

// ErrProfileNotFound is returned when a user has no profile
var ErrProfileNotFound = errors.New("user profile not found")

// Service manages user profiles and their experience/leveling progression.
type Service struct {
	profileRepo  repositories.UserProfileRepository
	activityRepo repositories.ProcessingActivityRepository
	logger       *zap.Logger
}

func NewService(profileRepo repositories.UserProfileRepository, activityRepo repositories.ProcessingActivityRepository, logger *zap.Logger) *Service {
	return &Service{
		profileRepo:  profileRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CreateProfile creates a new profile at level 1 with no experience.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, username string) (*entities.UserProfile, error) {
	existing, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("profile already exists for user %s", userID)
	}

	profile, err := entities.NewUserProfile(userID, username)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("user profile created",
		zap.String("user_id", userID.String()),
		zap.String("username", username),
	)
	return profile, nil
}

// GetProfile returns the user's profile or ErrProfileNotFound.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*entities.UserProfile, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	return profile, nil
}

// AddExperience awards experience points and persists the result, returning
// the updated profile and whether the user leveled up.
func (s *Service) AddExperience(ctx context.Context, userID uuid.UUID, points int64) (*entities.UserProfile, bool, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	newLevel, leveledUp, err := profile.AddExperience(points)
	if err != nil {
		return nil, false, err
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, false, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logActivity(ctx, userID, entities.ActivityExperienceAdded, map[string]any{
		"points":     points,
		"level":      newLevel,
		"leveled_up": leveledUp,
	})

	if leveledUp {
		s.logger.Info("user leveled up",
			zap.String("user_id", userID.String()),
			zap.Int("level", newLevel),
		)
	}
	return profile, leveledUp, nil
}

// UpdateProfile applies the given field updates. Unknown field names fail
// the whole update before anything is applied.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, fields map[string]any) (*entities.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := profile.UpdateProfile(fields); err != nil {
		return nil, err
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	s.logActivity(ctx, userID, entities.ActivityProfileUpdated, map[string]any{"fields": names})

	return profile, nil
}

// Profile mutations are not rolled back on audit failures; the miss is
// logged and counted instead.
func (s *Service) logActivity(ctx context.Context, userID uuid.UUID, activityType entities.ActivityType, details map[string]any) {
	activity, err := entities.NewDataProcessingActivity(
		userID,
		entities.PurposeCoreFunctionality,
		entities.NewCategorySet(entities.CategoryBasicProfile),
		activityType,
		"profile_service",
	)
	if err != nil {
		s.logger.Warn("failed to build profile activity", zap.Error(err))
		return
	}
	activity.Details = details

	if err := s.activityRepo.LogActivity(ctx, activity); err != nil {
		metrics.ActivityLogFailuresTotal.Inc()
		s.logger.Warn("failed to log profile activity",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
	}
}
