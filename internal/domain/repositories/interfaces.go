package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// ConsentRepository defines persistence for consent records. Lookups return
// (nil, nil) when no record exists.
type ConsentRepository interface {
	GetByUserAndPurpose(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose) (*entities.ConsentRecord, error)
	GetAllForUser(ctx context.Context, userID uuid.UUID) ([]*entities.ConsentRecord, error)
	Create(ctx context.Context, consent *entities.ConsentRecord) error
	Save(ctx context.Context, consent *entities.ConsentRecord) error
	// GetExpiredConsents returns granted consents whose expiry has passed,
	// as candidates for the batch expiry transition.
	GetExpiredConsents(ctx context.Context) ([]*entities.ConsentRecord, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ActivitySummary aggregates a user's processing activities over a window
type ActivitySummary struct {
	UserID           uuid.UUID        `json:"user_id"`
	PeriodDays       int              `json:"period_days"`
	TotalActivities  int64            `json:"total_activities"`
	ByPurpose        map[string]int64 `json:"by_purpose"`
	ByProcessingType map[string]int64 `json:"by_processing_type"`
	FirstActivity    *time.Time       `json:"first_activity,omitempty"`
	LastActivity     *time.Time       `json:"last_activity,omitempty"`
}

// ProcessingActivityRepository defines the append-only audit log.
// Activities are only created and queried, never updated.
type ProcessingActivityRepository interface {
	LogActivity(ctx context.Context, activity *entities.DataProcessingActivity) error
	GetActivitiesForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.DataProcessingActivity, error)
	GetActivitiesByPurpose(ctx context.Context, purpose entities.DataProcessingPurpose, start, end time.Time) ([]*entities.DataProcessingActivity, error)
	GetActivitiesByContext(ctx context.Context, activityContext string, start, end time.Time) ([]*entities.DataProcessingActivity, error)
	DeleteActivitiesForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	GetActivitySummary(ctx context.Context, userID uuid.UUID, days int) (*ActivitySummary, error)
}

// PrivacySettingsRepository defines persistence for per-user privacy
// settings. GetByUserID returns (nil, nil) when the user has no settings
// row; it must not create one.
type PrivacySettingsRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.PrivacySettings, error)
	Create(ctx context.Context, settings *entities.PrivacySettings) error
	Save(ctx context.Context, settings *entities.PrivacySettings) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// DataSubjectRequestRepository defines persistence for DSAR requests.
type DataSubjectRequestRepository interface {
	Create(ctx context.Context, request *entities.DataSubjectRequest) error
	GetByID(ctx context.Context, requestID uuid.UUID) (*entities.DataSubjectRequest, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.DataSubjectRequest, error)
	Save(ctx context.Context, request *entities.DataSubjectRequest) error
	GetPendingRequests(ctx context.Context) ([]*entities.DataSubjectRequest, error)
	GetOverdueRequests(ctx context.Context, daysLimit int) ([]*entities.DataSubjectRequest, error)
	DeleteCompletedRequests(ctx context.Context, olderThanDays int) (int64, error)
	// MarkProcessingIfPending atomically claims a pending request for the
	// given processor. Exactly one caller can win the claim; all others get
	// (nil, nil) and must treat the lost claim as authoritative.
	MarkProcessingIfPending(ctx context.Context, requestID, processorID uuid.UUID) (*entities.DataSubjectRequest, error)
}

// UserProfileRepository defines persistence for user profiles. GetByID
// returns (nil, nil) when the profile does not exist.
type UserProfileRepository interface {
	Create(ctx context.Context, profile *entities.UserProfile) error
	GetByID(ctx context.Context, userID uuid.UUID) (*entities.UserProfile, error)
	Save(ctx context.Context, profile *entities.UserProfile) error
}

// OnboardingStateRepository persists each user's onboarding state. GetState
// returns ("", nil) for users with no recorded state; callers treat that as
// the initial registration state.
type OnboardingStateRepository interface {
	GetState(ctx context.Context, userID uuid.UUID) (entities.OnboardingState, error)
	SaveState(ctx context.Context, userID uuid.UUID, state entities.OnboardingState) error
}
