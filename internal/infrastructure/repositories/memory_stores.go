package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
)

// In-memory repository implementations backing local development mode and
// service tests. All stores copy entities on the way in and out, so callers
// cannot mutate stored state without going through Save.

type consentKey struct {
	userID  uuid.UUID
	purpose entities.DataProcessingPurpose
}

// MemoryConsentStore is an in-memory ConsentRepository
type MemoryConsentStore struct {
	mu      sync.RWMutex
	records map[consentKey]*entities.ConsentRecord
}

func NewMemoryConsentStore() *MemoryConsentStore {
	return &MemoryConsentStore{records: make(map[consentKey]*entities.ConsentRecord)}
}

func (s *MemoryConsentStore) GetByUserAndPurpose(_ context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose) (*entities.ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[consentKey{userID, purpose}]
	if !ok {
		return nil, nil
	}
	return copyConsent(record), nil
}

func (s *MemoryConsentStore) GetAllForUser(_ context.Context, userID uuid.UUID) ([]*entities.ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*entities.ConsentRecord
	for key, record := range s.records {
		if key.userID == userID {
			result = append(result, copyConsent(record))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Purpose < result[j].Purpose })
	return result, nil
}

func (s *MemoryConsentStore) Create(_ context.Context, consent *entities.ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[consentKey{consent.UserID, consent.Purpose}] = copyConsent(consent)
	return nil
}

func (s *MemoryConsentStore) Save(_ context.Context, consent *entities.ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[consentKey{consent.UserID, consent.Purpose}] = copyConsent(consent)
	return nil
}

func (s *MemoryConsentStore) GetExpiredConsents(_ context.Context) ([]*entities.ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now().UTC()
	var result []*entities.ConsentRecord
	for _, record := range s.records {
		if record.Status == entities.ConsentStatusGranted && record.ExpiresAt != nil && now.After(*record.ExpiresAt) {
			result = append(result, copyConsent(record))
		}
	}
	return result, nil
}

func (s *MemoryConsentStore) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key := range s.records {
		if key.userID == userID {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}

// MemoryActivityStore is an in-memory append-only ProcessingActivityRepository
type MemoryActivityStore struct {
	mu         sync.RWMutex
	activities []*entities.DataProcessingActivity
}

func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{}
}

func (s *MemoryActivityStore) LogActivity(_ context.Context, activity *entities.DataProcessingActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, copyActivity(activity))
	return nil
}

func (s *MemoryActivityStore) GetActivitiesForUser(_ context.Context, userID uuid.UUID, limit int) ([]*entities.DataProcessingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*entities.DataProcessingActivity
	// Newest first.
	for i := len(s.activities) - 1; i >= 0; i-- {
		if s.activities[i].UserID != userID {
			continue
		}
		result = append(result, copyActivity(s.activities[i]))
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryActivityStore) GetActivitiesByPurpose(_ context.Context, purpose entities.DataProcessingPurpose, start, end time.Time) ([]*entities.DataProcessingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*entities.DataProcessingActivity
	for _, activity := range s.activities {
		if activity.Purpose == purpose && inWindow(activity.Timestamp, start, end) {
			result = append(result, copyActivity(activity))
		}
	}
	return result, nil
}

func (s *MemoryActivityStore) GetActivitiesByContext(_ context.Context, activityContext string, start, end time.Time) ([]*entities.DataProcessingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*entities.DataProcessingActivity
	for _, activity := range s.activities {
		if activity.Context == activityContext && inWindow(activity.Timestamp, start, end) {
			result = append(result, copyActivity(activity))
		}
	}
	return result, nil
}

func (s *MemoryActivityStore) DeleteActivitiesForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*entities.DataProcessingActivity
	var deleted int64
	for _, activity := range s.activities {
		if activity.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, activity)
	}
	s.activities = kept
	return deleted, nil
}

func (s *MemoryActivityStore) GetActivitySummary(_ context.Context, userID uuid.UUID, days int) (*repositories.ActivitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &repositories.ActivitySummary{
		UserID:           userID,
		PeriodDays:       days,
		ByPurpose:        make(map[string]int64),
		ByProcessingType: make(map[string]int64),
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	for _, activity := range s.activities {
		if activity.UserID != userID || activity.Timestamp.Before(cutoff) {
			continue
		}
		summary.TotalActivities++
		summary.ByPurpose[string(activity.Purpose)]++
		summary.ByProcessingType[string(activity.ProcessingType)]++

		timestamp := activity.Timestamp
		if summary.FirstActivity == nil || timestamp.Before(*summary.FirstActivity) {
			summary.FirstActivity = &timestamp
		}
		if summary.LastActivity == nil || timestamp.After(*summary.LastActivity) {
			summary.LastActivity = &timestamp
		}
	}
	return summary, nil
}

// MemorySettingsStore is an in-memory PrivacySettingsRepository
type MemorySettingsStore struct {
	mu       sync.RWMutex
	settings map[uuid.UUID]*entities.PrivacySettings
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{settings: make(map[uuid.UUID]*entities.PrivacySettings)}
}

func (s *MemorySettingsStore) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.PrivacySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.settings[userID]
	if !ok {
		return nil, nil
	}
	return copySettings(settings), nil
}

func (s *MemorySettingsStore) Create(_ context.Context, settings *entities.PrivacySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.UserID] = copySettings(settings)
	return nil
}

func (s *MemorySettingsStore) Save(_ context.Context, settings *entities.PrivacySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.UserID] = copySettings(settings)
	return nil
}

func (s *MemorySettingsStore) DeleteByUser(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.settings[userID]
	delete(s.settings, userID)
	return existed, nil
}

// Len reports how many settings rows exist. Used by tests to assert that
// read paths do not create rows.
func (s *MemorySettingsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.settings)
}

// MemoryRequestStore is an in-memory DataSubjectRequestRepository
type MemoryRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*entities.DataSubjectRequest
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[uuid.UUID]*entities.DataSubjectRequest)}
}

func (s *MemoryRequestStore) Create(_ context.Context, request *entities.DataSubjectRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.RequestID] = copyRequest(request)
	return nil
}

func (s *MemoryRequestStore) GetByID(_ context.Context, requestID uuid.UUID) (*entities.DataSubjectRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, nil
	}
	return copyRequest(request), nil
}

func (s *MemoryRequestStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]*entities.DataSubjectRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entities.DataSubjectRequest
	for _, request := range s.requests {
		if request.UserID == userID {
			result = append(result, copyRequest(request))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.Before(result[j].RequestedAt) })
	return result, nil
}

func (s *MemoryRequestStore) Save(_ context.Context, request *entities.DataSubjectRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.RequestID] = copyRequest(request)
	return nil
}

func (s *MemoryRequestStore) GetPendingRequests(_ context.Context) ([]*entities.DataSubjectRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entities.DataSubjectRequest
	for _, request := range s.requests {
		if request.Status == entities.RequestStatusPending {
			result = append(result, copyRequest(request))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.Before(result[j].RequestedAt) })
	return result, nil
}

func (s *MemoryRequestStore) GetOverdueRequests(_ context.Context, daysLimit int) ([]*entities.DataSubjectRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entities.DataSubjectRequest
	for _, request := range s.requests {
		if request.IsOverdue(daysLimit) {
			result = append(result, copyRequest(request))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.Before(result[j].RequestedAt) })
	return result, nil
}

func (s *MemoryRequestStore) DeleteCompletedRequests(_ context.Context, olderThanDays int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	var deleted int64
	for id, request := range s.requests {
		if request.Status.IsTerminal() && request.CompletedAt != nil && request.CompletedAt.Before(cutoff) {
			delete(s.requests, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryRequestStore) MarkProcessingIfPending(_ context.Context, requestID, processorID uuid.UUID) (*entities.DataSubjectRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok || request.Status != entities.RequestStatusPending {
		return nil, nil
	}
	request.Status = entities.RequestStatusProcessing
	processor := processorID
	request.ProcessorID = &processor
	return copyRequest(request), nil
}

// MemoryProfileStore is an in-memory UserProfileRepository
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*entities.UserProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[uuid.UUID]*entities.UserProfile)}
}

func (s *MemoryProfileStore) Create(_ context.Context, profile *entities.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = copyProfile(profile)
	return nil
}

func (s *MemoryProfileStore) GetByID(_ context.Context, userID uuid.UUID) (*entities.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return copyProfile(profile), nil
}

func (s *MemoryProfileStore) Save(_ context.Context, profile *entities.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = copyProfile(profile)
	return nil
}

// MemoryOnboardingStore is an in-memory OnboardingStateRepository
type MemoryOnboardingStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID]entities.OnboardingState
}

func NewMemoryOnboardingStore() *MemoryOnboardingStore {
	return &MemoryOnboardingStore{states: make(map[uuid.UUID]entities.OnboardingState)}
}

func (s *MemoryOnboardingStore) GetState(_ context.Context, userID uuid.UUID) (entities.OnboardingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[userID], nil
}

func (s *MemoryOnboardingStore) SaveState(_ context.Context, userID uuid.UUID, state entities.OnboardingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
	return nil
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func copyConsent(record *entities.ConsentRecord) *entities.ConsentRecord {
	clone := *record
	clone.DataCategories = record.DataCategories.Clone()
	clone.GrantedAt = copyTime(record.GrantedAt)
	clone.WithdrawnAt = copyTime(record.WithdrawnAt)
	clone.ExpiresAt = copyTime(record.ExpiresAt)
	return &clone
}

func copyActivity(activity *entities.DataProcessingActivity) *entities.DataProcessingActivity {
	clone := *activity
	clone.DataCategories = activity.DataCategories.Clone()
	if activity.ConsentID != nil {
		id := *activity.ConsentID
		clone.ConsentID = &id
	}
	if activity.Details != nil {
		details := make(map[string]any, len(activity.Details))
		for k, v := range activity.Details {
			details[k] = v
		}
		clone.Details = details
	}
	return &clone
}

func copySettings(settings *entities.PrivacySettings) *entities.PrivacySettings {
	clone := *settings
	if settings.RetentionPreferences != nil {
		prefs := make(map[entities.DataCategory]entities.RetentionPeriod, len(settings.RetentionPreferences))
		for k, v := range settings.RetentionPreferences {
			prefs[k] = v
		}
		clone.RetentionPreferences = prefs
	}
	return &clone
}

func copyRequest(request *entities.DataSubjectRequest) *entities.DataSubjectRequest {
	clone := *request
	clone.DataCategories = request.DataCategories.Clone()
	clone.CompletedAt = copyTime(request.CompletedAt)
	if request.ProcessorID != nil {
		id := *request.ProcessorID
		clone.ProcessorID = &id
	}
	return &clone
}

func copyProfile(profile *entities.UserProfile) *entities.UserProfile {
	clone := *profile
	clone.BirthDate = copyTime(profile.BirthDate)
	return &clone
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
