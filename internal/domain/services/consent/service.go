package consent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
	"github.com/lifedash/privacy_service/pkg/metrics"
	"go.uber.org/zap"
)

// DecisionCache caches consent-check decisions. Implementations must treat
// the cache as advisory: misses fall through to the repository and user
// entries are invalidated on every consent mutation.
type DecisionCache interface {
	Get(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) (allowed bool, found bool)
	Set(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory, allowed bool)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// ExpiryNotifier is told about consents that just expired so the user can
// be reminded. Delivery is best effort.
type ExpiryNotifier interface {
	NotifyConsentExpired(ctx context.Context, record *entities.ConsentRecord) error
}

// Service orchestrates grant/withdraw/check of consent, logging every
// mutation as a processing activity.
type Service struct {
	consentRepo    repositories.ConsentRepository
	activityRepo   repositories.ProcessingActivityRepository
	cache          DecisionCache
	expiryNotifier ExpiryNotifier
	logger         *zap.Logger
}

// NewService creates a consent service. cache may be nil.
func NewService(consentRepo repositories.ConsentRepository, activityRepo repositories.ProcessingActivityRepository, cache DecisionCache, logger *zap.Logger) *Service {
	return &Service{
		consentRepo:  consentRepo,
		activityRepo: activityRepo,
		cache:        cache,
		logger:       logger,
	}
}

// SetExpiryNotifier installs a reminder notifier for expired consents
func (s *Service) SetExpiryNotifier(notifier ExpiryNotifier) {
	s.expiryNotifier = notifier
}

// GrantConsent grants consent for (userID, purpose) over the given data
// categories. An existing record has its categories replaced and is
// re-granted (idempotent re-grant); otherwise a new granted record is
// created. Exactly one record write and one activity write per call.
func (s *Service) GrantConsent(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, categories entities.CategorySet, ipAddress, userAgent string) (*entities.ConsentRecord, error) {
	existing, err := s.consentRepo.GetByUserAndPurpose(ctx, userID, purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to look up consent: %w", err)
	}

	var record *entities.ConsentRecord
	if existing != nil {
		existing.DataCategories = categories
		existing.Grant(ipAddress, userAgent)
		if err := s.consentRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to save consent: %w", err)
		}
		record = existing
	} else {
		record, err = entities.NewConsentRecord(userID, purpose, categories, entities.ConsentStatusGranted)
		if err != nil {
			return nil, err
		}
		record.Grant(ipAddress, userAgent)
		if err := s.consentRepo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create consent: %w", err)
		}
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}

	if err := s.logConsentActivity(ctx, record, entities.ActivityConsentGranted); err != nil {
		return nil, err
	}

	metrics.ConsentDecisionsTotal.WithLabelValues("granted").Inc()
	s.logger.Info("consent granted",
		zap.String("user_id", userID.String()),
		zap.String("purpose", string(purpose)),
		zap.String("consent_id", record.ConsentID.String()),
	)

	return record, nil
}

// WithdrawConsent withdraws the (userID, purpose) consent. Returns
// (nil, nil) when no record exists. The withdrawal and its audit activity
// are persisted even when the record was not currently granted, so the
// audit trail records the attempt.
func (s *Service) WithdrawConsent(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose) (*entities.ConsentRecord, error) {
	record, err := s.consentRepo.GetByUserAndPurpose(ctx, userID, purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to look up consent: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	record.Withdraw()
	if err := s.consentRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save consent: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}

	if err := s.logConsentActivity(ctx, record, entities.ActivityConsentWithdrawn); err != nil {
		return nil, err
	}

	metrics.ConsentDecisionsTotal.WithLabelValues("withdrawn").Inc()
	s.logger.Info("consent withdrawn",
		zap.String("user_id", userID.String()),
		zap.String("purpose", string(purpose)),
	)

	return record, nil
}

// CheckConsent reports whether the user holds a currently valid consent for
// the purpose that covers the data category. This is a pure read: the
// record is never mutated or persisted, even when expiry is discovered.
func (s *Service) CheckConsent(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) (bool, error) {
	if s.cache != nil {
		if allowed, found := s.cache.Get(ctx, userID, purpose, category); found {
			return allowed, nil
		}
	}

	record, err := s.consentRepo.GetByUserAndPurpose(ctx, userID, purpose)
	if err != nil {
		return false, fmt.Errorf("failed to look up consent: %w", err)
	}

	allowed := record != nil && record.IsValid() && record.CoversCategory(category)

	if s.cache != nil {
		s.cache.Set(ctx, userID, purpose, category, allowed)
	}

	if allowed {
		metrics.ConsentChecksTotal.WithLabelValues("allowed").Inc()
	} else {
		metrics.ConsentChecksTotal.WithLabelValues("denied").Inc()
	}

	return allowed, nil
}

// GetUserConsents returns all consent records for a user
func (s *Service) GetUserConsents(ctx context.Context, userID uuid.UUID) ([]*entities.ConsentRecord, error) {
	return s.consentRepo.GetAllForUser(ctx, userID)
}

// RefreshExpiredConsents transitions truly expired consents to EXPIRED and
// persists them, returning the number of transitions made. This is the only
// path allowed to persist an expiry transition.
func (s *Service) RefreshExpiredConsents(ctx context.Context) (int, error) {
	candidates, err := s.consentRepo.GetExpiredConsents(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired consents: %w", err)
	}

	count := 0
	for _, record := range candidates {
		if !record.IsExpired() {
			continue
		}
		record.Status = entities.ConsentStatusExpired
		if err := s.consentRepo.Save(ctx, record); err != nil {
			return count, fmt.Errorf("failed to save expired consent %s: %w", record.ConsentID, err)
		}
		if s.cache != nil {
			s.cache.InvalidateUser(ctx, record.UserID)
		}
		metrics.ConsentDecisionsTotal.WithLabelValues("expired").Inc()
		count++

		if s.expiryNotifier != nil {
			if err := s.expiryNotifier.NotifyConsentExpired(ctx, record); err != nil {
				metrics.NotificationFailuresTotal.Inc()
				s.logger.Warn("failed to send consent expiry reminder",
					zap.String("user_id", record.UserID.String()),
					zap.String("purpose", string(record.Purpose)),
					zap.Error(err),
				)
			}
		}
	}

	if count > 0 {
		s.logger.Info("expired consents refreshed", zap.Int("count", count))
	}

	return count, nil
}

func (s *Service) logConsentActivity(ctx context.Context, record *entities.ConsentRecord, activityType entities.ActivityType) error {
	activity, err := entities.NewDataProcessingActivity(record.UserID, record.Purpose, record.DataCategories, activityType, "consent_service")
	if err != nil {
		return err
	}
	consentID := record.ConsentID
	activity.ConsentID = &consentID
	activity.LegalBasis = entities.LegalBasisConsent

	if err := s.activityRepo.LogActivity(ctx, activity); err != nil {
		metrics.ActivityLogFailuresTotal.Inc()
		s.logger.Error("failed to log consent activity",
			zap.Error(err),
			zap.String("processing_type", string(activityType)),
			zap.String("user_id", record.UserID.String()),
		)
		return fmt.Errorf("consent persisted but activity logging failed: %w", err)
	}
	return nil
}
