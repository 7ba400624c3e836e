package datasubject

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
	"github.com/lifedash/privacy_service/pkg/metrics"
	"go.uber.org/zap"
)

// TokenIssuer mints signed download tokens for completed exports. Optional.
type TokenIssuer interface {
	Issue(requestID, userID uuid.UUID) (string, error)
}

// Config carries the service's processing policy.
type Config struct {
	// DeleteActivityLogsOnDeletion controls whether a deletion request also
	// erases the user's processing-activity audit trail. Default false: the
	// audit trail survives deletion.
	DeleteActivityLogsOnDeletion bool

	// OverdueDaysLimit is the response deadline used for overdue reporting.
	OverdueDaysLimit int
}

// Service orchestrates the DSAR workflow: creation, atomic claim, identity
// verification, collection/deletion, completion or rejection, audit logging.
type Service struct {
	requestRepo  repositories.DataSubjectRequestRepository
	activityRepo repositories.ProcessingActivityRepository
	collector    DataCollector
	deleter      DataDeleter
	verifier     IdentityVerifier
	notifier     Notifier
	tokens       TokenIssuer
	config       Config
	logger       *zap.Logger
}

// NewService creates a data subject service. verifier, notifier and tokens
// may be nil.
func NewService(
	requestRepo repositories.DataSubjectRequestRepository,
	activityRepo repositories.ProcessingActivityRepository,
	collector DataCollector,
	deleter DataDeleter,
	verifier IdentityVerifier,
	notifier Notifier,
	tokens TokenIssuer,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.OverdueDaysLimit <= 0 {
		config.OverdueDaysLimit = entities.DSARDeadlineDays
	}
	return &Service{
		requestRepo:  requestRepo,
		activityRepo: activityRepo,
		collector:    collector,
		deleter:      deleter,
		verifier:     verifier,
		notifier:     notifier,
		tokens:       tokens,
		config:       config,
		logger:       logger,
	}
}

// CreateDataExportRequest creates a pending export request. An empty
// category set defaults to all categories.
func (s *Service) CreateDataExportRequest(ctx context.Context, userID uuid.UUID, categories entities.CategorySet) (*entities.DataSubjectRequest, error) {
	request, err := entities.NewDataSubjectRequest(userID, entities.RequestTypeExport, categories)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create export request: %w", err)
	}

	metrics.DSARRequestsTotal.WithLabelValues(string(entities.RequestTypeExport), string(entities.RequestStatusPending)).Inc()
	s.logger.Info("data export request created",
		zap.String("request_id", request.RequestID.String()),
		zap.String("user_id", userID.String()),
	)
	return request, nil
}

// CreateDataDeletionRequest creates a pending deletion request covering all
// data categories.
func (s *Service) CreateDataDeletionRequest(ctx context.Context, userID uuid.UUID) (*entities.DataSubjectRequest, error) {
	request, err := entities.NewDataSubjectRequest(userID, entities.RequestTypeDelete, entities.AllCategoriesSet())
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create deletion request: %w", err)
	}

	metrics.DSARRequestsTotal.WithLabelValues(string(entities.RequestTypeDelete), string(entities.RequestStatusPending)).Inc()
	s.logger.Info("data deletion request created",
		zap.String("request_id", request.RequestID.String()),
		zap.String("user_id", userID.String()),
	)
	return request, nil
}

// ProcessExportRequest claims the export request, collects the user's data
// and completes the request, returning the export payload. A collection
// failure rejects the request, logs a failure activity and returns the
// collector's error unchanged.
func (s *Service) ProcessExportRequest(ctx context.Context, requestID, processorID uuid.UUID, verificationMethod string) (map[string]any, error) {
	request, err := s.claim(ctx, requestID, processorID, verificationMethod, entities.RequestTypeExport)
	if err != nil {
		return nil, err
	}

	if err := s.logRequestActivity(ctx, request, entities.ActivityDSARExportStarted, "data_subject_service:export", nil); err != nil {
		return nil, err
	}

	payload, collectErr := s.collector.CollectUserData(ctx, request.UserID, request.DataCategories)
	if collectErr != nil {
		s.failRequest(ctx, request, entities.ActivityDSARExportFailed, "data_subject_service:export", collectErr)
		return nil, collectErr
	}

	request.Complete(fmt.Sprintf("export completed by processor %s", processorID))
	if err := s.requestRepo.Save(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to save completed request: %w", err)
	}

	if err := s.logRequestActivity(ctx, request, entities.ActivityDSARExportCompleted, "data_subject_service:export", nil); err != nil {
		return nil, err
	}

	if s.tokens != nil {
		token, err := s.tokens.Issue(request.RequestID, request.UserID)
		if err != nil {
			s.logger.Warn("failed to issue export download token",
				zap.Error(err),
				zap.String("request_id", request.RequestID.String()),
			)
		} else {
			payload["download_token"] = token
		}
	}

	s.notifyCompleted(ctx, request)
	metrics.DSARRequestsTotal.WithLabelValues(string(entities.RequestTypeExport), string(entities.RequestStatusCompleted)).Inc()
	s.logger.Info("data export request completed",
		zap.String("request_id", request.RequestID.String()),
		zap.String("processor_id", processorID.String()),
	)
	return payload, nil
}

// ProcessDeletionRequest claims the deletion request and erases the user's
// data. Whether the processing-activity audit trail is erased too follows
// the configured policy. A deletion failure rejects the request, logs a
// failure activity and returns the deleter's error unchanged.
func (s *Service) ProcessDeletionRequest(ctx context.Context, requestID, processorID uuid.UUID, verificationMethod string) (bool, error) {
	request, err := s.claim(ctx, requestID, processorID, verificationMethod, entities.RequestTypeDelete)
	if err != nil {
		return false, err
	}

	if err := s.logRequestActivity(ctx, request, entities.ActivityDSARDeletionStarted, "data_subject_service:deletion", nil); err != nil {
		return false, err
	}

	if deleteErr := s.deleter.DeleteUserData(ctx, request.UserID, request.DataCategories, s.config.DeleteActivityLogsOnDeletion); deleteErr != nil {
		s.failRequest(ctx, request, entities.ActivityDSARDeletionFailed, "data_subject_service:deletion", deleteErr)
		return false, deleteErr
	}

	request.Complete(fmt.Sprintf("deletion completed by processor %s", processorID))
	if err := s.requestRepo.Save(ctx, request); err != nil {
		return false, fmt.Errorf("failed to save completed request: %w", err)
	}

	if err := s.logRequestActivity(ctx, request, entities.ActivityDSARDeletionCompleted, "data_subject_service:deletion", nil); err != nil {
		return false, err
	}

	s.notifyCompleted(ctx, request)
	metrics.DSARRequestsTotal.WithLabelValues(string(entities.RequestTypeDelete), string(entities.RequestStatusCompleted)).Inc()
	s.logger.Info("data deletion request completed",
		zap.String("request_id", request.RequestID.String()),
		zap.String("processor_id", processorID.String()),
	)
	return true, nil
}

// GetRequest returns a single request by id.
func (s *Service) GetRequest(ctx context.Context, requestID uuid.UUID) (*entities.DataSubjectRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	return request, nil
}

// GetUserRequests returns all requests filed by a user.
func (s *Service) GetUserRequests(ctx context.Context, userID uuid.UUID) ([]*entities.DataSubjectRequest, error) {
	return s.requestRepo.GetByUserID(ctx, userID)
}

// GetPendingRequests returns requests awaiting processing.
func (s *Service) GetPendingRequests(ctx context.Context) ([]*entities.DataSubjectRequest, error) {
	return s.requestRepo.GetPendingRequests(ctx)
}

// GetOverdueRequests returns non-terminal requests open past the deadline.
func (s *Service) GetOverdueRequests(ctx context.Context) ([]*entities.DataSubjectRequest, error) {
	return s.requestRepo.GetOverdueRequests(ctx, s.config.OverdueDaysLimit)
}

// claim loads and validates the request, verifies identity when needed, and
// performs the atomic pending->processing claim through the repository. A
// lost claim is authoritative: the request is re-fetched once to produce a
// precise state error and the work is never retried here.
func (s *Service) claim(ctx context.Context, requestID, processorID uuid.UUID, verificationMethod string, expectedType entities.RequestType) (*entities.DataSubjectRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}

	if request.RequestType != expectedType {
		return nil, &WrongTypeError{RequestID: requestID, Expected: expectedType, Actual: request.RequestType}
	}

	if request.Status != entities.RequestStatusPending {
		return nil, &RequestStateError{RequestID: requestID, Status: request.Status}
	}

	if !request.IdentityVerified {
		if verificationMethod == "" {
			return nil, ErrVerificationRequired
		}
		if s.verifier != nil {
			if err := s.verifier.VerifyMethod(ctx, request.UserID, verificationMethod); err != nil {
				return nil, fmt.Errorf("identity verification failed: %w", err)
			}
		}
		request.VerifyIdentity(verificationMethod)
		if err := s.requestRepo.Save(ctx, request); err != nil {
			return nil, fmt.Errorf("failed to save verified request: %w", err)
		}
	}

	claimed, err := s.requestRepo.MarkProcessingIfPending(ctx, requestID, processorID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim request: %w", err)
	}
	if claimed == nil {
		metrics.DSARClaimConflictsTotal.Inc()
		current, err := s.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch request after lost claim: %w", err)
		}
		status := entities.RequestStatusProcessing
		if current != nil {
			status = current.Status
		}
		return nil, &RequestStateError{RequestID: requestID, Status: status}
	}

	return claimed, nil
}

// failRequest converts a collaborator failure into a rejected request plus
// a failure audit entry. The caller returns the original error unchanged.
func (s *Service) failRequest(ctx context.Context, request *entities.DataSubjectRequest, activityType entities.ActivityType, contextName string, cause error) {
	request.Reject(cause.Error())
	if err := s.requestRepo.Save(ctx, request); err != nil {
		s.logger.Error("failed to save rejected request",
			zap.Error(err),
			zap.String("request_id", request.RequestID.String()),
		)
	}

	details := map[string]any{"error": cause.Error()}
	if err := s.logRequestActivity(ctx, request, activityType, contextName, details); err != nil {
		s.logger.Error("failed to log request failure activity",
			zap.Error(err),
			zap.String("request_id", request.RequestID.String()),
		)
	}

	s.notifyRejected(ctx, request)
	metrics.DSARRequestsTotal.WithLabelValues(string(request.RequestType), string(entities.RequestStatusRejected)).Inc()
	s.logger.Error("data subject request rejected",
		zap.Error(cause),
		zap.String("request_id", request.RequestID.String()),
	)
}

func (s *Service) logRequestActivity(ctx context.Context, request *entities.DataSubjectRequest, activityType entities.ActivityType, contextName string, details map[string]any) error {
	activity, err := entities.NewDataProcessingActivity(
		request.UserID,
		entities.PurposeCoreFunctionality,
		request.DataCategories,
		activityType,
		contextName,
	)
	if err != nil {
		return err
	}
	activity.LegalBasis = entities.LegalBasisLegalObligation
	activity.RequestID = request.RequestID.String()
	if details != nil {
		activity.Details = details
	}

	if err := s.activityRepo.LogActivity(ctx, activity); err != nil {
		metrics.ActivityLogFailuresTotal.Inc()
		return fmt.Errorf("failed to log request activity: %w", err)
	}
	return nil
}

func (s *Service) notifyCompleted(ctx context.Context, request *entities.DataSubjectRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyRequestCompleted(ctx, request); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		s.logger.Warn("failed to send completion notification",
			zap.Error(err),
			zap.String("request_id", request.RequestID.String()),
		)
	}
}

func (s *Service) notifyRejected(ctx context.Context, request *entities.DataSubjectRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyRequestRejected(ctx, request); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		s.logger.Warn("failed to send rejection notification",
			zap.Error(err),
			zap.String("request_id", request.RequestID.String()),
		)
	}
}
