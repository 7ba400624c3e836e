package datasubject

import (
	"context"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// DataCollector gathers a user's data for an export, scoped to the
// requested categories. The payload keys are category values.
type DataCollector interface {
	CollectUserData(ctx context.Context, userID uuid.UUID, categories entities.CategorySet) (map[string]any, error)
}

// DataDeleter erases a user's data for a deletion request. deleteActivities
// controls whether the processing-activity audit trail is erased too.
type DataDeleter interface {
	DeleteUserData(ctx context.Context, userID uuid.UUID, categories entities.CategorySet, deleteActivities bool) error
}

// IdentityVerifier validates a verification method before it is recorded on
// a request. Implementations may check TOTP codes, emailed one-time codes,
// or simply accept a trusted method name.
type IdentityVerifier interface {
	VerifyMethod(ctx context.Context, userID uuid.UUID, method string) error
}

// Notifier informs the data subject about request lifecycle events. A nil
// notifier disables notifications; delivery failures never fail a request.
type Notifier interface {
	NotifyRequestCompleted(ctx context.Context, request *entities.DataSubjectRequest) error
	NotifyRequestRejected(ctx context.Context, request *entities.DataSubjectRequest) error
}
