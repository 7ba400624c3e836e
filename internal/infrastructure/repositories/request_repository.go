package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// RequestRepository handles database operations for data subject requests
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository creates a new data subject request repository
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

type requestRow struct {
	RequestID          uuid.UUID      `db:"request_id"`
	UserID             uuid.UUID      `db:"user_id"`
	RequestType        string         `db:"request_type"`
	Status             string         `db:"status"`
	RequestedAt        time.Time      `db:"requested_at"`
	CompletedAt        *time.Time     `db:"completed_at"`
	DataCategories     pq.StringArray `db:"data_categories"`
	ProcessorID        *uuid.UUID     `db:"processor_id"`
	ProcessingNotes    string         `db:"processing_notes"`
	RejectionReason    string         `db:"rejection_reason"`
	IdentityVerified   bool           `db:"identity_verified"`
	VerificationMethod string         `db:"verification_method"`
}

func (row *requestRow) toEntity() (*entities.DataSubjectRequest, error) {
	categories, err := entities.CategorySetFromValues(row.DataCategories)
	if err != nil {
		return nil, fmt.Errorf("corrupt request row %s: %w", row.RequestID, err)
	}
	return &entities.DataSubjectRequest{
		RequestID:          row.RequestID,
		UserID:             row.UserID,
		RequestType:        entities.RequestType(row.RequestType),
		Status:             entities.RequestStatus(row.Status),
		RequestedAt:        row.RequestedAt,
		CompletedAt:        row.CompletedAt,
		DataCategories:     categories,
		ProcessorID:        row.ProcessorID,
		ProcessingNotes:    row.ProcessingNotes,
		RejectionReason:    row.RejectionReason,
		IdentityVerified:   row.IdentityVerified,
		VerificationMethod: row.VerificationMethod,
	}, nil
}

const requestColumns = `request_id, user_id, request_type, status, requested_at, completed_at,
	data_categories, processor_id, processing_notes, rejection_reason, identity_verified,
	verification_method`

// Create inserts a new request
func (r *RequestRepository) Create(ctx context.Context, request *entities.DataSubjectRequest) error {
	query := `
		INSERT INTO data_subject_requests (request_id, user_id, request_type, status,
			requested_at, completed_at, data_categories, processor_id, processing_notes,
			rejection_reason, identity_verified, verification_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		request.RequestID, request.UserID, string(request.RequestType), string(request.Status),
		request.RequestedAt, request.CompletedAt, pq.StringArray(request.DataCategories.Values()),
		request.ProcessorID, request.ProcessingNotes, request.RejectionReason,
		request.IdentityVerified, request.VerificationMethod,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetByID returns a request by id, or nil when not found
func (r *RequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*entities.DataSubjectRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM data_subject_requests WHERE request_id = $1`, requestColumns)

	var row requestRow
	if err := r.db.GetContext(ctx, &row, query, requestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return row.toEntity()
}

// GetByUserID returns all requests filed by a user, oldest first
func (r *RequestRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.DataSubjectRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM data_subject_requests WHERE user_id = $1 ORDER BY requested_at`, requestColumns)

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user requests: %w", err)
	}
	return requestRowsToEntities(rows)
}

// Save updates an existing request
func (r *RequestRepository) Save(ctx context.Context, request *entities.DataSubjectRequest) error {
	query := `
		UPDATE data_subject_requests
		SET status = $2, completed_at = $3, data_categories = $4, processor_id = $5,
		    processing_notes = $6, rejection_reason = $7, identity_verified = $8,
		    verification_method = $9
		WHERE request_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		request.RequestID, string(request.Status), request.CompletedAt,
		pq.StringArray(request.DataCategories.Values()), request.ProcessorID,
		request.ProcessingNotes, request.RejectionReason,
		request.IdentityVerified, request.VerificationMethod,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s not found", request.RequestID)
	}
	return nil
}

// GetPendingRequests returns all pending requests, oldest first
func (r *RequestRepository) GetPendingRequests(ctx context.Context) ([]*entities.DataSubjectRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM data_subject_requests WHERE status = $1 ORDER BY requested_at`, requestColumns)

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, string(entities.RequestStatusPending)); err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requestRowsToEntities(rows)
}

// GetOverdueRequests returns non-terminal requests older than the deadline
func (r *RequestRepository) GetOverdueRequests(ctx context.Context, daysLimit int) ([]*entities.DataSubjectRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM data_subject_requests
		WHERE status IN ($1, $2) AND requested_at < $3
		ORDER BY requested_at
	`, requestColumns)
	deadline := time.Now().UTC().AddDate(0, 0, -daysLimit)

	var rows []requestRow
	err := r.db.SelectContext(ctx, &rows, query,
		string(entities.RequestStatusPending), string(entities.RequestStatusProcessing), deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue requests: %w", err)
	}
	return requestRowsToEntities(rows)
}

// DeleteCompletedRequests removes terminal requests completed more than
// olderThanDays ago, returning the count
func (r *RequestRepository) DeleteCompletedRequests(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	query := `
		DELETE FROM data_subject_requests
		WHERE status IN ($1, $2) AND completed_at IS NOT NULL AND completed_at < $3
	`
	result, err := r.db.ExecContext(ctx, query,
		string(entities.RequestStatusCompleted), string(entities.RequestStatusRejected), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed requests: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted requests: %w", err)
	}
	return affected, nil
}

// MarkProcessingIfPending atomically claims a pending request for a
// processor with a conditional update. Returns (nil, nil) when the claim is
// lost because the request is no longer pending.
func (r *RequestRepository) MarkProcessingIfPending(ctx context.Context, requestID, processorID uuid.UUID) (*entities.DataSubjectRequest, error) {
	query := fmt.Sprintf(`
		UPDATE data_subject_requests
		SET status = $3, processor_id = $2
		WHERE request_id = $1 AND status = $4
		RETURNING %s
	`, requestColumns)

	var row requestRow
	err := r.db.GetContext(ctx, &row, query, requestID, processorID,
		string(entities.RequestStatusProcessing), string(entities.RequestStatusPending))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim request: %w", err)
	}
	return row.toEntity()
}

func requestRowsToEntities(rows []requestRow) ([]*entities.DataSubjectRequest, error) {
	requests := make([]*entities.DataSubjectRequest, 0, len(rows))
	for i := range rows {
		request, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}
