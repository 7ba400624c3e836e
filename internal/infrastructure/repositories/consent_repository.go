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

// ConsentRepository handles database operations for consent records
type ConsentRepository struct {
	db *sqlx.DB
}

// NewConsentRepository creates a new consent repository
func NewConsentRepository(db *sqlx.DB) *ConsentRepository {
	return &ConsentRepository{db: db}
}

type consentRow struct {
	ConsentID      uuid.UUID      `db:"consent_id"`
	UserID         uuid.UUID      `db:"user_id"`
	Purpose        string         `db:"purpose"`
	DataCategories pq.StringArray `db:"data_categories"`
	Status         string         `db:"status"`
	GrantedAt      *time.Time     `db:"granted_at"`
	WithdrawnAt    *time.Time     `db:"withdrawn_at"`
	ExpiresAt      *time.Time     `db:"expires_at"`
	Version        string         `db:"version"`
	IPAddress      string         `db:"ip_address"`
	UserAgent      string         `db:"user_agent"`
	ConsentMethod  string         `db:"consent_method"`
}

func (row *consentRow) toEntity() (*entities.ConsentRecord, error) {
	categories, err := entities.CategorySetFromValues(row.DataCategories)
	if err != nil {
		return nil, fmt.Errorf("corrupt consent row %s: %w", row.ConsentID, err)
	}
	return &entities.ConsentRecord{
		ConsentID:      row.ConsentID,
		UserID:         row.UserID,
		Purpose:        entities.DataProcessingPurpose(row.Purpose),
		DataCategories: categories,
		Status:         entities.ConsentStatus(row.Status),
		GrantedAt:      row.GrantedAt,
		WithdrawnAt:    row.WithdrawnAt,
		ExpiresAt:      row.ExpiresAt,
		Version:        row.Version,
		IPAddress:      row.IPAddress,
		UserAgent:      row.UserAgent,
		ConsentMethod:  row.ConsentMethod,
	}, nil
}

const consentColumns = `consent_id, user_id, purpose, data_categories, status,
	granted_at, withdrawn_at, expires_at, version, ip_address, user_agent, consent_method`

// GetByUserAndPurpose returns the consent record for (user, purpose), or nil
func (r *ConsentRepository) GetByUserAndPurpose(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose) (*entities.ConsentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM consent_records WHERE user_id = $1 AND purpose = $2`, consentColumns)

	var row consentRow
	if err := r.db.GetContext(ctx, &row, query, userID, string(purpose)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get consent record: %w", err)
	}
	return row.toEntity()
}

// GetAllForUser returns all consent records for a user
func (r *ConsentRepository) GetAllForUser(ctx context.Context, userID uuid.UUID) ([]*entities.ConsentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM consent_records WHERE user_id = $1 ORDER BY purpose`, consentColumns)

	var rows []consentRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list consent records: %w", err)
	}
	return consentRowsToEntities(rows)
}

// Create inserts a new consent record
func (r *ConsentRepository) Create(ctx context.Context, consent *entities.ConsentRecord) error {
	query := `
		INSERT INTO consent_records (consent_id, user_id, purpose, data_categories, status,
			granted_at, withdrawn_at, expires_at, version, ip_address, user_agent, consent_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		consent.ConsentID, consent.UserID, string(consent.Purpose),
		pq.StringArray(consent.DataCategories.Values()), string(consent.Status),
		consent.GrantedAt, consent.WithdrawnAt, consent.ExpiresAt,
		consent.Version, consent.IPAddress, consent.UserAgent, consent.ConsentMethod,
	)
	if err != nil {
		return fmt.Errorf("failed to create consent record: %w", err)
	}
	return nil
}

// Save updates an existing consent record
func (r *ConsentRepository) Save(ctx context.Context, consent *entities.ConsentRecord) error {
	query := `
		UPDATE consent_records
		SET data_categories = $2, status = $3, granted_at = $4, withdrawn_at = $5,
		    expires_at = $6, version = $7, ip_address = $8, user_agent = $9, consent_method = $10
		WHERE consent_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		consent.ConsentID, pq.StringArray(consent.DataCategories.Values()), string(consent.Status),
		consent.GrantedAt, consent.WithdrawnAt, consent.ExpiresAt,
		consent.Version, consent.IPAddress, consent.UserAgent, consent.ConsentMethod,
	)
	if err != nil {
		return fmt.Errorf("failed to save consent record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("consent record %s not found", consent.ConsentID)
	}
	return nil
}

// GetExpiredConsents returns granted consents whose expiry has passed
func (r *ConsentRepository) GetExpiredConsents(ctx context.Context) ([]*entities.ConsentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM consent_records
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < NOW()
	`, consentColumns)

	var rows []consentRow
	if err := r.db.SelectContext(ctx, &rows, query, string(entities.ConsentStatusGranted)); err != nil {
		return nil, fmt.Errorf("failed to list expired consents: %w", err)
	}
	return consentRowsToEntities(rows)
}

// DeleteByUser removes all consent records for a user, returning the count
func (r *ConsentRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM consent_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete consent records: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted consent records: %w", err)
	}
	return affected, nil
}

func consentRowsToEntities(rows []consentRow) ([]*entities.ConsentRecord, error) {
	records := make([]*entities.ConsentRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
