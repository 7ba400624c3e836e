package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
)

// ActivityRepository handles database operations for the append-only
// processing-activity audit log. Rows are inserted and queried, never
// updated.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type activityRow struct {
	ActivityID     uuid.UUID      `db:"activity_id"`
	UserID         uuid.UUID      `db:"user_id"`
	Purpose        string         `db:"purpose"`
	DataCategories pq.StringArray `db:"data_categories"`
	ProcessingType string         `db:"processing_type"`
	Timestamp      time.Time      `db:"timestamp"`
	Context        string         `db:"context"`
	RequestID      string         `db:"request_id"`
	SessionID      string         `db:"session_id"`
	LegalBasis     string         `db:"legal_basis"`
	ConsentID      *uuid.UUID     `db:"consent_id"`
	Details        []byte         `db:"details"`
}

func (row *activityRow) toEntity() (*entities.DataProcessingActivity, error) {
	categories, err := entities.CategorySetFromValues(row.DataCategories)
	if err != nil {
		return nil, fmt.Errorf("corrupt activity row %s: %w", row.ActivityID, err)
	}

	activity := &entities.DataProcessingActivity{
		ActivityID:     row.ActivityID,
		UserID:         row.UserID,
		Purpose:        entities.DataProcessingPurpose(row.Purpose),
		DataCategories: categories,
		ProcessingType: entities.ActivityType(row.ProcessingType),
		Timestamp:      row.Timestamp,
		Context:        row.Context,
		RequestID:      row.RequestID,
		SessionID:      row.SessionID,
		LegalBasis:     entities.LegalBasis(row.LegalBasis),
		ConsentID:      row.ConsentID,
	}
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &activity.Details); err != nil {
			return nil, fmt.Errorf("corrupt activity details %s: %w", row.ActivityID, err)
		}
	}
	return activity, nil
}

const activityColumns = `activity_id, user_id, purpose, data_categories, processing_type,
	timestamp, context, request_id, session_id, legal_basis, consent_id, details`

// LogActivity appends one activity to the audit log
func (r *ActivityRepository) LogActivity(ctx context.Context, activity *entities.DataProcessingActivity) error {
	var details []byte
	if activity.Details != nil {
		encoded, err := json.Marshal(activity.Details)
		if err != nil {
			return fmt.Errorf("failed to encode activity details: %w", err)
		}
		details = encoded
	}

	query := `
		INSERT INTO processing_activities (activity_id, user_id, purpose, data_categories,
			processing_type, timestamp, context, request_id, session_id, legal_basis, consent_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		activity.ActivityID, activity.UserID, string(activity.Purpose),
		pq.StringArray(activity.DataCategories.Values()), string(activity.ProcessingType),
		activity.Timestamp, activity.Context, activity.RequestID, activity.SessionID,
		string(activity.LegalBasis), activity.ConsentID, details,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// GetActivitiesForUser returns a user's activities, newest first. limit <= 0
// means no limit.
func (r *ActivityRepository) GetActivitiesForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.DataProcessingActivity, error) {
	query := fmt.Sprintf(`SELECT %s FROM processing_activities WHERE user_id = $1 ORDER BY timestamp DESC`, activityColumns)
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []activityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list user activities: %w", err)
	}
	return activityRowsToEntities(rows)
}

// GetActivitiesByPurpose returns activities for a purpose within a time window
func (r *ActivityRepository) GetActivitiesByPurpose(ctx context.Context, purpose entities.DataProcessingPurpose, start, end time.Time) ([]*entities.DataProcessingActivity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM processing_activities
		WHERE purpose = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC
	`, activityColumns)

	var rows []activityRow
	if err := r.db.SelectContext(ctx, &rows, query, string(purpose), start, end); err != nil {
		return nil, fmt.Errorf("failed to list activities by purpose: %w", err)
	}
	return activityRowsToEntities(rows)
}

// GetActivitiesByContext returns activities logged from a context within a time window
func (r *ActivityRepository) GetActivitiesByContext(ctx context.Context, activityContext string, start, end time.Time) ([]*entities.DataProcessingActivity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM processing_activities
		WHERE context = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC
	`, activityColumns)

	var rows []activityRow
	if err := r.db.SelectContext(ctx, &rows, query, activityContext, start, end); err != nil {
		return nil, fmt.Errorf("failed to list activities by context: %w", err)
	}
	return activityRowsToEntities(rows)
}

// DeleteActivitiesForUser erases a user's audit trail, returning the count.
// Only invoked when the deletion policy explicitly includes activity logs.
func (r *ActivityRepository) DeleteActivitiesForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM processing_activities WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user activities: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted activities: %w", err)
	}
	return affected, nil
}

// GetActivitySummary aggregates a user's activity counts over the last N days
func (r *ActivityRepository) GetActivitySummary(ctx context.Context, userID uuid.UUID, days int) (*repositories.ActivitySummary, error) {
	summary := &repositories.ActivitySummary{
		UserID:           userID,
		PeriodDays:       days,
		ByPurpose:        make(map[string]int64),
		ByProcessingType: make(map[string]int64),
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	totalsQuery := `
		SELECT COUNT(*) AS total, MIN(timestamp) AS first_activity, MAX(timestamp) AS last_activity
		FROM processing_activities
		WHERE user_id = $1 AND timestamp >= $2
	`
	var totals struct {
		Total         int64        `db:"total"`
		FirstActivity sql.NullTime `db:"first_activity"`
		LastActivity  sql.NullTime `db:"last_activity"`
	}
	if err := r.db.GetContext(ctx, &totals, totalsQuery, userID, cutoff); err != nil {
		return nil, fmt.Errorf("failed to summarize activities: %w", err)
	}
	summary.TotalActivities = totals.Total
	if totals.FirstActivity.Valid {
		first := totals.FirstActivity.Time
		summary.FirstActivity = &first
	}
	if totals.LastActivity.Valid {
		last := totals.LastActivity.Time
		summary.LastActivity = &last
	}

	groupQuery := `
		SELECT purpose, processing_type, COUNT(*) AS count
		FROM processing_activities
		WHERE user_id = $1 AND timestamp >= $2
		GROUP BY purpose, processing_type
	`
	var groups []struct {
		Purpose        string `db:"purpose"`
		ProcessingType string `db:"processing_type"`
		Count          int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &groups, groupQuery, userID, cutoff); err != nil {
		return nil, fmt.Errorf("failed to group activities: %w", err)
	}
	for _, group := range groups {
		summary.ByPurpose[group.Purpose] += group.Count
		summary.ByProcessingType[group.ProcessingType] += group.Count
	}

	return summary, nil
}

func activityRowsToEntities(rows []activityRow) ([]*entities.DataProcessingActivity, error) {
	activities := make([]*entities.DataProcessingActivity, 0, len(rows))
	for i := range rows {
		activity, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, nil
}
