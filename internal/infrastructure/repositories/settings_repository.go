package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// SettingsRepository handles database operations for privacy settings
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new privacy settings repository
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

type settingsRow struct {
	UserID                  uuid.UUID `db:"user_id"`
	RetentionPreferences    []byte    `db:"retention_preferences"`
	AnalyticsEnabled        bool      `db:"analytics_enabled"`
	AIInsightsEnabled       bool      `db:"ai_insights_enabled"`
	SocialFeaturesEnabled   bool      `db:"social_features_enabled"`
	MarketingEnabled        bool      `db:"marketing_enabled"`
	AchievementSharing      string    `db:"achievement_sharing"`
	ProgressSharing         string    `db:"progress_sharing"`
	ProfileVisibility       string    `db:"profile_visibility"`
	ExportFormat            string    `db:"export_format"`
	IncludeDerivedData      bool      `db:"include_derived_data"`
	PrivacyNotifications    bool      `db:"privacy_notifications"`
	ConsentReminders        bool      `db:"consent_reminders"`
	DataBreachNotifications bool      `db:"data_breach_notifications"`
	DifferentialPrivacy     bool      `db:"differential_privacy"`
	DataMinimization        bool      `db:"data_minimization"`
	Pseudonymization        bool      `db:"pseudonymization"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

const settingsColumns = `user_id, retention_preferences, analytics_enabled, ai_insights_enabled,
	social_features_enabled, marketing_enabled, achievement_sharing, progress_sharing,
	profile_visibility, export_format, include_derived_data, privacy_notifications,
	consent_reminders, data_breach_notifications, differential_privacy, data_minimization,
	pseudonymization, created_at, updated_at`

func (row *settingsRow) toEntity() (*entities.PrivacySettings, error) {
	settings := &entities.PrivacySettings{
		UserID:                  row.UserID,
		AnalyticsEnabled:        row.AnalyticsEnabled,
		AIInsightsEnabled:       row.AIInsightsEnabled,
		SocialFeaturesEnabled:   row.SocialFeaturesEnabled,
		MarketingEnabled:        row.MarketingEnabled,
		AchievementSharing:      entities.SharingLevel(row.AchievementSharing),
		ProgressSharing:         entities.SharingLevel(row.ProgressSharing),
		ProfileVisibility:       entities.SharingLevel(row.ProfileVisibility),
		ExportFormat:            entities.ExportFormat(row.ExportFormat),
		IncludeDerivedData:      row.IncludeDerivedData,
		PrivacyNotifications:    row.PrivacyNotifications,
		ConsentReminders:        row.ConsentReminders,
		DataBreachNotifications: row.DataBreachNotifications,
		DifferentialPrivacy:     row.DifferentialPrivacy,
		DataMinimization:        row.DataMinimization,
		Pseudonymization:        row.Pseudonymization,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}
	if len(row.RetentionPreferences) > 0 {
		if err := json.Unmarshal(row.RetentionPreferences, &settings.RetentionPreferences); err != nil {
			return nil, fmt.Errorf("corrupt retention preferences for user %s: %w", row.UserID, err)
		}
	}
	return settings, nil
}

// GetByUserID returns a user's settings row, or nil when none exists. Never
// creates one; lazy creation is a service-level decision.
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.PrivacySettings, error) {
	query := fmt.Sprintf(`SELECT %s FROM privacy_settings WHERE user_id = $1`, settingsColumns)

	var row settingsRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get privacy settings: %w", err)
	}
	return row.toEntity()
}

// Create inserts a new settings row
func (r *SettingsRepository) Create(ctx context.Context, settings *entities.PrivacySettings) error {
	preferences, err := encodeRetentionPreferences(settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO privacy_settings (user_id, retention_preferences, analytics_enabled,
			ai_insights_enabled, social_features_enabled, marketing_enabled,
			achievement_sharing, progress_sharing, profile_visibility, export_format,
			include_derived_data, privacy_notifications, consent_reminders,
			data_breach_notifications, differential_privacy, data_minimization,
			pseudonymization, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = r.db.ExecContext(ctx, query,
		settings.UserID, preferences, settings.AnalyticsEnabled,
		settings.AIInsightsEnabled, settings.SocialFeaturesEnabled, settings.MarketingEnabled,
		string(settings.AchievementSharing), string(settings.ProgressSharing),
		string(settings.ProfileVisibility), string(settings.ExportFormat),
		settings.IncludeDerivedData, settings.PrivacyNotifications, settings.ConsentReminders,
		settings.DataBreachNotifications, settings.DifferentialPrivacy, settings.DataMinimization,
		settings.Pseudonymization, settings.CreatedAt, settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create privacy settings: %w", err)
	}
	return nil
}

// Save updates an existing settings row
func (r *SettingsRepository) Save(ctx context.Context, settings *entities.PrivacySettings) error {
	preferences, err := encodeRetentionPreferences(settings)
	if err != nil {
		return err
	}

	query := `
		UPDATE privacy_settings
		SET retention_preferences = $2, analytics_enabled = $3, ai_insights_enabled = $4,
		    social_features_enabled = $5, marketing_enabled = $6, achievement_sharing = $7,
		    progress_sharing = $8, profile_visibility = $9, export_format = $10,
		    include_derived_data = $11, privacy_notifications = $12, consent_reminders = $13,
		    data_breach_notifications = $14, differential_privacy = $15, data_minimization = $16,
		    pseudonymization = $17, updated_at = $18
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		settings.UserID, preferences, settings.AnalyticsEnabled, settings.AIInsightsEnabled,
		settings.SocialFeaturesEnabled, settings.MarketingEnabled,
		string(settings.AchievementSharing), string(settings.ProgressSharing),
		string(settings.ProfileVisibility), string(settings.ExportFormat),
		settings.IncludeDerivedData, settings.PrivacyNotifications, settings.ConsentReminders,
		settings.DataBreachNotifications, settings.DifferentialPrivacy, settings.DataMinimization,
		settings.Pseudonymization, settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save privacy settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("privacy settings for user %s not found", settings.UserID)
	}
	return nil
}

// DeleteByUser removes a user's settings row, reporting whether one existed
func (r *SettingsRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM privacy_settings WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete privacy settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}

func encodeRetentionPreferences(settings *entities.PrivacySettings) ([]byte, error) {
	if settings.RetentionPreferences == nil {
		return []byte("{}"), nil
	}
	preferences, err := json.Marshal(settings.RetentionPreferences)
	if err != nil {
		return nil, fmt.Errorf("failed to encode retention preferences: %w", err)
	}
	return preferences, nil
}
