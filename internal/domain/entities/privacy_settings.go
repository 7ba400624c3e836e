package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SharingLevel controls who can see a piece of user content
type SharingLevel string

const (
	SharingPrivate SharingLevel = "private"
	SharingFriends SharingLevel = "friends"
	SharingPublic  SharingLevel = "public"
)

// IsValid checks if the level is a defined sharing level
func (l SharingLevel) IsValid() bool {
	return l == SharingPrivate || l == SharingFriends || l == SharingPublic
}

// ExportFormat is the user's preferred data export format
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXML  ExportFormat = "xml"
)

// IsValid checks if the format is a defined export format
func (f ExportFormat) IsValid() bool {
	return f == ExportFormatJSON || f == ExportFormatCSV || f == ExportFormatXML
}

// PrivacySettings holds one user's privacy preferences: feature toggles,
// sharing levels per content type, retention preferences and notification
// options. Created lazily with privacy-friendly defaults the first time a
// service needs them.
type PrivacySettings struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	// Data retention preferences
	RetentionPreferences map[DataCategory]RetentionPeriod `json:"retention_preferences" db:"retention_preferences"`

	// Feature-specific toggles
	AnalyticsEnabled      bool `json:"analytics_enabled" db:"analytics_enabled"`
	AIInsightsEnabled     bool `json:"ai_insights_enabled" db:"ai_insights_enabled"`
	SocialFeaturesEnabled bool `json:"social_features_enabled" db:"social_features_enabled"`
	MarketingEnabled      bool `json:"marketing_enabled" db:"marketing_enabled"`

	// Sharing preferences
	AchievementSharing SharingLevel `json:"achievement_sharing" db:"achievement_sharing"`
	ProgressSharing    SharingLevel `json:"progress_sharing" db:"progress_sharing"`
	ProfileVisibility  SharingLevel `json:"profile_visibility" db:"profile_visibility"`

	// Data export preferences
	ExportFormat       ExportFormat `json:"export_format" db:"export_format"`
	IncludeDerivedData bool         `json:"include_derived_data" db:"include_derived_data"`

	// Notification preferences
	PrivacyNotifications     bool `json:"privacy_notifications" db:"privacy_notifications"`
	ConsentReminders         bool `json:"consent_reminders" db:"consent_reminders"`
	DataBreachNotifications  bool `json:"data_breach_notifications" db:"data_breach_notifications"`

	// Advanced settings
	DifferentialPrivacy bool `json:"differential_privacy" db:"differential_privacy"`
	DataMinimization    bool `json:"data_minimization" db:"data_minimization"`
	Pseudonymization    bool `json:"pseudonymization" db:"pseudonymization"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewDefaultPrivacySettings creates settings with privacy-friendly
// defaults: every data-sharing feature off, all sharing private,
// notifications and data-minimization protections on.
func NewDefaultPrivacySettings(userID uuid.UUID) *PrivacySettings {
	now := time.Now().UTC()
	return &PrivacySettings{
		UserID:               userID,
		RetentionPreferences: make(map[DataCategory]RetentionPeriod),

		AnalyticsEnabled:      false,
		AIInsightsEnabled:     false,
		SocialFeaturesEnabled: false,
		MarketingEnabled:      false,

		AchievementSharing: SharingPrivate,
		ProgressSharing:    SharingPrivate,
		ProfileVisibility:  SharingPrivate,

		ExportFormat:       ExportFormatJSON,
		IncludeDerivedData: true,

		PrivacyNotifications:    true,
		ConsentReminders:        true,
		DataBreachNotifications: true,

		DifferentialPrivacy: true,
		DataMinimization:    true,
		Pseudonymization:    true,

		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateSetting applies a single named setting. Unknown names and values of
// the wrong type fail without partial application.
func (p *PrivacySettings) UpdateSetting(name string, value any) error {
	switch name {
	case "analytics_enabled":
		return p.setBool(&p.AnalyticsEnabled, name, value)
	case "ai_insights_enabled":
		return p.setBool(&p.AIInsightsEnabled, name, value)
	case "social_features_enabled":
		return p.setBool(&p.SocialFeaturesEnabled, name, value)
	case "marketing_enabled":
		return p.setBool(&p.MarketingEnabled, name, value)
	case "include_derived_data":
		return p.setBool(&p.IncludeDerivedData, name, value)
	case "privacy_notifications":
		return p.setBool(&p.PrivacyNotifications, name, value)
	case "consent_reminders":
		return p.setBool(&p.ConsentReminders, name, value)
	case "data_breach_notifications":
		return p.setBool(&p.DataBreachNotifications, name, value)
	case "differential_privacy":
		return p.setBool(&p.DifferentialPrivacy, name, value)
	case "data_minimization":
		return p.setBool(&p.DataMinimization, name, value)
	case "pseudonymization":
		return p.setBool(&p.Pseudonymization, name, value)
	case "achievement_sharing":
		return p.setSharingLevel(&p.AchievementSharing, name, value)
	case "progress_sharing":
		return p.setSharingLevel(&p.ProgressSharing, name, value)
	case "profile_visibility":
		return p.setSharingLevel(&p.ProfileVisibility, name, value)
	case "export_format":
		format, ok := toExportFormat(value)
		if !ok {
			return fmt.Errorf("invalid value for setting %s: %v", name, value)
		}
		p.ExportFormat = format
		p.touch()
		return nil
	default:
		return fmt.Errorf("unknown privacy setting: %s", name)
	}
}

func (p *PrivacySettings) setBool(field *bool, name string, value any) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("setting %s requires a boolean value, got %T", name, value)
	}
	*field = b
	p.touch()
	return nil
}

func (p *PrivacySettings) setSharingLevel(field *SharingLevel, name string, value any) error {
	level, ok := toSharingLevel(value)
	if !ok {
		return fmt.Errorf("invalid value for setting %s: %v", name, value)
	}
	*field = level
	p.touch()
	return nil
}

func toSharingLevel(value any) (SharingLevel, bool) {
	switch v := value.(type) {
	case SharingLevel:
		return v, v.IsValid()
	case string:
		level := SharingLevel(v)
		return level, level.IsValid()
	}
	return "", false
}

func toExportFormat(value any) (ExportFormat, bool) {
	switch v := value.(type) {
	case ExportFormat:
		return v, v.IsValid()
	case string:
		format := ExportFormat(v)
		return format, format.IsValid()
	}
	return "", false
}

func (p *PrivacySettings) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// SetRetentionPreference records the retention period for a data category
func (p *PrivacySettings) SetRetentionPreference(category DataCategory, period RetentionPeriod) error {
	if !category.IsValid() {
		return fmt.Errorf("invalid data category: %s", category)
	}
	if !period.IsValid() {
		return fmt.Errorf("invalid retention period: %s", period)
	}
	if p.RetentionPreferences == nil {
		p.RetentionPreferences = make(map[DataCategory]RetentionPeriod)
	}
	p.RetentionPreferences[category] = period
	p.touch()
	return nil
}

// GetRetentionPeriod returns the retention period for a data category,
// defaulting to one year when no preference is set.
func (p *PrivacySettings) GetRetentionPeriod(category DataCategory) RetentionPeriod {
	if period, ok := p.RetentionPreferences[category]; ok {
		return period
	}
	return RetentionYear1
}

// IsFeatureEnabled reports whether a privacy-sensitive feature is enabled.
// Unknown features are disabled.
func (p *PrivacySettings) IsFeatureEnabled(feature string) bool {
	switch feature {
	case "analytics":
		return p.AnalyticsEnabled
	case "ai_insights":
		return p.AIInsightsEnabled
	case "social_features":
		return p.SocialFeaturesEnabled
	case "marketing":
		return p.MarketingEnabled
	}
	return false
}

// GetSharingLevel returns the sharing level for a content type, defaulting
// to private for unknown content types.
func (p *PrivacySettings) GetSharingLevel(contentType string) SharingLevel {
	switch contentType {
	case "achievements":
		return p.AchievementSharing
	case "progress":
		return p.ProgressSharing
	case "profile":
		return p.ProfileVisibility
	}
	return SharingPrivate
}

// ToMap converts the settings to a JSON-serializable map
func (p *PrivacySettings) ToMap() map[string]any {
	retention := make(map[string]string, len(p.RetentionPreferences))
	for category, period := range p.RetentionPreferences {
		retention[string(category)] = string(period)
	}
	return map[string]any{
		"user_id":                   p.UserID.String(),
		"retention_preferences":     retention,
		"analytics_enabled":         p.AnalyticsEnabled,
		"ai_insights_enabled":       p.AIInsightsEnabled,
		"social_features_enabled":   p.SocialFeaturesEnabled,
		"marketing_enabled":         p.MarketingEnabled,
		"achievement_sharing":       string(p.AchievementSharing),
		"progress_sharing":          string(p.ProgressSharing),
		"profile_visibility":        string(p.ProfileVisibility),
		"export_format":             string(p.ExportFormat),
		"include_derived_data":      p.IncludeDerivedData,
		"privacy_notifications":     p.PrivacyNotifications,
		"consent_reminders":         p.ConsentReminders,
		"data_breach_notifications": p.DataBreachNotifications,
		"differential_privacy":      p.DifferentialPrivacy,
		"data_minimization":         p.DataMinimization,
		"pseudonymization":          p.Pseudonymization,
		"created_at":                p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":                p.UpdatedAt.Format(time.RFC3339Nano),
	}
}
