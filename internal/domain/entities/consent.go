package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConsentStatus represents the status of a user's consent for a purpose
type ConsentStatus string

const (
	ConsentStatusGranted   ConsentStatus = "granted"
	ConsentStatusDenied    ConsentStatus = "denied"
	ConsentStatusWithdrawn ConsentStatus = "withdrawn"
	ConsentStatusExpired   ConsentStatus = "expired"
	ConsentStatusPending   ConsentStatus = "pending"
)

// ValidConsentStatuses contains all valid consent statuses
var ValidConsentStatuses = map[ConsentStatus]bool{
	ConsentStatusGranted:   true,
	ConsentStatusDenied:    true,
	ConsentStatusWithdrawn: true,
	ConsentStatusExpired:   true,
	ConsentStatusPending:   true,
}

// IsValid checks if the status is a valid consent status
func (s ConsentStatus) IsValid() bool {
	return ValidConsentStatuses[s]
}

// DataProcessingPurpose represents a purpose for which personal data can be processed
type DataProcessingPurpose string

const (
	PurposeCoreFunctionality    DataProcessingPurpose = "core_functionality"
	PurposeAnalytics            DataProcessingPurpose = "analytics"
	PurposeAIInsights           DataProcessingPurpose = "ai_insights"
	PurposeSocialFeatures       DataProcessingPurpose = "social_features"
	PurposeMarketing            DataProcessingPurpose = "marketing"
	PurposeResearch             DataProcessingPurpose = "research"
	PurposeExternalIntegrations DataProcessingPurpose = "external_integrations"
)

// AllDataProcessingPurposes returns every defined processing purpose
func AllDataProcessingPurposes() []DataProcessingPurpose {
	return []DataProcessingPurpose{
		PurposeCoreFunctionality,
		PurposeAnalytics,
		PurposeAIInsights,
		PurposeSocialFeatures,
		PurposeMarketing,
		PurposeResearch,
		PurposeExternalIntegrations,
	}
}

// IsValid checks if the purpose is a defined processing purpose
func (p DataProcessingPurpose) IsValid() bool {
	switch p {
	case PurposeCoreFunctionality, PurposeAnalytics, PurposeAIInsights,
		PurposeSocialFeatures, PurposeMarketing, PurposeResearch,
		PurposeExternalIntegrations:
		return true
	}
	return false
}

// ExpiresAutomatically reports whether consent for this purpose carries an
// automatic expiry when granted. Marketing and research consents expire one
// year after the grant; all other purposes stay valid until withdrawn.
func (p DataProcessingPurpose) ExpiresAutomatically() bool {
	return p == PurposeMarketing || p == PurposeResearch
}

// DataCategory represents a category of personal data
type DataCategory string

const (
	CategoryBasicProfile DataCategory = "basic_profile"
	CategoryBehavioral   DataCategory = "behavioral"
	CategoryHealth       DataCategory = "health"
	CategoryFinancial    DataCategory = "financial"
	CategorySocial       DataCategory = "social"
	CategoryLocation     DataCategory = "location"
	CategoryBiometric    DataCategory = "biometric"
	CategorySensitive    DataCategory = "sensitive"
)

// AllDataCategories returns every defined data category
func AllDataCategories() []DataCategory {
	return []DataCategory{
		CategoryBasicProfile,
		CategoryBehavioral,
		CategoryHealth,
		CategoryFinancial,
		CategorySocial,
		CategoryLocation,
		CategoryBiometric,
		CategorySensitive,
	}
}

// IsValid checks if the category is a defined data category
func (c DataCategory) IsValid() bool {
	switch c {
	case CategoryBasicProfile, CategoryBehavioral, CategoryHealth,
		CategoryFinancial, CategorySocial, CategoryLocation,
		CategoryBiometric, CategorySensitive:
		return true
	}
	return false
}

// RetentionPeriod represents how long data of a category is retained
type RetentionPeriod string

const (
	RetentionSession    RetentionPeriod = "session"
	RetentionDays30     RetentionPeriod = "30_days"
	RetentionDays90     RetentionPeriod = "90_days"
	RetentionMonths6    RetentionPeriod = "6_months"
	RetentionYear1      RetentionPeriod = "1_year"
	RetentionYears2     RetentionPeriod = "2_years"
	RetentionYears5     RetentionPeriod = "5_years"
	RetentionIndefinite RetentionPeriod = "indefinite"
)

// IsValid checks if the period is a defined retention period
func (r RetentionPeriod) IsValid() bool {
	switch r {
	case RetentionSession, RetentionDays30, RetentionDays90, RetentionMonths6,
		RetentionYear1, RetentionYears2, RetentionYears5, RetentionIndefinite:
		return true
	}
	return false
}

// ConsentExpiryDays is the automatic expiry horizon for marketing and
// research consents.
const ConsentExpiryDays = 365

// ConsentRecord tracks one (user, purpose) consent decision with its scope,
// expiry and audit metadata. The service layer enforces exactly one current
// record per (user, purpose) via lookup-then-update-or-create.
type ConsentRecord struct {
	ConsentID      uuid.UUID             `json:"consent_id" db:"consent_id"`
	UserID         uuid.UUID             `json:"user_id" db:"user_id"`
	Purpose        DataProcessingPurpose `json:"purpose" db:"purpose"`
	DataCategories CategorySet           `json:"data_categories" db:"data_categories"`
	Status         ConsentStatus         `json:"status" db:"status"`
	GrantedAt      *time.Time            `json:"granted_at,omitempty" db:"granted_at"`
	WithdrawnAt    *time.Time            `json:"withdrawn_at,omitempty" db:"withdrawn_at"`
	ExpiresAt      *time.Time            `json:"expires_at,omitempty" db:"expires_at"`
	Version        string                `json:"version" db:"version"`

	// Audit metadata
	IPAddress     string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent     string `json:"user_agent,omitempty" db:"user_agent"`
	ConsentMethod string `json:"consent_method" db:"consent_method"`
}

// NewConsentRecord creates a consent record in the given initial status.
// GRANTED records get GrantedAt stamped, WITHDRAWN records get WithdrawnAt
// stamped, so the status/timestamp invariants hold from construction.
func NewConsentRecord(userID uuid.UUID, purpose DataProcessingPurpose, categories CategorySet, status ConsentStatus) (*ConsentRecord, error) {
	if !purpose.IsValid() {
		return nil, fmt.Errorf("invalid data processing purpose: %s", purpose)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid consent status: %s", status)
	}
	for category := range categories {
		if !category.IsValid() {
			return nil, fmt.Errorf("invalid data category: %s", category)
		}
	}

	record := &ConsentRecord{
		ConsentID:      uuid.New(),
		UserID:         userID,
		Purpose:        purpose,
		DataCategories: categories,
		Status:         status,
		Version:        "1.0",
		ConsentMethod:  "web_form",
	}

	now := time.Now().UTC()
	if status == ConsentStatusGranted {
		record.GrantedAt = &now
	}
	if status == ConsentStatusWithdrawn {
		record.WithdrawnAt = &now
	}

	return record, nil
}

// Grant marks the consent as granted, stamping the grant time and clearing
// any prior withdrawal. Marketing and research consents get an expiry one
// year out; other purposes never expire automatically.
func (c *ConsentRecord) Grant(ipAddress, userAgent string) {
	now := time.Now().UTC()
	c.Status = ConsentStatusGranted
	c.GrantedAt = &now
	c.WithdrawnAt = nil

	if ipAddress != "" {
		c.IPAddress = ipAddress
	}
	if userAgent != "" {
		c.UserAgent = userAgent
	}

	if c.Purpose.ExpiresAutomatically() {
		expiry := now.AddDate(0, 0, ConsentExpiryDays)
		c.ExpiresAt = &expiry
	}
}

// Withdraw marks a granted consent as withdrawn. Withdrawing a consent that
// is not currently granted is a no-op on the entity.
func (c *ConsentRecord) Withdraw() {
	if c.Status != ConsentStatusGranted {
		return
	}
	now := time.Now().UTC()
	c.Status = ConsentStatusWithdrawn
	c.WithdrawnAt = &now
}

// IsExpired reports whether the consent's expiry has passed
func (c *ConsentRecord) IsExpired() bool {
	return c.ExpiresAt != nil && time.Now().UTC().After(*c.ExpiresAt)
}

// IsValid reports whether the consent is currently usable: granted and not
// past its expiry. This is a pure read; discovering expiry here never
// mutates the record. Only ConsentService.RefreshExpiredConsents persists
// the transition to expired.
func (c *ConsentRecord) IsValid() bool {
	if c.Status != ConsentStatusGranted {
		return false
	}
	return !c.IsExpired()
}

// CoversCategory reports whether this consent covers the given data category
func (c *ConsentRecord) CoversCategory(category DataCategory) bool {
	return c.DataCategories.Contains(category)
}

// ToMap converts the record to a JSON-serializable map. Enum fields carry
// their string values; is_valid and is_expired are computed at call time.
func (c *ConsentRecord) ToMap() map[string]any {
	return map[string]any{
		"consent_id":      c.ConsentID.String(),
		"user_id":         c.UserID.String(),
		"purpose":         string(c.Purpose),
		"data_categories": c.DataCategories.Values(),
		"status":          string(c.Status),
		"granted_at":      formatTimePtr(c.GrantedAt),
		"withdrawn_at":    formatTimePtr(c.WithdrawnAt),
		"expires_at":      formatTimePtr(c.ExpiresAt),
		"version":         c.Version,
		"is_valid":        c.IsValid(),
		"is_expired":      c.IsExpired(),
	}
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
