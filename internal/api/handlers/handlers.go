// Package handlers contains the HTTP handlers for the privacy service.
package handlers

import (
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/domain/services/consent"
	"github.com/lifedash/privacy_service/internal/domain/services/datasubject"
	"github.com/lifedash/privacy_service/internal/domain/services/onboarding"
	"github.com/lifedash/privacy_service/internal/domain/services/privacy"
	"github.com/lifedash/privacy_service/internal/domain/services/profile"
	"github.com/lifedash/privacy_service/pkg/validation"
)

// Handlers aggregates all HTTP handlers
type Handlers struct {
	Consent     *ConsentHandler
	Privacy     *PrivacyHandler
	DataSubject *DataSubjectHandler
	Profile     *ProfileHandler
	Onboarding  *OnboardingHandler
	Health      *HealthHandler
}

// Services groups the domain services the handlers depend on
type Services struct {
	Consent     *consent.Service
	Privacy     *privacy.Service
	DataSubject *datasubject.Service
	Profile     *profile.Service
	Onboarding  *onboarding.Service
}

// New creates the handler set
func New(services Services, health *HealthHandler, logger *zap.Logger) *Handlers {
	validator := validation.NewValidator()
	return &Handlers{
		Consent:     NewConsentHandler(services.Consent, validator, logger),
		Privacy:     NewPrivacyHandler(services.Privacy, logger),
		DataSubject: NewDataSubjectHandler(services.DataSubject, validator, logger),
		Profile:     NewProfileHandler(services.Profile, logger),
		Onboarding:  NewOnboardingHandler(services.Onboarding, logger),
		Health:      health,
	}
}
