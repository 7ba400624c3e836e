package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
	"github.com/lifedash/privacy_service/internal/pkg/util"
	"github.com/lifedash/privacy_service/pkg/circuitbreaker"
)

// EmailNotifierConfig holds email notifier configuration
type EmailNotifierConfig struct {
	APIKey      string
	FromEmail   string
	FromName    string
	Environment string // "development", "staging", "production"
}

// EmailNotifier sends privacy notifications through SendGrid. Deliveries go
// through a circuit breaker so a flapping provider cannot stall request
// processing, and are gated on the recipient's privacy_notifications
// setting.
type EmailNotifier struct {
	config       EmailNotifierConfig
	client       *sendgrid.Client
	breaker      *circuitbreaker.CircuitBreaker
	profileRepo  repositories.UserProfileRepository
	settingsRepo repositories.PrivacySettingsRepository
	logger       *zap.Logger
}

// NewEmailNotifier creates an email notifier
func NewEmailNotifier(config EmailNotifierConfig, profileRepo repositories.UserProfileRepository, settingsRepo repositories.PrivacySettingsRepository, logger *zap.Logger) (*EmailNotifier, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(config.FromEmail) == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             "sendgrid",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("email circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &EmailNotifier{
		config:       config,
		client:       sendgrid.NewSendClient(config.APIKey),
		breaker:      breaker,
		profileRepo:  profileRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
	}, nil
}

// NotifyRequestCompleted informs the subject their request finished
func (n *EmailNotifier) NotifyRequestCompleted(ctx context.Context, request *entities.DataSubjectRequest) error {
	subject := "Your data export is ready"
	body := "Your data export request has been completed. You can download your data from your privacy dashboard."
	if request.RequestType == entities.RequestTypeDelete {
		subject = "Your data deletion is complete"
		body = "Your data deletion request has been completed. The requested data has been erased."
	}
	return n.send(ctx, request.UserID, subject, body)
}

// NotifyRequestRejected informs the subject their request was rejected
func (n *EmailNotifier) NotifyRequestRejected(ctx context.Context, request *entities.DataSubjectRequest) error {
	subject := "Your data request could not be completed"
	body := fmt.Sprintf("Your %s request could not be completed. Reason: %s. You can file a new request from your privacy dashboard.",
		request.RequestType, request.RejectionReason)
	return n.send(ctx, request.UserID, subject, body)
}

// NotifyConsentExpired reminds the subject a consent lapsed. Gated on the
// consent_reminders setting in addition to the privacy_notifications
// master switch.
func (n *EmailNotifier) NotifyConsentExpired(ctx context.Context, record *entities.ConsentRecord) error {
	settings, err := n.settingsRepo.GetByUserID(ctx, record.UserID)
	if err != nil {
		return fmt.Errorf("failed to check notification settings: %w", err)
	}
	if settings != nil && !settings.ConsentReminders {
		return nil
	}

	subject := "A consent you granted has expired"
	body := fmt.Sprintf("Your consent for %s has expired. If you want to keep using features that depend on it, you can renew it from your privacy dashboard.",
		record.Purpose)
	return n.send(ctx, record.UserID, subject, body)
}

func (n *EmailNotifier) send(ctx context.Context, userID uuid.UUID, subject, body string) error {
	settings, err := n.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check notification settings: %w", err)
	}
	if settings != nil && !settings.PrivacyNotifications {
		n.logger.Debug("privacy notifications disabled, skipping email",
			zap.String("user_id", userID.String()),
		)
		return nil
	}

	profile, err := n.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if profile == nil || profile.Email == "" {
		return fmt.Errorf("no email address on file for user %s", userID)
	}

	if n.config.Environment == "development" {
		n.logger.Info("development mode, logging email instead of sending",
			zap.String("to", util.Redact(profile.Email)),
			zap.String("subject", subject),
		)
		return nil
	}

	from := mail.NewEmail(n.config.FromName, n.config.FromEmail)
	to := mail.NewEmail(profile.FullName(), profile.Email)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	return n.breaker.Execute(ctx, func() error {
		response, err := n.client.Send(message)
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		if response.StatusCode >= 400 {
			return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
		}
		return nil
	})
}
