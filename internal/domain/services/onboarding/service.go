package onboarding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
	"github.com/lifedash/privacy_service/internal/domain/repositories"
	"github.com/lifedash/privacy_service/pkg/metrics"
	"go.uber.org/zap"
)

// Status describes a user's position in the onboarding flow.
type Status struct {
	UserID       uuid.UUID                `json:"user_id"`
	CurrentState entities.OnboardingState `json:"current_state"`
	NextStep     entities.OnboardingState `json:"next_step,omitempty"`
	Progress     float64                  `json:"progress"`
	IsComplete   bool                     `json:"is_complete"`
}

// Service drives users through the onboarding flow, persisting each
// transition and recording it in the activity log.
type Service struct {
	stateRepo    repositories.OnboardingStateRepository
	activityRepo repositories.ProcessingActivityRepository
	logger       *zap.Logger
}

func NewService(stateRepo repositories.OnboardingStateRepository, activityRepo repositories.ProcessingActivityRepository, logger *zap.Logger) *Service {
	return &Service{
		stateRepo:    stateRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// GetStatus returns the user's onboarding position. Users without a
// recorded state are at registration.
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID) (*Status, error) {
	machine, err := s.loadMachine(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.statusFor(userID, machine), nil
}

// CompleteRegistration advances the user from registration to profile setup.
func (s *Service) CompleteRegistration(ctx context.Context, userID uuid.UUID) (*Status, error) {
	return s.advance(ctx, userID, func(m *entities.OnboardingStateMachine) error {
		return m.CompleteRegistration()
	})
}

// CompleteProfileSetup advances the user past profile setup, skipping the
// goals step when skipGoals is set.
func (s *Service) CompleteProfileSetup(ctx context.Context, userID uuid.UUID, skipGoals bool) (*Status, error) {
	return s.advance(ctx, userID, func(m *entities.OnboardingStateMachine) error {
		return m.CompleteProfileSetup(skipGoals)
	})
}

// CompleteInitialGoals advances the user from initial goals to the dashboard.
func (s *Service) CompleteInitialGoals(ctx context.Context, userID uuid.UUID) (*Status, error) {
	return s.advance(ctx, userID, func(m *entities.OnboardingStateMachine) error {
		return m.CompleteInitialGoals()
	})
}

// SkipToDashboard skips the remaining onboarding steps. Only allowed from
// profile setup or initial goals.
func (s *Service) SkipToDashboard(ctx context.Context, userID uuid.UUID) (*Status, error) {
	return s.advance(ctx, userID, func(m *entities.OnboardingStateMachine) error {
		return m.SkipToDashboard()
	})
}

func (s *Service) advance(ctx context.Context, userID uuid.UUID, step func(*entities.OnboardingStateMachine) error) (*Status, error) {
	machine, err := s.loadMachine(ctx, userID)
	if err != nil {
		return nil, err
	}

	from := machine.CurrentState
	if err := step(machine); err != nil {
		return nil, err
	}

	if err := s.stateRepo.SaveState(ctx, userID, machine.CurrentState); err != nil {
		return nil, fmt.Errorf("failed to save onboarding state: %w", err)
	}

	s.logStepActivity(ctx, userID, from, machine.CurrentState)
	s.logger.Info("onboarding step completed",
		zap.String("user_id", userID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(machine.CurrentState)),
	)
	return s.statusFor(userID, machine), nil
}

func (s *Service) loadMachine(ctx context.Context, userID uuid.UUID) (*entities.OnboardingStateMachine, error) {
	state, err := s.stateRepo.GetState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding state: %w", err)
	}
	if state == "" {
		return entities.NewOnboardingStateMachine(), nil
	}
	return entities.RestoreOnboardingStateMachine(state)
}

func (s *Service) statusFor(userID uuid.UUID, machine *entities.OnboardingStateMachine) *Status {
	status := &Status{
		UserID:       userID,
		CurrentState: machine.CurrentState,
		Progress:     machine.GetProgressPercentage(),
		IsComplete:   machine.IsComplete(),
	}
	if next, ok := machine.NextStep(); ok {
		status.NextStep = next
	}
	return status
}

// Activity logging is best effort here: a completed onboarding step is not
// rolled back because its audit entry could not be written.
func (s *Service) logStepActivity(ctx context.Context, userID uuid.UUID, from, to entities.OnboardingState) {
	activity, err := entities.NewDataProcessingActivity(
		userID,
		entities.PurposeCoreFunctionality,
		entities.NewCategorySet(entities.CategoryBasicProfile),
		entities.ActivityOnboardingStepCompleted,
		"onboarding_service",
	)
	if err != nil {
		s.logger.Warn("failed to build onboarding activity", zap.Error(err))
		return
	}
	activity.Details = map[string]any{"from": string(from), "to": string(to)}

	if err := s.activityRepo.LogActivity(ctx, activity); err != nil {
		metrics.ActivityLogFailuresTotal.Inc()
		s.logger.Warn("failed to log onboarding activity",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
	}
}
