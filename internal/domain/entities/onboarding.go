package entities

import "fmt"

// OnboardingState represents a step in the user onboarding flow
type OnboardingState string

const (
	OnboardingStateRegistration OnboardingState = "registration"
	OnboardingStateProfileSetup OnboardingState = "profile_setup"
	OnboardingStateInitialGoals OnboardingState = "initial_goals"
	OnboardingStateDashboard    OnboardingState = "dashboard" // Terminal
)

// ValidOnboardingTransitions defines allowed onboarding transitions.
// Dashboard is terminal with no outgoing transitions.
var ValidOnboardingTransitions = map[OnboardingState][]OnboardingState{
	OnboardingStateRegistration: {OnboardingStateProfileSetup},
	OnboardingStateProfileSetup: {OnboardingStateInitialGoals, OnboardingStateDashboard},
	OnboardingStateInitialGoals: {OnboardingStateDashboard},
	OnboardingStateDashboard:    {},
}

// IsValid checks if the state is a defined onboarding state
func (s OnboardingState) IsValid() bool {
	_, ok := ValidOnboardingTransitions[s]
	return ok
}

// OnboardingTransitionError is returned when an invalid onboarding
// transition is attempted.
type OnboardingTransitionError struct {
	From OnboardingState
	To   OnboardingState
}

func (e *OnboardingTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// OnboardingStateMachine gates a user's onboarding flow:
// registration -> profile_setup -> initial_goals -> dashboard, where the
// initial-goals step may be skipped.
type OnboardingStateMachine struct {
	CurrentState OnboardingState
}

// NewOnboardingStateMachine creates a machine at the initial registration state
func NewOnboardingStateMachine() *OnboardingStateMachine {
	return &OnboardingStateMachine{CurrentState: OnboardingStateRegistration}
}

// RestoreOnboardingStateMachine creates a machine at a previously persisted state
func RestoreOnboardingStateMachine(state OnboardingState) (*OnboardingStateMachine, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("invalid onboarding state: %s", state)
	}
	return &OnboardingStateMachine{CurrentState: state}, nil
}

// CanTransitionTo checks if a transition to the target state is valid
func (m *OnboardingStateMachine) CanTransitionTo(target OnboardingState) bool {
	for _, allowed := range ValidOnboardingTransitions[m.CurrentState] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the machine to the target state or fails with an
// OnboardingTransitionError naming source and target.
func (m *OnboardingStateMachine) TransitionTo(target OnboardingState) error {
	if !m.CanTransitionTo(target) {
		return &OnboardingTransitionError{From: m.CurrentState, To: target}
	}
	m.CurrentState = target
	return nil
}

// CompleteRegistration advances to profile setup
func (m *OnboardingStateMachine) CompleteRegistration() error {
	return m.TransitionTo(OnboardingStateProfileSetup)
}

// CompleteProfileSetup advances to initial goals, or straight to the
// dashboard when skipGoals is set.
func (m *OnboardingStateMachine) CompleteProfileSetup(skipGoals bool) error {
	if skipGoals {
		return m.TransitionTo(OnboardingStateDashboard)
	}
	return m.TransitionTo(OnboardingStateInitialGoals)
}

// CompleteInitialGoals advances to the dashboard
func (m *OnboardingStateMachine) CompleteInitialGoals() error {
	return m.TransitionTo(OnboardingStateDashboard)
}

// SkipToDashboard skips remaining steps. Allowed only from profile setup
// or initial goals.
func (m *OnboardingStateMachine) SkipToDashboard() error {
	if m.CurrentState != OnboardingStateProfileSetup && m.CurrentState != OnboardingStateInitialGoals {
		return &OnboardingTransitionError{From: m.CurrentState, To: OnboardingStateDashboard}
	}
	return m.TransitionTo(OnboardingStateDashboard)
}

// IsComplete reports whether onboarding has reached the terminal dashboard state
func (m *OnboardingStateMachine) IsComplete() bool {
	return m.CurrentState == OnboardingStateDashboard
}

// NextStep returns the primary successor state, preferring profile setup
// over initial goals over dashboard. The second return is false at the
// terminal state.
func (m *OnboardingStateMachine) NextStep() (OnboardingState, bool) {
	successors := ValidOnboardingTransitions[m.CurrentState]
	if len(successors) == 0 {
		return "", false
	}
	for _, preferred := range []OnboardingState{
		OnboardingStateProfileSetup,
		OnboardingStateInitialGoals,
		OnboardingStateDashboard,
	} {
		for _, successor := range successors {
			if successor == preferred {
				return preferred, true
			}
		}
	}
	return "", false
}

// GetProgressPercentage returns onboarding completion for the current state
func (m *OnboardingStateMachine) GetProgressPercentage() float64 {
	switch m.CurrentState {
	case OnboardingStateRegistration:
		return 0.0
	case OnboardingStateProfileSetup:
		return 33.3
	case OnboardingStateInitialGoals:
		return 66.7
	case OnboardingStateDashboard:
		return 100.0
	}
	return 0.0
}
