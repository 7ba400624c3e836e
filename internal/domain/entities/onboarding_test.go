package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingStartsAtRegistration(t *testing.T) {
	machine := NewOnboardingStateMachine()

	assert.Equal(t, OnboardingStateRegistration, machine.CurrentState)
	assert.Equal(t, 0.0, machine.GetProgressPercentage())
	assert.False(t, machine.IsComplete())
}

func TestOnboardingFullFlow(t *testing.T) {
	machine := NewOnboardingStateMachine()

	require.NoError(t, machine.CompleteRegistration())
	assert.Equal(t, OnboardingStateProfileSetup, machine.CurrentState)
	assert.Equal(t, 33.3, machine.GetProgressPercentage())

	require.NoError(t, machine.CompleteProfileSetup(false))
	assert.Equal(t, OnboardingStateInitialGoals, machine.CurrentState)
	assert.Equal(t, 66.7, machine.GetProgressPercentage())

	require.NoError(t, machine.CompleteInitialGoals())
	assert.Equal(t, OnboardingStateDashboard, machine.CurrentState)
	assert.Equal(t, 100.0, machine.GetProgressPercentage())
	assert.True(t, machine.IsComplete())
}

func TestOnboardingSkipGoals(t *testing.T) {
	machine := NewOnboardingStateMachine()
	require.NoError(t, machine.CompleteRegistration())

	require.NoError(t, machine.CompleteProfileSetup(true))
	assert.Equal(t, OnboardingStateDashboard, machine.CurrentState)
	assert.True(t, machine.IsComplete())
}

func TestSkipToDashboard(t *testing.T) {
	fromProfileSetup, err := RestoreOnboardingStateMachine(OnboardingStateProfileSetup)
	require.NoError(t, err)
	require.NoError(t, fromProfileSetup.SkipToDashboard())
	assert.True(t, fromProfileSetup.IsComplete())

	fromInitialGoals, err := RestoreOnboardingStateMachine(OnboardingStateInitialGoals)
	require.NoError(t, err)
	require.NoError(t, fromInitialGoals.SkipToDashboard())
	assert.True(t, fromInitialGoals.IsComplete())

	fromRegistration := NewOnboardingStateMachine()
	err = fromRegistration.SkipToDashboard()
	require.Error(t, err)
	var transitionErr *OnboardingTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, OnboardingStateRegistration, transitionErr.From)
	assert.Equal(t, OnboardingStateDashboard, transitionErr.To)
}

func TestDashboardIsTerminal(t *testing.T) {
	machine, err := RestoreOnboardingStateMachine(OnboardingStateDashboard)
	require.NoError(t, err)

	for state := range ValidOnboardingTransitions {
		assert.False(t, machine.CanTransitionTo(state))
	}
	_, ok := machine.NextStep()
	assert.False(t, ok)
}

func TestInvalidTransitionErrorNamesStates(t *testing.T) {
	machine := NewOnboardingStateMachine()
	err := machine.TransitionTo(OnboardingStateInitialGoals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registration")
	assert.Contains(t, err.Error(), "initial_goals")
	// Failed transitions leave the state untouched.
	assert.Equal(t, OnboardingStateRegistration, machine.CurrentState)
}

func TestNextStepPrefersPrimarySuccessor(t *testing.T) {
	machine := NewOnboardingStateMachine()
	next, ok := machine.NextStep()
	require.True(t, ok)
	assert.Equal(t, OnboardingStateProfileSetup, next)

	require.NoError(t, machine.CompleteRegistration())
	next, ok = machine.NextStep()
	require.True(t, ok)
	assert.Equal(t, OnboardingStateInitialGoals, next)

	require.NoError(t, machine.CompleteProfileSetup(false))
	next, ok = machine.NextStep()
	require.True(t, ok)
	assert.Equal(t, OnboardingStateDashboard, next)
}

func TestRestoreRejectsUnknownState(t *testing.T) {
	_, err := RestoreOnboardingStateMachine("limbo")
	assert.Error(t, err)
}
