package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataSubjectRequestDefaultsToAllCategories(t *testing.T) {
	request, err := NewDataSubjectRequest(uuid.New(), RequestTypeExport, nil)
	require.NoError(t, err)

	assert.Equal(t, RequestStatusPending, request.Status)
	assert.False(t, request.IdentityVerified)
	assert.Equal(t, len(AllDataCategories()), request.DataCategories.Len())
}

func TestNewDataSubjectRequestKeepsExplicitCategories(t *testing.T) {
	categories := NewCategorySet(CategoryHealth, CategoryFinancial)
	request, err := NewDataSubjectRequest(uuid.New(), RequestTypeExport, categories)
	require.NoError(t, err)
	assert.Equal(t, 2, request.DataCategories.Len())
}

func TestNewDataSubjectRequestRejectsUnknownType(t *testing.T) {
	_, err := NewDataSubjectRequest(uuid.New(), "shred", nil)
	assert.Error(t, err)
}

func TestStartProcessingRequiresVerifiedIdentity(t *testing.T) {
	request, err := NewDataSubjectRequest(uuid.New(), RequestTypeExport, nil)
	require.NoError(t, err)

	err = request.StartProcessing(uuid.New())
	assert.ErrorIs(t, err, ErrIdentityNotVerified)

	request.VerifyIdentity("email")
	processorID := uuid.New()
	require.NoError(t, request.StartProcessing(processorID))
	assert.Equal(t, RequestStatusProcessing, request.Status)
	require.NotNil(t, request.ProcessorID)
	assert.Equal(t, processorID, *request.ProcessorID)
}

func TestRequestStatusTransitions(t *testing.T) {
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusProcessing))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusRejected))
	assert.False(t, RequestStatusPending.CanTransitionTo(RequestStatusCompleted))

	assert.True(t, RequestStatusProcessing.CanTransitionTo(RequestStatusCompleted))
	assert.True(t, RequestStatusProcessing.CanTransitionTo(RequestStatusRejected))
	assert.False(t, RequestStatusProcessing.CanTransitionTo(RequestStatusPending))

	for _, terminal := range []RequestStatus{RequestStatusCompleted, RequestStatusRejected} {
		assert.True(t, terminal.IsTerminal())
		for next := range ValidRequestTransitions {
			assert.False(t, terminal.CanTransitionTo(next), "%s must not leave %s", next, terminal)
		}
	}
}

func TestCompleteAndRejectStampCompletedAt(t *testing.T) {
	request, err := NewDataSubjectRequest(uuid.New(), RequestTypeExport, nil)
	require.NoError(t, err)

	request.Complete("done")
	assert.Equal(t, RequestStatusCompleted, request.Status)
	assert.Equal(t, "done", request.ProcessingNotes)
	require.NotNil(t, request.CompletedAt)

	rejected, err := NewDataSubjectRequest(uuid.New(), RequestTypeDelete, nil)
	require.NoError(t, err)
	rejected.Reject("verification failed")
	assert.Equal(t, RequestStatusRejected, rejected.Status)
	assert.Equal(t, "verification failed", rejected.RejectionReason)
	require.NotNil(t, rejected.CompletedAt)
}

func TestIsOverdue(t *testing.T) {
	request, err := NewDataSubjectRequest(uuid.New(), RequestTypeExport, nil)
	require.NoError(t, err)

	assert.False(t, request.IsOverdue(DSARDeadlineDays))

	request.RequestedAt = time.Now().UTC().AddDate(0, 0, -(DSARDeadlineDays + 1))
	assert.True(t, request.IsOverdue(DSARDeadlineDays))

	// Terminal requests are never overdue regardless of age.
	request.Complete("late but done")
	assert.False(t, request.IsOverdue(DSARDeadlineDays))
}

func TestDataSubjectRequestToMapRoundTrip(t *testing.T) {
	request, err := NewDataSubjectRequest(uuid.New(), RequestTypeExport, NewCategorySet(CategoryHealth))
	require.NoError(t, err)
	request.VerifyIdentity("totp")

	m := request.ToMap()

	_, err = json.Marshal(m)
	require.NoError(t, err, "map must be JSON-serializable")

	assert.Equal(t, string(RequestTypeExport), m["request_type"])
	assert.Equal(t, string(RequestStatusPending), m["status"])
	assert.Equal(t, request.IsOverdue(DSARDeadlineDays), m["is_overdue"])
	assert.Equal(t, true, m["identity_verified"])
	assert.Equal(t, "totp", m["verification_method"])
}
