package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestType represents the kind of data subject request
type RequestType string

const (
	RequestTypeExport RequestType = "export"
	RequestTypeDelete RequestType = "delete"

	// Reserved GDPR request types, accepted but not yet processed by any
	// workflow in this service.
	RequestTypeRectify  RequestType = "rectify"
	RequestTypeRestrict RequestType = "restrict"
	RequestTypeObject   RequestType = "object"
)

// IsValid checks if the type is a defined request type
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeExport, RequestTypeDelete, RequestTypeRectify,
		RequestTypeRestrict, RequestTypeObject:
		return true
	}
	return false
}

// RequestStatus represents the processing status of a data subject request
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed" // Terminal
	RequestStatusRejected   RequestStatus = "rejected"  // Terminal
)

// ValidRequestTransitions defines allowed status transitions. Completed and
// rejected are terminal; nothing leaves them.
var ValidRequestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusProcessing, RequestStatusRejected},
	RequestStatusProcessing: {RequestStatusCompleted, RequestStatusRejected},
	RequestStatusCompleted:  {},
	RequestStatusRejected:   {},
}

// IsValid checks if the status is a defined request status
func (s RequestStatus) IsValid() bool {
	_, ok := ValidRequestTransitions[s]
	return ok
}

// IsTerminal returns true if this is a terminal state
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusRejected
}

// CanTransitionTo checks if transition to the new status is allowed
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range ValidRequestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition validates and returns an error if the transition is invalid
func (s RequestStatus) ValidateTransition(next RequestStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("invalid request status: %s", next)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition from %s to %s", s, next)
	}
	return nil
}

// DSARDeadlineDays is the GDPR response deadline used for overdue detection
const DSARDeadlineDays = 30

// ErrIdentityNotVerified is returned when processing starts on a request
// whose subject's identity has not been verified.
var ErrIdentityNotVerified = errors.New("identity must be verified before processing")

// DataSubjectRequest represents a GDPR-style export or delete request with
// a small state machine: pending -> processing -> {completed, rejected}.
type DataSubjectRequest struct {
	RequestID   uuid.UUID     `json:"request_id" db:"request_id"`
	UserID      uuid.UUID     `json:"user_id" db:"user_id"`
	RequestType RequestType   `json:"request_type" db:"request_type"`
	Status      RequestStatus `json:"status" db:"status"`

	// Request details
	RequestedAt    time.Time   `json:"requested_at" db:"requested_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	DataCategories CategorySet `json:"data_categories" db:"data_categories"`

	// Processing information
	ProcessorID     *uuid.UUID `json:"processor_id,omitempty" db:"processor_id"`
	ProcessingNotes string     `json:"processing_notes" db:"processing_notes"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`

	// Verification
	IdentityVerified   bool   `json:"identity_verified" db:"identity_verified"`
	VerificationMethod string `json:"verification_method,omitempty" db:"verification_method"`
}

// NewDataSubjectRequest creates a pending, unverified request
func NewDataSubjectRequest(userID uuid.UUID, requestType RequestType, categories CategorySet) (*DataSubjectRequest, error) {
	if !requestType.IsValid() {
		return nil, fmt.Errorf("invalid request type: %s", requestType)
	}
	if categories.IsEmpty() {
		categories = AllCategoriesSet()
	}
	return &DataSubjectRequest{
		RequestID:      uuid.New(),
		UserID:         userID,
		RequestType:    requestType,
		Status:         RequestStatusPending,
		RequestedAt:    time.Now().UTC(),
		DataCategories: categories,
	}, nil
}

// VerifyIdentity marks the subject's identity as verified via the given method
func (r *DataSubjectRequest) VerifyIdentity(method string) {
	r.IdentityVerified = true
	r.VerificationMethod = method
}

// StartProcessing transitions the request to processing on behalf of a
// processor. Fails unless identity is verified and the transition is legal.
func (r *DataSubjectRequest) StartProcessing(processorID uuid.UUID) error {
	if !r.IdentityVerified {
		return ErrIdentityNotVerified
	}
	if err := r.Status.ValidateTransition(RequestStatusProcessing); err != nil {
		return err
	}
	r.Status = RequestStatusProcessing
	r.ProcessorID = &processorID
	return nil
}

// Complete marks the request completed with processing notes
func (r *DataSubjectRequest) Complete(notes string) {
	now := time.Now().UTC()
	r.Status = RequestStatusCompleted
	r.CompletedAt = &now
	r.ProcessingNotes = notes
}

// Reject marks the request rejected with a reason
func (r *DataSubjectRequest) Reject(reason string) {
	now := time.Now().UTC()
	r.Status = RequestStatusRejected
	r.RejectionReason = reason
	r.CompletedAt = &now
}

// IsOverdue reports whether the request has been open past the deadline.
// Terminal requests are never overdue.
func (r *DataSubjectRequest) IsOverdue(daysLimit int) bool {
	if r.Status.IsTerminal() {
		return false
	}
	deadline := r.RequestedAt.AddDate(0, 0, daysLimit)
	return time.Now().UTC().After(deadline)
}

// ToMap converts the request to a JSON-serializable map. is_overdue is
// computed against the standard deadline at call time.
func (r *DataSubjectRequest) ToMap() map[string]any {
	m := map[string]any{
		"request_id":        r.RequestID.String(),
		"user_id":           r.UserID.String(),
		"request_type":      string(r.RequestType),
		"status":            string(r.Status),
		"requested_at":      r.RequestedAt.Format(time.RFC3339Nano),
		"completed_at":      formatTimePtr(r.CompletedAt),
		"data_categories":   r.DataCategories.Values(),
		"processing_notes":  r.ProcessingNotes,
		"rejection_reason":  r.RejectionReason,
		"identity_verified": r.IdentityVerified,
		"is_overdue":        r.IsOverdue(DSARDeadlineDays),
	}
	if r.ProcessorID != nil {
		m["processor_id"] = r.ProcessorID.String()
	}
	if r.VerificationMethod != "" {
		m["verification_method"] = r.VerificationMethod
	}
	return m
}
