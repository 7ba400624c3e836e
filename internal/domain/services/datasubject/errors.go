package datasubject

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// ErrRequestNotFound is returned when a request id does not resolve
var ErrRequestNotFound = errors.New("data subject request not found")

// ErrVerificationRequired is returned when processing is attempted on an
// unverified request and no verification method was supplied.
var ErrVerificationRequired = errors.New("identity verification required before processing")

// WrongTypeError indicates a request was routed to the wrong workflow,
// e.g. a deletion request handed to the export processor.
type WrongTypeError struct {
	RequestID uuid.UUID
	Expected  entities.RequestType
	Actual    entities.RequestType
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("request %s is not an %s request (type %s)", e.RequestID, e.Expected, e.Actual)
}

// RequestStateError indicates the request is not claimable: either it has
// reached a terminal status or another processor holds it.
type RequestStateError struct {
	RequestID uuid.UUID
	Status    entities.RequestStatus
}

func (e *RequestStateError) Error() string {
	if e.Status.IsTerminal() {
		return fmt.Sprintf("request %s has already been resolved with status %s", e.RequestID, e.Status)
	}
	return fmt.Sprintf("request %s is already being processed", e.RequestID)
}
