package leasing

import (
	"fmt"

	"github.com/nhatro/backend/internal/domain/shared"
)

// Error codes for the leasing domain
const (
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeValidationError        = "VALIDATION_ERROR"
	ErrCodeRoomUnavailable        = "ROOM_UNAVAILABLE"
)

// ErrRoomUnavailable is returned when a check-in targets a room that
// already has an active contract or pending check-in
var ErrRoomUnavailable = shared.NewDomainError(ErrCodeRoomUnavailable, "Room is not available for check-in")

// NewInvalidStateTransitionError builds an error describing a rejected transition
func NewInvalidStateTransitionError(action, from, to string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidStateTransition,
		fmt.Sprintf("Cannot %s: transition %s -> %s is not allowed", action, from, to))
}

// NewValidationError builds a validation error with the given message
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeValidationError, message)
}
