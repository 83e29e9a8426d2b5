package billing

import (
	"fmt"

	"github.com/nhatro/backend/internal/domain/shared"
)

// Error codes surfaced by the billing domain
const (
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeAmountOutOfRange       = "AMOUNT_OUT_OF_RANGE"
	ErrCodeUnverifiedPaymentEvent = "UNVERIFIED_PAYMENT_EVENT"
	ErrCodeDuplicateContractBill  = "DUPLICATE_CONTRACT_BILL"
	ErrCodeContractNotFinalized   = "CONTRACT_NOT_FINALIZED"
	ErrCodeDuplicateBillingPeriod = "DUPLICATE_BILLING_PERIOD"
	ErrCodeValidation             = "VALIDATION_ERROR"
)

var (
	// ErrUnverifiedPaymentEvent is returned when a gateway callback fails signature verification
	ErrUnverifiedPaymentEvent = shared.NewDomainError(ErrCodeUnverifiedPaymentEvent, "Payment event signature could not be verified")

	// ErrDuplicateContractBill is returned when a contract bill already exists for a settled deposit
	ErrDuplicateContractBill = shared.NewDomainError(ErrCodeDuplicateContractBill, "A contract bill already exists for this contract")

	// ErrContractNotFinalized is returned when monthly billing is requested before the contract is signed and its contract bill paid
	ErrContractNotFinalized = shared.NewDomainError(ErrCodeContractNotFinalized, "Contract is not finalized; monthly billing is not allowed")

	// ErrDuplicateBillingPeriod is returned when a published monthly bill already exists for the contract and period
	ErrDuplicateBillingPeriod = shared.NewDomainError(ErrCodeDuplicateBillingPeriod, "A monthly bill already exists for this contract and billing period")
)

// NewInvalidStateTransitionError builds the error for a disallowed bill transition.
// It carries the current and attempted status so callers can render a message.
func NewInvalidStateTransitionError(action string, from, to BillStatus) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidStateTransition,
		fmt.Sprintf("Cannot %s: transition %s -> %s is not allowed", action, from, to))
}

// NewAmountOutOfRangeError builds the error for a payment amount outside the allowed bounds
func NewAmountOutOfRangeError(detail string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeAmountOutOfRange, detail)
}

// NewValidationError builds a validation error with the given detail
func NewValidationError(detail string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeValidation, detail)
}
