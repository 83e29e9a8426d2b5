package dto

import "net/http"

// API error codes, format ERR_<CATEGORY>[_<DETAIL>]. These are part of the
// client contract; renaming one is a breaking change.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState     = "ERR_INVALID_STATE"
	ErrCodeBusinessRule     = "ERR_BUSINESS_RULE"
	ErrCodeAmountOutOfRange = "ERR_AMOUNT_OUT_OF_RANGE"
	// ErrCodeRoomUnavailable is returned when a check-in targets a held room.
	ErrCodeRoomUnavailable = "ERR_ROOM_UNAVAILABLE"
	// ErrCodeUnverifiedPayment is returned when a gateway callback fails
	// signature verification.
	ErrCodeUnverifiedPayment = "ERR_UNVERIFIED_PAYMENT"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

var errorCodeStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:      http.StatusUnprocessableEntity,
	ErrCodeAmountOutOfRange:  http.StatusUnprocessableEntity,
	ErrCodeRoomUnavailable:   http.StatusConflict,
	ErrCodeUnverifiedPayment: http.StatusBadRequest,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus maps an API error code to its HTTP status. Unknown codes
// map to 500 so a missing table entry fails safe.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping translates domain-layer error codes to API codes.
var domainCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_STATE":            ErrCodeInvalidState,
	"INVALID_STATE_TRANSITION": ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"AMOUNT_OUT_OF_RANGE":      ErrCodeAmountOutOfRange,
	"ROOM_UNAVAILABLE":         ErrCodeRoomUnavailable,
	"UNVERIFIED_PAYMENT_EVENT": ErrCodeUnverifiedPayment,
	"DUPLICATE_CONTRACT_BILL":  ErrCodeAlreadyExists,
	"DUPLICATE_BILLING_PERIOD": ErrCodeAlreadyExists,
	"CONTRACT_NOT_FINALIZED":   ErrCodeInvalidState,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unmapped ones, pass through as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
