package dto

import (
	"net/http"

	"github.com/evmarket/backend/internal/domain/settlement"
)

// Error codes are returned verbatim in error.code. Domain errors keep the
// code they were raised with so clients can switch on it.

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeValidation is used when request fields fail validation
	ErrCodeValidation = settlement.CodeValidation
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller may not act on the resource
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
)

// Settlement rejection codes
const (
	ErrCodeAmountMismatch      = settlement.CodeAmountMismatch
	ErrCodeNoEligible          = settlement.CodeNoEligible
	ErrCodeMissingBankDetails  = settlement.CodeMissingBankDetails
	ErrCodeOverlapping         = settlement.CodeOverlapping
	ErrCodeConsistencyViolated = settlement.CodeConsistencyViolated
	ErrCodeTransientStorage    = settlement.CodeTransientStorage
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusConflict,
	ErrCodeOverlapping:         http.StatusConflict,

	// Business rule rejections -> 422 Unprocessable Entity
	ErrCodeAmountMismatch:     http.StatusUnprocessableEntity,
	ErrCodeNoEligible:         http.StatusUnprocessableEntity,
	ErrCodeMissingBankDetails: http.StatusUnprocessableEntity,

	// Settlements halted for the vendor until manual reconciliation
	ErrCodeConsistencyViolated: http.StatusLocked,

	// Retryable
	ErrCodeTransientStorage: http.StatusServiceUnavailable,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryableCode reports whether the client should retry with backoff
func IsRetryableCode(code string) bool {
	return code == ErrCodeTransientStorage || code == ErrCodeRateLimited
}
