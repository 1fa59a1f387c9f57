package dto

import (
	"net/http"

	"github.com/genlab/backend/internal/domain/shared"
)

// Error codes returned in the response envelope.
// Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	// ErrCodeValidation covers binding failures and domain validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds http.max_body_size
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is an optimistic lock failure that escaped the retry loop
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeDuplicateRequest is a replayed Idempotency-Key
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"
)

// Ledger rule error codes
const (
	ErrCodeCapacityExceeded        = "ERR_CAPACITY_EXCEEDED"
	ErrCodeInvalidReduction        = "ERR_INVALID_REDUCTION"
	ErrCodeInvalidStatusTransition = "ERR_INVALID_STATUS_TRANSITION"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// Withdrawals and reductions that do not fit are bad requests; a status
	// the ledger derives itself cannot be forced
	ErrCodeCapacityExceeded:        http.StatusBadRequest,
	ErrCodeInvalidReduction:        http.StatusBadRequest,
	ErrCodeInvalidStatusTransition: http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps shared.DomainError codes to envelope codes
var domainErrorCodes = map[string]string{
	shared.CodeNotFound:                ErrCodeNotFound,
	shared.CodeValidation:              ErrCodeValidation,
	shared.CodeCapacityExceeded:        ErrCodeCapacityExceeded,
	shared.CodeInvalidReduction:        ErrCodeInvalidReduction,
	shared.CodeInvalidStatusTransition: ErrCodeInvalidStatusTransition,
	shared.CodeForbidden:               ErrCodeForbidden,
	shared.CodeConflict:                ErrCodeConflict,
	shared.CodeOptimisticLockFailed:    ErrCodeConcurrencyConflict,
	shared.CodeUnauthorized:            ErrCodeUnauthorized,
}

// NormalizeErrorCode converts a domain error code to its envelope code.
// Codes already in envelope form pass through; anything else is internal.
func NormalizeErrorCode(code string) string {
	if c, ok := domainErrorCodes[code]; ok {
		return c
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}
