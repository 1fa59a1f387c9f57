package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code,
// so errors.Is(err, shared.ErrNotFound) works for any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key, value string) *DomainError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// Detail returns a detail value, or "" when absent
func (e *DomainError) Detail(key string) string {
	if e.Details == nil {
		return ""
	}
	return e.Details[key]
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// AsDomainError unwraps err into a DomainError if it carries one
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Error codes shared across bounded contexts
const (
	CodeNotFound                = "NOT_FOUND"
	CodeValidation              = "VALIDATION_ERROR"
	CodeCapacityExceeded        = "CAPACITY_EXCEEDED"
	CodeInvalidReduction        = "INVALID_REDUCTION"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeForbidden               = "FORBIDDEN"
	CodeConflict                = "CONFLICT"
	CodeOptimisticLockFailed    = "OPTIMISTIC_LOCK_FAILED"
	CodeUnauthorized            = "UNAUTHORIZED"
)

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation           = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConflict             = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrOptimisticLockFailed = NewDomainError(CodeOptimisticLockFailed, "Resource version changed during update")
	ErrUnauthorized         = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden            = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)
