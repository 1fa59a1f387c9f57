package dto

import (
	"errors"

	"github.com/genlab/backend/internal/domain/shared"
)

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request. Details carries the structured
// context of domain errors (requested/available, from/to, field).
type ErrorInfo struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewPaginatedResponse unpacks a paginated result into data and meta
func NewPaginatedResponse[T any](page shared.Paginated[T]) Response {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return Response{
		Success: true,
		Data:    items,
		Meta: &Meta{
			Total:      page.Total,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
		},
	}
}

// NewErrorResponse creates an error response. The code is normalized.
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      NormalizeErrorCode(code),
			Message:   message,
			RequestID: requestID,
		},
	}
}

// NewValidationErrorResponse reports request fields that failed binding,
// keyed by their JSON name
func NewValidationErrorResponse(message, requestID string, fields map[string]string) Response {
	resp := NewErrorResponse(ErrCodeValidation, message, requestID)
	resp.Error.Details = fields
	return resp
}

// FromError builds the envelope and status for err. Domain errors keep their
// message and details; anything else is reported as an opaque internal error.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		code := NormalizeErrorCode(de.Code)
		resp := NewErrorResponse(code, de.Message, requestID)
		if len(de.Details) > 0 {
			resp.Error.Details = de.Details
		}
		return GetHTTPStatus(code), resp
	}
	return GetHTTPStatus(ErrCodeInternal), NewErrorResponse(ErrCodeInternal, "An unexpected error occurred", requestID)
}
