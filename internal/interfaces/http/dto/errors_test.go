package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeCapacityExceeded, http.StatusBadRequest},
		{ErrCodeInvalidReduction, http.StatusBadRequest},
		{ErrCodeInvalidStatusTransition, http.StatusUnprocessableEntity},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{shared.CodeNotFound, ErrCodeNotFound},
		{shared.CodeValidation, ErrCodeValidation},
		{shared.CodeCapacityExceeded, ErrCodeCapacityExceeded},
		{shared.CodeInvalidReduction, ErrCodeInvalidReduction},
		{shared.CodeInvalidStatusTransition, ErrCodeInvalidStatusTransition},
		{shared.CodeForbidden, ErrCodeForbidden},
		{shared.CodeConflict, ErrCodeConflict},
		{shared.CodeOptimisticLockFailed, ErrCodeConcurrencyConflict},
		{ErrCodeNotFound, ErrCodeNotFound},
		{"SOMETHING_ELSE", ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryDomainCodeHasAStatus(t *testing.T) {
	for domainCode, code := range domainErrorCodes {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "%s maps to %s which has no status", domainCode, code)
	}
}

func TestFromError(t *testing.T) {
	t.Run("domain error keeps message and details", func(t *testing.T) {
		de := shared.NewDomainError(shared.CodeCapacityExceeded, "Requested 5.00 exceeds available 2.00").
			WithDetail("requested", "5.00").
			WithDetail("available", "2.00")

		status, resp := FromError(fmt.Errorf("create output: %w", de), "req-1")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeCapacityExceeded, resp.Error.Code)
		assert.Equal(t, "req-1", resp.Error.RequestID)
		assert.Equal(t, "2.00", resp.Error.Details["available"])
	})

	t.Run("plain error is opaque", func(t *testing.T) {
		status, resp := FromError(errors.New("pq: connection reset"), "req-2")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "pq")
		assert.Nil(t, resp.Error.Details)
	})
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponse(shared.CodeNotFound, "Input not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotFound, errObj["code"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-789", map[string]string{
		"quantity_output": "Must have at most two decimal places",
	})

	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Must have at most two decimal places", resp.Error.Details["quantity_output"])
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse(shared.NewPaginated([]string{"a", "b"}, 21, 2, 10))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(21), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewPaginatedResponse(shared.NewPaginated[string](nil, 0, 1, 20))
	assert.Equal(t, []string{}, empty.Data, "empty pages serialize as []")
}

func TestListRequest_ToFilter(t *testing.T) {
	f := ListRequest{}.ToFilter()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)

	f = ListRequest{Page: 3, PageSize: 50, OrderBy: "expires_at", OrderDir: "asc", Search: "gyr"}.ToFilter()
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "expires_at", f.OrderBy)
	assert.Equal(t, "gyr", f.Search)
}

func TestDateRangeRequest_Range(t *testing.T) {
	from, to := DateRangeRequest{DateFrom: "2026-03-01", DateTo: "2026-03-31"}.Range()
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC), *to)

	from, to = DateRangeRequest{}.Range()
	assert.Nil(t, from)
	assert.Nil(t, to)
}
