package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{ErrCodeInactiveRevision, http.StatusUnprocessableEntity},
		{ErrCodeRateNotFound, http.StatusUnprocessableEntity},
		{ErrCodeAdjustmentExceeded, http.StatusUnprocessableEntity},
		{ErrCodeStorageUnavailable, http.StatusServiceUnavailable},
		// Unknown code should return 500
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
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"FORBIDDEN", ErrCodeForbidden},
		{"CONCURRENT_MODIFICATION", ErrCodeConcurrencyConflict},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"SEQUENCE_ASSIGNED", ErrCodeInvalidState},
		{"INACTIVE_REVISION", ErrCodeInactiveRevision},
		{"RATE_NOT_FOUND", ErrCodeRateNotFound},
		{"ADJUSTMENT_EXCEEDED", ErrCodeAdjustmentExceeded},
		{"STORAGE_UNAVAILABLE", ErrCodeStorageUnavailable},
		{"INVALID_PERCENTAGE", ErrCodeValidation},
		{"INVALID_PO_NUMBER", ErrCodeValidation},
		// Standardized codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeValidation, ErrCodeValidation},
		// Unknown codes pass through unchanged
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryMappedCodeHasHTTPStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "mapped code %s -> %s has no HTTP status", domainCode, apiCode)
	}
}

func TestErrorResponseSerialization(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeRateNotFound, "No applicable exchange rate found", "req-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])

	errInfo, ok := decoded["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, ErrCodeRateNotFound, errInfo["code"])
	assert.Equal(t, "req-123", errInfo["request_id"])
}

func TestSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 45, 2, 20)

	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 2, resp.Meta.Page)
}
