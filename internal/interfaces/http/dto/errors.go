package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the actor lacks a required capability
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInactiveRevision is used when writing through a superseded revision
	ErrCodeInactiveRevision = "ERR_INACTIVE_REVISION"
	// ErrCodeRateNotFound is used when no exchange rate covers the conversion date
	ErrCodeRateNotFound = "ERR_RATE_NOT_FOUND"
	// ErrCodeAdjustmentExceeded is used when a manual MYR override is out of tolerance
	ErrCodeAdjustmentExceeded = "ERR_ADJUSTMENT_EXCEEDED"
)

// Infrastructure error codes
const (
	// ErrCodeStorageUnavailable is used when object storage is not configured
	ErrCodeStorageUnavailable = "ERR_STORAGE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeInactiveRevision:   http.StatusUnprocessableEntity,
	ErrCodeRateNotFound:       http.StatusUnprocessableEntity,
	ErrCodeAdjustmentExceeded: http.StatusUnprocessableEntity,

	// Infrastructure errors
	ErrCodeStorageUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"FORBIDDEN":               ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":    ErrCodeConcurrencyConflict,
	"CONCURRENT_MODIFICATION": ErrCodeConcurrencyConflict,
	"INVALID_STATE":           ErrCodeInvalidState,
	"INVALID_STATUS":          ErrCodeInvalidState,
	"SEQUENCE_ASSIGNED":       ErrCodeInvalidState,
	"INACTIVE_REVISION":       ErrCodeInactiveRevision,
	"RATE_NOT_FOUND":          ErrCodeRateNotFound,
	"ADJUSTMENT_EXCEEDED":     ErrCodeAdjustmentExceeded,
	"STORAGE_UNAVAILABLE":     ErrCodeStorageUnavailable,
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"INVALID_AMOUNT":          ErrCodeValidation,
	"INVALID_CURRENCY":        ErrCodeValidation,
	"INVALID_RATE":            ErrCodeValidation,
	"INVALID_RATE_SOURCE":     ErrCodeValidation,
	"INVALID_PERCENTAGE":      ErrCodeValidation,
	"INVALID_SEQUENCE":        ErrCodeValidation,
	"INVALID_REASON":          ErrCodeValidation,
	"INVALID_PO_NUMBER":       ErrCodeValidation,
	"INVALID_INVOICE_NUMBER":  ErrCodeValidation,
	"INVALID_PROJECT_CODE":    ErrCodeValidation,
	"INVALID_PROJECT_NAME":    ErrCodeValidation,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
