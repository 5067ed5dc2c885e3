package dto

import "net/http"

// Error codes carried in the response envelope.
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeRouteMissing = "ERR_ROUTE_NOT_FOUND"

	// ErrCodeIllegalTransition is a status change not permitted from the current state
	ErrCodeIllegalTransition = "ERR_ILLEGAL_TRANSITION"
	// ErrCodeImmutableState is an edit attempted outside en cours
	ErrCodeImmutableState = "ERR_IMMUTABLE_STATE"
	// ErrCodeProtectedRecord is a delete attempted on an audit-protected record
	ErrCodeProtectedRecord = "ERR_PROTECTED_RECORD"

	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeRouteMissing: http.StatusNotFound,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeIllegalTransition: http.StatusUnprocessableEntity,
	ErrCodeImmutableState:    http.StatusUnprocessableEntity,
	ErrCodeProtectedRecord:   http.StatusUnprocessableEntity,

	ErrCodeConcurrencyConflict: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to envelope codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"ILLEGAL_TRANSITION":   ErrCodeIllegalTransition,
	"IMMUTABLE_STATE":      ErrCodeImmutableState,
	"PROTECTED_RECORD":     ErrCodeProtectedRecord,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"STALE_STATUS":         ErrCodeConcurrencyConflict,
}

// NormalizeErrorCode converts a domain error code to the envelope format.
// Codes already in envelope format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
