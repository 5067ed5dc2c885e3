package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by the sales and ledger contexts
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeIllegalTransition   = "ILLEGAL_TRANSITION"
	CodeImmutableState      = "IMMUTABLE_STATE"
	CodeProtectedRecord     = "PROTECTED_RECORD"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeStaleStatus         = "STALE_STATUS"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed create/update input
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewIllegalTransitionError reports a status change not permitted from the current state
func NewIllegalTransitionError(operation, from string) *DomainError {
	return NewDomainError(CodeIllegalTransition,
		fmt.Sprintf("Cannot %s a record in status '%s'", operation, from))
}

// NewImmutableStateError reports an edit attempted outside the editable state
func NewImmutableStateError(status string) *DomainError {
	return NewDomainError(CodeImmutableState,
		fmt.Sprintf("Record in status '%s' can no longer be edited", status))
}

// NewProtectedRecordError reports a delete attempted on an audit-protected record
func NewProtectedRecordError(status string) *DomainError {
	return NewDomainError(CodeProtectedRecord,
		fmt.Sprintf("Record in status '%s' is protected and cannot be deleted", status))
}

// IsCode reports whether err wraps a DomainError carrying code
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrStaleStatus         = NewDomainError(CodeStaleStatus, "Record status changed before the update was applied")
)
