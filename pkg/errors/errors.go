package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation indicates invalid user input (bad state name,
	// malformed request); the pending operation may stay open for correction
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeNotFound indicates a stale or missing reference
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeConflict indicates a clash with existing graph content
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeReadOnly indicates a mutating gesture on a read-only session
	ErrorTypeReadOnly ErrorType = "READ_ONLY"

	// ErrorTypeStorage indicates the persistence collaborator failed;
	// non-fatal, the mutation is retained in memory
	ErrorTypeStorage ErrorType = "STORAGE"

	// ErrorTypeInternal indicates an unexpected failure
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// Error codes used across the graph operations
const (
	CodeDuplicateState     = "DUPLICATE_STATE"
	CodeStateNotFound      = "STATE_NOT_FOUND"
	CodeTransitionNotFound = "TRANSITION_NOT_FOUND"
	CodeUnknownState       = "UNKNOWN_STATE"
	CodeGraphNotFound      = "GRAPH_NOT_FOUND"
	CodeInvalidName        = "INVALID_NAME"
	CodeInvalidGesture     = "INVALID_GESTURE"
	CodeReadOnlySession    = "READ_ONLY_SESSION"
	CodeSaveFailed         = "SAVE_FAILED"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code,omitempty"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// Constructor functions for common error types

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewReadOnlyError creates an error for mutations on a read-only session
func NewReadOnlyError(gesture string) *AppError {
	return &AppError{
		Type:       ErrorTypeReadOnly,
		Code:       CodeReadOnlySession,
		Message:    fmt.Sprintf("session is read-only, %s rejected", gesture),
		HTTPStatus: http.StatusForbidden,
	}
}

// NewStorageError creates a storage error
func NewStorageError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStorage,
		Code:       CodeSaveFailed,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Type predicates

// IsType checks whether err is an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsReadOnly checks if the error is a read-only rejection
func IsReadOnly(err error) bool {
	return IsType(err, ErrorTypeReadOnly)
}

// IsStorage checks if the error is a storage error
func IsStorage(err error) bool {
	return IsType(err, ErrorTypeStorage)
}

// HasCode checks whether err carries the given error code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status for an error, defaulting to 500
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// CodeOf returns the error code, or the type name when no code is set
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code != "" {
			return appErr.Code
		}
		return string(appErr.Type)
	}
	return string(ErrorTypeInternal)
}
