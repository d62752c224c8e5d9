package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Graph engine errors
	ErrorTypeDuplicateKey   ErrorType = "DUPLICATE_KEY"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeInvalidFormat  ErrorType = "INVALID_FORMAT"
	ErrorTypeFetchFailed    ErrorType = "FETCH_FAILED"
	ErrorTypeRejectedUpload ErrorType = "REJECTED_UPLOAD"

	// Application errors
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeConflict    ErrorType = "CONFLICT"
	ErrorTypeCancelled   ErrorType = "CANCELLED"
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Infrastructure errors
	ErrorTypeDatabase ErrorType = "DATABASE"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
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

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

func newError(t ErrorType, status int, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewDuplicateKeyError reports a canonical key already bound to another node.
func NewDuplicateKeyError(key string, boundTo int) *AppError {
	return newError(ErrorTypeDuplicateKey, http.StatusConflict,
		fmt.Sprintf("key %q is already bound to node %d", key, boundTo)).
		WithDetails(map[string]interface{}{"key": key, "nodeId": boundTo})
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

// NewInvalidFormatError creates an error for a malformed saved graph.
func NewInvalidFormatError(message string) *AppError {
	return newError(ErrorTypeInvalidFormat, http.StatusBadRequest, message)
}

// NewFetchFailedError wraps a content-fetch failure.
func NewFetchFailedError(url string, err error) *AppError {
	return newError(ErrorTypeFetchFailed, http.StatusBadGateway,
		fmt.Sprintf("failed to fetch %s", url)).WithCause(err)
}

// NewRejectedUploadError creates an error for a blocked upload.
func NewRejectedUploadError(fileName string) *AppError {
	return newError(ErrorTypeRejectedUpload, http.StatusUnsupportedMediaType,
		fmt.Sprintf("file type of %q is not allowed", fileName)).
		WithDetails(map[string]interface{}{"fileName": fileName})
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message)
}

// NewCancelledError reports an interaction the user dismissed.
func NewCancelledError(operation string) *AppError {
	return newError(ErrorTypeCancelled, http.StatusOK, fmt.Sprintf("%s cancelled", operation))
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message)
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(service string) *AppError {
	return newError(ErrorTypeUnavailable, http.StatusServiceUnavailable,
		fmt.Sprintf("service '%s' is unavailable", service))
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	return newError(ErrorTypeDatabase, http.StatusInternalServerError,
		fmt.Sprintf("database operation '%s' failed", operation)).WithCause(err)
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsDuplicateKey checks if an error is a duplicate key error
func IsDuplicateKey(err error) bool {
	return IsType(err, ErrorTypeDuplicateKey)
}

// IsInvalidFormat checks if an error is an invalid format error
func IsInvalidFormat(err error) bool {
	return IsType(err, ErrorTypeInvalidFormat)
}

// IsFetchFailed checks if an error is a fetch failure
func IsFetchFailed(err error) bool {
	return IsType(err, ErrorTypeFetchFailed)
}

// IsRejectedUpload checks if an error is a rejected upload
func IsRejectedUpload(err error) bool {
	return IsType(err, ErrorTypeRejectedUpload)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsCancelled checks if an error is a cancelled interaction
func IsCancelled(err error) bool {
	return IsType(err, ErrorTypeCancelled)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// HTTPStatusOf returns the status code an error should be reported with.
func HTTPStatusOf(err error) int {
	if appErr := GetAppError(err); appErr != nil && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
