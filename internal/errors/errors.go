package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeStoreUnavailable indicates the shared key-value store (or the
	// permission database) could not be reached. Fatal at startup; per-call
	// it surfaces as a 5xx.
	ErrCodeStoreUnavailable ErrorCode = "store_unavailable"
	// ErrCodeUnauthenticated indicates a missing, invalid or expired session.
	// Deliberately does not distinguish "expired" from "never existed".
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeForbidden indicates an authenticated caller without the
	// required role or permission.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeCompanyAccessDenied indicates a cross-tenant access attempt.
	ErrCodeCompanyAccessDenied ErrorCode = "company_access_denied"
	// ErrCodePermissionCheckFailed indicates the permission oracle errored.
	// Always treated as deny (fail-closed).
	ErrCodePermissionCheckFailed ErrorCode = "permission_check_failed"
	// ErrCodeSerialization indicates a corrupt cache or session payload.
	// Treated as a miss by callers, never propagated as a crash.
	ErrCodeSerialization ErrorCode = "serialization"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StoreUnavailable creates a new StoreUnavailable error wrapping the
// connectivity failure.
func StoreUnavailable(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeStoreUnavailable, Message: message, Cause: cause}
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthenticated, Message: message}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: message}
}

// Forbiddenf creates a new Forbidden error with formatted message.
func Forbiddenf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// CompanyAccessDenied creates a new CompanyAccessDenied error.
func CompanyAccessDenied(message string) *AppError {
	return &AppError{Code: ErrCodeCompanyAccessDenied, Message: message}
}

// PermissionCheckFailed creates a new PermissionCheckFailed error wrapping
// the oracle failure.
func PermissionCheckFailed(message string, cause error) *AppError {
	return &AppError{Code: ErrCodePermissionCheckFailed, Message: message, Cause: cause}
}

// Serialization creates a new Serialization error wrapping the decode failure.
func Serialization(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeSerialization, Message: message, Cause: cause}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsStoreUnavailable checks if an error is a StoreUnavailable error.
func IsStoreUnavailable(err error) bool {
	return isCode(err, ErrCodeStoreUnavailable)
}

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool {
	return isCode(err, ErrCodeUnauthenticated)
}

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool {
	return isCode(err, ErrCodeForbidden)
}

// IsCompanyAccessDenied checks if an error is a CompanyAccessDenied error.
func IsCompanyAccessDenied(err error) bool {
	return isCode(err, ErrCodeCompanyAccessDenied)
}

// IsPermissionCheckFailed checks if an error is a PermissionCheckFailed error.
func IsPermissionCheckFailed(err error) bool {
	return isCode(err, ErrCodePermissionCheckFailed)
}

// IsSerialization checks if an error is a Serialization error.
func IsSerialization(err error) bool {
	return isCode(err, ErrCodeSerialization)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
