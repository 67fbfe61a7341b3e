package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrBadRequest ErrorCode = iota + 1000
	ErrInternal

	// Logging pipeline codes. Callers of the activity service never see
	// these; they classify failures on the inner contracts so the service
	// can decide between degrading, queueing and dropping.
	ErrCapabilityUnavailable
	ErrPreconditionMissing
	ErrTransient
)

// CapabilityUnavailable marks a degraded-but-valid path: the platform has no
// way to satisfy the request (no position provider, no geocoding key).
func CapabilityUnavailable(capability string, err error) *AppError {
	return &AppError{
		Code:    ErrCapabilityUnavailable,
		Message: fmt.Sprintf("%s unavailable", capability),
		Err:     err,
	}
}

// PreconditionMissing marks a silent no-op: a required precondition (access
// token, enabled flag) is absent and the attempt must not be retried.
func PreconditionMissing(precondition string) *AppError {
	return &AppError{
		Code:    ErrPreconditionMissing,
		Message: fmt.Sprintf("%s missing", precondition),
	}
}

// Transient marks a failure worth queueing for bounded retry.
func Transient(message string, err error) *AppError {
	return &AppError{
		Code:    ErrTransient,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal error",
		Err:     err,
	}
}

// IsTransient reports whether err should be queued for retry. Anything that
// is not explicitly classified counts as transient: every failed submission
// gets queued unless the failure says otherwise.
func IsTransient(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrTransient
	}
	return err != nil
}

// Code extracts the ErrorCode from err, or ErrInternal if unclassified.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}
