package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Session
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Transport
	ErrCodeSocketClosed    ErrorCode = "SOCKET_CLOSED"
	ErrCodeSocketExhausted ErrorCode = "SOCKET_EXHAUSTED"
	ErrCodeFrameMalformed  ErrorCode = "FRAME_MALFORMED"

	// Backend requests
	ErrCodeRequestFailed  ErrorCode = "REQUEST_FAILED"
	ErrCodeNetwork        ErrorCode = "NETWORK_ERROR"
	ErrCodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeGroupRejected  ErrorCode = "GROUP_REJECTED"

	// Validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMessageEmpty     ErrorCode = "MESSAGE_EMPTY"
	ErrCodeNoConversation   ErrorCode = "NO_CONVERSATION"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds contextual details to the error
func (e *AppError) WithDetails(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithInternal wraps an internal error
func (e *AppError) WithInternal(err error) *AppError {
	e.Internal = err
	return e
}

// WithOperation records which operation failed
func (e *AppError) WithOperation(op string) *AppError {
	return e.WithDetails("operation", op)
}

// LogFields flattens the error for the structured logger
func (e *AppError) LogFields() map[string]any {
	fields := map[string]any{
		"code":   string(e.Code),
		"status": e.StatusCode,
	}
	for k, v := range e.Details {
		fields[k] = v
	}
	if e.Internal != nil {
		fields["internal"] = e.Internal.Error()
	}
	return fields
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err is an AppError carrying code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// FromError converts a standard error to AppError if possible
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusUnauthorized:
			return NewUnauthorized("")
		case fiber.StatusNotFound:
			return New(ErrCodeNotFound, "Resource not found", fiber.StatusNotFound)
		case fiber.StatusBadRequest:
			return NewBadRequest(fiberErr.Message)
		}
		return New(ErrCodeInternal, fiberErr.Message, fiberErr.Code)
	}

	return NewInternalError("").WithInternal(err)
}
