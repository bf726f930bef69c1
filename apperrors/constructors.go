package apperrors

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Transport errors

func NewSocketClosedError(endpoint string, err error) *AppError {
	return New(ErrCodeSocketClosed, "Socket is not open", fiber.StatusServiceUnavailable).
		WithOperation("socket_send").
		WithDetails("endpoint", endpoint).
		WithInternal(err)
}

// NewSocketExhaustedError carries the blocking notice shown after the retry budget is spent
func NewSocketExhaustedError(endpoint string, attempts int) *AppError {
	return New(ErrCodeSocketExhausted, "无法连接到服务器，请刷新页面重试", fiber.StatusServiceUnavailable).
		WithOperation("socket_reconnect").
		WithDetails("endpoint", endpoint).
		WithDetails("attempts", attempts)
}

func NewFrameMalformedError(size int, err error) *AppError {
	return New(ErrCodeFrameMalformed, "Malformed inbound frame", fiber.StatusBadRequest).
		WithOperation("frame_decode").
		WithDetails("size", size).
		WithInternal(err)
}

// Backend request errors

// NewRequestFailedError is a non-2xx answer from the backend
func NewRequestFailedError(endpoint string, status int, label string) *AppError {
	return New(ErrCodeRequestFailed, fmt.Sprintf("%s: %d", label, status), fiber.StatusBadGateway).
		WithOperation("backend_request").
		WithDetails("endpoint", endpoint).
		WithDetails("upstream_status", status)
}

// NewNetworkError is a transport-level failure reaching the backend
func NewNetworkError(endpoint string, err error) *AppError {
	return New(ErrCodeNetwork, "网络错误", fiber.StatusBadGateway).
		WithOperation("backend_request").
		WithDetails("endpoint", endpoint).
		WithInternal(err)
}

func NewCircuitBreakerError(service string, state string) *AppError {
	return New(ErrCodeServiceUnavail, "服务暂时不可用，请稍后再试", fiber.StatusServiceUnavailable).
		WithOperation("circuit_breaker_check").
		WithDetails("service", service).
		WithDetails("breaker_state", state)
}

func NewGroupRejectedError(reason string) *AppError {
	if reason == "" {
		reason = "未知错误"
	}
	return New(ErrCodeGroupRejected, reason, fiber.StatusBadRequest).
		WithOperation("create_group")
}

// Validation errors

func NewValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message, fiber.StatusBadRequest)
}

func NewMessageEmpty() *AppError {
	return New(ErrCodeMessageEmpty, "消息不能为空", fiber.StatusBadRequest)
}

func NewNoConversation() *AppError {
	return New(ErrCodeNoConversation, "请先选择联系人或群聊", fiber.StatusBadRequest)
}

func NewBadRequest(message string) *AppError {
	if message == "" {
		message = "Bad request"
	}
	return New(ErrCodeInvalidInput, message, fiber.StatusBadRequest)
}

// Session errors

func NewUnauthorized(message string) *AppError {
	if message == "" {
		message = "Sign-in required"
	}
	return New(ErrCodeUnauthorized, message, fiber.StatusUnauthorized)
}

func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An internal error occurred"
	}
	return New(ErrCodeInternal, message, fiber.StatusInternalServerError)
}
