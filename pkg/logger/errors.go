package logger

import (
	"errors"

	"webchat/apperrors"
)

// LogAppError logs an AppError with its details as fields
func LogAppError(err error, level Level) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WithFields(appErr.LogFields()).log(level, appErr.Message)
		return
	}
	WithError(err).log(level, "Unstructured error occurred")
}

// LogAppErrorWithContext is LogAppError plus caller-supplied fields
func LogAppErrorWithContext(err error, level Level, extra map[string]any) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fields := appErr.LogFields()
		for k, v := range extra {
			fields["extra_"+k] = v
		}
		WithFields(fields).log(level, appErr.Message)
		return
	}
	fields := map[string]any{"error": err}
	for k, v := range extra {
		fields[k] = v
	}
	WithFields(fields).log(level, "Unstructured error occurred")
}
