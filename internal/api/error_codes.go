// internal/api/error_codes.go
package api

import (
	"errors"
	"net/http"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
)

// API error codes. Service errors carry their own code from the errors
// package; these cover failures raised by the HTTP layer itself.
const (
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"

	ErrorInvalidIndex = "INVALID_MODULE_INDEX"
	ErrorTaskNotFound = "TASK_NOT_FOUND"

	ErrorLLMConfigInvalid = "LLM_CONFIG_INVALID"

	ErrorFileUploadFailed = "FILE_UPLOAD_FAILED"
	ErrorFileTooLarge     = "FILE_TOO_LARGE"

	ErrorRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// statusFor maps an error's type onto an HTTP status.
func statusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeUpstream:
		return http.StatusBadGateway
	case apperrors.ErrorTypeExtraction:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// codeFor returns the error code carried by err, or ErrorInternalError.
func codeFor(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return ErrorInternalError
}
