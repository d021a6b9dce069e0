// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an AppError so the transport layer can map it to a
// status code without string matching.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeError      ErrorType = "processing_error"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeTimeout    ErrorType = "timeout"

	// Upstream generation failed (transport error, non-2xx, in-stream error).
	ErrorTypeUpstream ErrorType = "upstream_error"
	// Structured block missing or malformed. Never fatal to a session.
	ErrorTypeExtraction ErrorType = "extraction_error"
	// Rendering or packaging an export artifact failed.
	ErrorTypeExport ErrorType = "export_error"
)

// AppError is the error shape shared by services and handlers.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
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

// NewAppError builds an AppError with the default code for its type.
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

func NewUpstreamError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUpstream, message, originalError)
}

func NewExtractionError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeExtraction, message, originalError)
}

func NewExportError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeExport, message, originalError)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or
// ErrorTypeError when there is none.
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ErrorTypeError
}

func is(err error, t ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == t
	}
	return false
}

func IsValidationError(err error) bool { return is(err, ErrorTypeValidation) }
func IsNotFoundError(err error) bool   { return is(err, ErrorTypeNotFound) }
func IsConflictError(err error) bool   { return is(err, ErrorTypeConflict) }
func IsUpstreamError(err error) bool   { return is(err, ErrorTypeUpstream) }
func IsExportError(err error) bool     { return is(err, ErrorTypeExport) }
func IsExtractionError(err error) bool { return is(err, ErrorTypeExtraction) }

func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeUpstream:
		return "GENERATION_FAILED"
	case ErrorTypeExtraction:
		return "EXTRACTION_FAILED"
	case ErrorTypeExport:
		return "EXPORT_FAILED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError adds context to err. An AppError keeps its type and code.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
