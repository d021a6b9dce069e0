// internal/api/response_helpers.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON reply.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper writes envelopes.
type ResponseHelper struct {
	logger *utils.Logger
}

func NewResponseHelper(logger *utils.Logger) *ResponseHelper {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &ResponseHelper{logger: logger}
}

func (rh *ResponseHelper) write(c *gin.Context, status int, data interface{}, message []string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(status, response)
}

func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusOK, data, message)
}

func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusCreated, data, message)
}

// Accepted answers a request whose work continues in the background.
func (rh *ResponseHelper) Accepted(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusAccepted, data, message)
}

// Error writes an error envelope and aborts the chain.
func (rh *ResponseHelper) Error(c *gin.Context, status int, code, message string, details ...string) {
	apiErr := &APIError{
		Code:    code,
		Message: sanitizeErrorMessage(message),
	}
	if len(details) > 0 {
		apiErr.Details = sanitizeErrorMessage(details[0])
	}
	c.AbortWithStatusJSON(status, &APIResponse{
		Success:   false,
		Error:     apiErr,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

func (rh *ResponseHelper) NotFound(c *gin.Context, code, message string) {
	rh.Error(c, http.StatusNotFound, code, message)
}

func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// FromError maps a service error onto its status and code. Unexpected
// errors are logged and reported without their text.
func (rh *ResponseHelper) FromError(c *gin.Context, err error) {
	status := statusFor(err)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		rh.logger.Error("unhandled request error", "path", c.FullPath(), "request_id", rh.getRequestID(c), "error", err)
		rh.InternalError(c, "internal server error")
		return
	}
	if status >= http.StatusInternalServerError {
		rh.logger.Warn("request failed", "path", c.FullPath(), "request_id", rh.getRequestID(c), "error", err)
	}
	var details []string
	if appErr.Err != nil {
		details = append(details, appErr.Err.Error())
	}
	rh.Error(c, status, codeFor(err), appErr.Message, details...)
}

// File sends an export artifact as a download.
func (rh *ResponseHelper) File(c *gin.Context, res *models.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.FileName))
	c.Header("X-Request-ID", rh.getRequestID(c))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

var secretPattern = regexp.MustCompile(`(?i)(sk-[a-z0-9_\-]{8,}|(api[_-]?key|secret|token|password)\s*[=:]\s*\S+)`)

// sanitizeErrorMessage masks credentials that upstream errors sometimes echo.
func sanitizeErrorMessage(message string) string {
	return secretPattern.ReplaceAllString(message, "[REDACTED]")
}
