package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/internal/logging"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeRecipeNotFound   ErrorCode = "RECIPE_NOT_FOUND"
	ErrorCodeJobNotFound      ErrorCode = "JOB_NOT_FOUND"

	// Server Error Codes (5xx)
	ErrorCodeCorpusUnavailable ErrorCode = "CORPUS_UNAVAILABLE"
	ErrorCodeRebuildFailed     ErrorCode = "REBUILD_FAILED"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)
	errorResponse.RequestID = requestid.Get(c)
	c.AbortWithStatusJSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with one detail per failed field
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendInvalidJSONError sends a standardized invalid JSON error. A body cut off by
// the size limit while being decoded is reported as 413 instead.
func SendInvalidJSONError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		SendBodyTooLargeError(c)
		return
	}
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendBodyTooLargeError sends a 413 for a request body over the configured limit
func SendBodyTooLargeError(c *gin.Context) {
	SendError(c, http.StatusRequestEntityTooLarge, ErrorCodeInvalidRequest, "Request body too large",
		ErrorDetail{Field: "request_body", Message: "body exceeds the configured size limit"})
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	logging.L().Error("internal error", zap.String("operation", operation), zap.Error(err))
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation)
}

// SendEngineError maps an engine error onto the matching status and code.
func SendEngineError(c *gin.Context, operation string, err error) {
	var invalid *errors.InvalidRequestError
	switch {
	case stderrors.As(err, &invalid):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, invalid.Error(),
			ErrorDetail{Field: invalid.Field, Message: invalid.Reason})
	case stderrors.Is(err, errors.ErrInvalidRequest):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
	case stderrors.Is(err, errors.ErrCorpusUnavailable):
		c.Header("Retry-After", "30")
		SendError(c, http.StatusServiceUnavailable, ErrorCodeCorpusUnavailable, err.Error())
	case stderrors.Is(err, errors.ErrRecipeNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeRecipeNotFound, err.Error())
	case stderrors.Is(err, errors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	case stderrors.Is(err, errors.ErrSourceUnavailable):
		SendError(c, http.StatusBadGateway, ErrorCodeRebuildFailed, err.Error())
	default:
		SendInternalError(c, operation, err)
	}
}
