package shared

import (
	"errors"
	"net/http"
)

// Stable machine-readable error codes. These are part of the HTTP contract
// and must not change between releases.
const (
	CodeMissingToken          = "missing_token"
	CodeInvalidToken          = "invalid_token"
	CodeMissingAPIKey         = "missing_api_key"
	CodeInvalidAPIKey         = "invalid_api_key"
	CodeInvalidClient         = "invalid_client"
	CodeTooManyFailedAttempts = "too_many_failed_attempts"
	CodeRateLimitExceeded     = "rate_limit_exceeded"
	CodeValidationFailed      = "validation_failed"
	CodeMissingRequiredField  = "missing_required_field"
	CodePayloadTooLarge       = "payload_too_large"
	CodeResourceNotFound      = "resource_not_found"
	CodeMethodNotAllowed      = "method_not_allowed"
	CodeEnhancementTimeout    = "enhancement_timeout"
	CodeServiceError          = "service_error"
	CodeInternalError         = "internal_error"
)

// AppError carries an HTTP status, a stable code and a client-safe message
// through the service layer to the centralized error handler.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    interface{}
	RetryAfter int // seconds, stamped as Retry-After when > 0
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches debug detail to the error. Details are stripped by
// the error handler in production mode.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{StatusCode: status, Code: code, Message: message}
}

func NewBadRequestError(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, message)
}

func NewUnauthorizedError(code, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, code, message)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeResourceNotFound, message)
}

func NewPayloadTooLargeError(message string) *AppError {
	return NewAppError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

func NewTooManyRequestsError(code, message string, retryAfter int) *AppError {
	err := NewAppError(http.StatusTooManyRequests, code, message)
	err.RetryAfter = retryAfter
	return err
}

func NewServiceUnavailableError(code, message string, cause error) *AppError {
	err := NewAppError(http.StatusServiceUnavailable, code, message)
	err.Err = cause
	return err
}

func NewInternalError(cause error) *AppError {
	err := NewAppError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
	err.Err = cause
	return err
}

// GetAppError unwraps err into an *AppError if one is in the chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GenericMessage returns the non-leaking message used in production mode
// in place of whatever the error carried.
func GenericMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad request"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusRequestEntityTooLarge:
		return "Payload too large"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable"
	default:
		return "Internal server error"
	}
}
