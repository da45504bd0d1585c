// Package apperr defines the structured error taxonomy for the action engine.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Validation errors
	CodeMissingRecipient = "MISSING_RECIPIENT"
	CodeMissingTitle     = "MISSING_TITLE"
	CodeInvalidDateRange = "INVALID_DATE_RANGE"
	CodeBadRequest       = "BAD_REQUEST"

	// Model errors
	CodeModelOverloaded = "MODEL_OVERLOADED" // transient, retried before surfacing
	CodeModelFailure    = "MODEL_FAILURE"    // hard failure, never retried

	// Collaborator errors
	CodeAttachmentNotFound = "ATTACHMENT_NOT_FOUND" // non-fatal, mail proceeds without it
	CodeDispatchFailed     = "DISPATCH_FAILED"

	// Auth / internal
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInternalError = "INTERNAL_ERROR"
)

// AppError represents a structured application error.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the HTTP status code.
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation errors
func MissingRecipient() *AppError {
	return &AppError{
		Code:    CodeMissingRecipient,
		Message: "no recipient address could be determined",
		Status:  http.StatusBadRequest,
	}
}

func MissingTitle() *AppError {
	return &AppError{
		Code:    CodeMissingTitle,
		Message: "the event has no title",
		Status:  http.StatusBadRequest,
	}
}

func InvalidDateRange(reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidDateRange,
		Message: fmt.Sprintf("invalid event date range: %s", reason),
		Status:  http.StatusBadRequest,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// Model errors
func ModelOverloaded(err error) *AppError {
	return &AppError{
		Code:    CodeModelOverloaded,
		Message: "model service overloaded, retry budget exhausted",
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func ModelFailure(err error) *AppError {
	return &AppError{
		Code:    CodeModelFailure,
		Message: "model call failed",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// Collaborator errors
func AttachmentNotFound(reference string) *AppError {
	return &AppError{
		Code:    CodeAttachmentNotFound,
		Message: fmt.Sprintf("no stored file matches %q", reference),
		Status:  http.StatusNotFound,
		Details: map[string]any{"reference": reference},
	}
}

func DispatchFailed(collaborator string, err error) *AppError {
	return &AppError{
		Code:    CodeDispatchFailed,
		Message: fmt.Sprintf("dispatch via %s failed", collaborator),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"collaborator": collaborator},
		Err:     err,
	}
}

// Auth / internal
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Helper functions
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
