package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler converts errors escaping handlers into the standard envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals("requestID").(string)

		resp := ErrorResponse{
			Success:   false,
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		var status int
		var appErr *apperr.AppError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			resp.Error = ErrorDetail{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			}
			lg := logger.WithField("request_id", requestID).WithField("error_code", appErr.Code)
			if status >= 500 {
				lg.Error("internal error: %s", appErr.Message)
			} else {
				lg.Warn("request error: %s", appErr.Message)
			}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			resp.Error = ErrorDetail{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
			}
		default:
			status = fiber.StatusInternalServerError
			resp.Error = ErrorDetail{
				Code:    apperr.CodeInternalError,
				Message: "internal server error",
			}
			logger.WithField("request_id", requestID).Error("unhandled error: %v", err)
		}

		return c.Status(status).JSON(resp)
	}
}
