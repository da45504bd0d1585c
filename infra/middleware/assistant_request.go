package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"assistant_server/pkg/logger"
)

// RequestIDHeader is set on every response.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns a request ID when the client did not send one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("requestID", id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

// RequestLogger logs one line per request with latency and status.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		lg := logger.WithField("request_id", c.Locals("requestID")).
			WithField("method", c.Method()).
			WithField("path", c.Path()).
			WithField("status", c.Response().StatusCode()).
			WithField("latency_ms", time.Since(start).Milliseconds())
		if err != nil {
			lg.Error("request failed: %v", err)
		} else {
			lg.Info("request completed")
		}

		return err
	}
}
