package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, transport_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errTransport returns a 502 error: the route source could not be read.
func errTransport(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "transport_error", msg)
}

// errFetch maps a route fetch failure to a response.
func errFetch(c *fiber.Ctx, err error) error {
	var te *domain.TransportError
	if errors.As(err, &te) {
		LoggerFromCtx(c.UserContext()).Warn("route source failed", "op", te.Op, "source", te.URL, "error", te.Err)
		return errTransport(c, "vehicle location source unavailable")
	}
	return errInternal(c, err.Error())
}
