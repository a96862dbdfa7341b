package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int      `json:"status"`
	Code      string   `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string   `json:"message"` // Human-readable message
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string, details ...string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, 403, "forbidden", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errUnprocessable returns a 422 error listing the validation failures.
func errUnprocessable(c *fiber.Ctx, msg string, details []string) error {
	return newError(c, 422, "unprocessable", msg, details...)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "bad_gateway", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// errSave maps a save failure to a status code and user-facing message.
func errSave(c *fiber.Ctx, err error) error {
	kind := domain.ClassifySaveError(err)
	switch kind {
	case domain.SaveErrorConflict:
		return errConflict(c, kind.UserMessage())
	case domain.SaveErrorPermission:
		return errForbidden(c, kind.UserMessage())
	case domain.SaveErrorNotFound:
		return errNotFound(c, kind.UserMessage())
	case domain.SaveErrorNetwork:
		return errBadGateway(c, kind.UserMessage())
	default:
		LoggerFromCtx(c.UserContext()).Error("save geometry", "error", err)
		return errInternal(c, kind.UserMessage())
	}
}

// errLookup maps repository lookups: ErrNotFound becomes 404, anything
// else 500.
func errLookup(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return errNotFound(c, what+" not found")
	}
	return errInternal(c, err.Error())
}
