// Package response writes the JSON bodies of the ingest API. Every error uses
// one envelope, {"error":{"code":...,"message":...,"details":...}}, whose code
// is derived from the HTTP status.
package response

import "github.com/gofiber/fiber/v2"

const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeServiceError    = "SERVICE_ERROR"
)

var statusCodes = map[int]string{
	fiber.StatusBadRequest:            CodeValidationError,
	fiber.StatusUnprocessableEntity:   CodeValidationError,
	fiber.StatusUnauthorized:          CodeUnauthorized,
	fiber.StatusNotFound:              CodeNotFound,
	fiber.StatusConflict:              CodeConflict,
	fiber.StatusRequestEntityTooLarge: CodeTooLarge,
	fiber.StatusTooManyRequests:       CodeRateLimited,
}

// CodeFor maps an HTTP status to its error code. Unlisted statuses are
// reported as service errors.
func CodeFor(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return CodeServiceError
}

// Envelope is the body of every error response.
type Envelope struct {
	Error Problem `json:"error"`
}

type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error writes status with the envelope for it.
func Error(c *fiber.Ctx, status int, message string, details any) error {
	return c.Status(status).JSON(Envelope{Error: Problem{
		Code:    CodeFor(status),
		Message: message,
		Details: details,
	}})
}

// ValidationError carries per-field messages in details.
func ValidationError(c *fiber.Ctx, message string, details any) error {
	return Error(c, fiber.StatusBadRequest, message, details)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message, nil)
}

// NotFound is also used for datasets owned by someone else.
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message, nil)
}

// Conflict reports a request that does not fit the dataset's current state,
// such as asking for the cleaning plan before analysis is done.
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message, nil)
}

func TooLarge(c *fiber.Ctx, message string, details any) error {
	return Error(c, fiber.StatusRequestEntityTooLarge, message, details)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, "Rate limit exceeded", nil)
}

func ServiceError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message, nil)
}

func OK(c *fiber.Ctx, data any) error {
	return c.JSON(data)
}

// Accepted answers an upload whose analysis has been queued.
func Accepted(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusAccepted).JSON(data)
}
