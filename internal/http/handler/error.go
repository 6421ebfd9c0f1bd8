package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"noteshare/internal/http/middleware"
	"noteshare/internal/service"
	"noteshare/internal/upload"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NOT_FOUND", "FILE_MISSING")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// respondError translates service-layer sentinel errors into client
// responses. Validation and not-found errors carry their own safe messages;
// anything else is a server error and stays opaque.
//
// A missing record and a missing file both map to 404 but keep distinct
// codes: FILE_MISSING indicates a database/filesystem inconsistency, not a
// bad id.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, upload.ErrMediaType):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_TYPE", err.Error())
	case errors.Is(err, upload.ErrSignature):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_SIGNATURE", err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrEmailExists):
		return writeError(c, fiber.StatusBadRequest, "EMAIL_EXISTS", "email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusBadRequest, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, service.ErrNoteNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "note not found")
	case errors.Is(err, service.ErrUserNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "user not found")
	case errors.Is(err, service.ErrFileMissing):
		return writeError(c, fiber.StatusNotFound, "FILE_MISSING", "file missing")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := ""
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			message = e.Message
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			if message == "" {
				message = "authorization token required"
			}
			return writeError(c, status, "UNAUTHORIZED", message)
		case fiber.StatusNotFound:
			if message == "" {
				message = "resource not found"
			}
			return writeError(c, status, "NOT_FOUND", message)
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "uploaded file exceeds the size limit")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
