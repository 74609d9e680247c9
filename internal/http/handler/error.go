package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pdfstore/internal/http/middleware"
	"pdfstore/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeError writes a standardized JSON error response.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "PDF_REQUIRED", "NOT_FOUND", "STORAGE_ERROR")
// - message: human-readable safe message
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorDetails(c, status, code, message, "")
}

// writeErrorDetails is writeError with the underlying failure surfaced for diagnostics.
func writeErrorDetails(c *fiber.Ctx, status int, code, message, details string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates a service error into its HTTP response.
func writeServiceError(c *fiber.Ctx, err error) error {
	var se *service.StorageError
	switch {
	case errors.Is(err, service.ErrInvalidPDFData):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PDF_DATA", "pdf data is not valid base64")
	case errors.Is(err, service.ErrPDFRequired):
		return writeError(c, fiber.StatusBadRequest, "PDF_REQUIRED", "no PDF file provided")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "pdf not found")
	case errors.As(err, &se):
		return writeErrorDetails(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "storage operation failed", se.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body exceeds the size limit")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
