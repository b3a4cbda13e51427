package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"dokubox/internal/apperr"
	"dokubox/internal/http/middleware"
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

var sentinels = []error{
	apperr.ErrAuthentication,
	apperr.ErrUnauthenticated,
	apperr.ErrRateLimited,
	apperr.ErrSessionConflict,
	apperr.ErrAccessDenied,
	apperr.ErrNotFound,
	apperr.ErrUpload,
	apperr.ErrNetwork,
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes the standardized JSON error body.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// publicMessage is what a client may see for err. Wrapped driver and
// transport detail never leaves the server.
func publicMessage(err error, status int) string {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if status == fiber.StatusInternalServerError {
		return "internal server error"
	}
	return strings.ToLower(http.StatusText(status))
}

// ErrorHandler returns the fiber error handler. Application errors are mapped
// through apperr; fiber errors keep their status.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusBadRequest:
				return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
			case fiber.StatusNotFound:
				return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
			case fiber.StatusRequestEntityTooLarge:
				return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "payload too large")
			}
			if fe.Code < fiber.StatusInternalServerError {
				return writeError(c, fe.Code, "BAD_REQUEST", fe.Message)
			}
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}

		status := apperr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request_failed",
				zap.String("request_id", requestIDFromCtx(c)),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return writeError(c, status, apperr.Code(err), publicMessage(err, status))
	}
}
