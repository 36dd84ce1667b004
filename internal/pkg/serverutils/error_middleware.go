package serverutils

import (
	"errors"

	"multistep-rag-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps the error taxonomy onto HTTP status codes
func StatusFor(err error) int {
	var fe *fiber.Error
	var ve *ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	}

	switch rag.Kind(err) {
	case "session_busy":
		return fiber.StatusConflict
	case "empty_question":
		return fiber.StatusBadRequest
	case "session_not_found":
		return fiber.StatusNotFound
	case "gateway_timeout":
		return fiber.StatusGatewayTimeout
	case "schema_violation", "gateway_unavailable", "empty_completion":
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func KindFor(err error) string {
	var fe *fiber.Error
	var ve *ValidationError
	switch {
	case errors.As(err, &fe):
		return "http"
	case errors.As(err, &ve):
		return "validation"
	}
	return rag.Kind(err)
}

// ErrorHandlerMiddleware turns handler errors into the JSON response envelope
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, KindFor(err), message))
	}
}
