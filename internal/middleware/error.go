package middleware

import (
	"errors"
	"net/http"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/dto"
	"trivia-rag/internal/logger"
	"trivia-rag/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is a centralized error handling middleware.
// Every error is rendered as dto.ErrorResponse{detail, code}.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get().With(zap.String("path", c.Path()), zap.String("request_id", RequestID(c)))

		// Handle validation errors
		var validationErrs validation.Errors
		if errors.As(err, &validationErrs) {
			log.Warn("Validation errors occurred", zap.Int("error_count", len(validationErrs)))
			return c.Status(http.StatusBadRequest).JSON(dto.ErrorResponse{
				Detail: validationErrs.Error(),
				Code:   string(domain.ErrInvalidArgument),
			})
		}

		// Handle domain errors
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			statusCode := mapDomainErrorToHTTPStatus(domainErr)
			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", statusCode),
				zap.Error(domainErr.Err),
			}
			if statusCode < http.StatusInternalServerError {
				log.Warn("Request rejected", fields...)
			} else {
				log.Error("Domain error occurred", fields...)
			}

			return c.Status(statusCode).JSON(dto.ErrorResponse{
				Detail: domainErr.Message,
				Code:   string(domainErr.Code),
			})
		}

		// Handle fiber errors
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			code := "HTTP_ERROR"
			if fiberErr.Code == http.StatusBadRequest || fiberErr.Code == http.StatusRequestEntityTooLarge {
				code = string(domain.ErrInvalidArgument)
			}
			return c.Status(fiberErr.Code).JSON(dto.ErrorResponse{
				Detail: fiberErr.Message,
				Code:   code,
			})
		}

		// Handle unknown errors
		log.Error("Unknown error occurred", zap.Error(err))

		return c.Status(http.StatusInternalServerError).JSON(dto.ErrorResponse{
			Detail: "Internal server error",
			Code:   string(domain.ErrInternal),
		})
	}
}

// mapDomainErrorToHTTPStatus maps domain errors to HTTP status codes
func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.ErrInvalidArgument:
		return http.StatusBadRequest
	case domain.ErrProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
