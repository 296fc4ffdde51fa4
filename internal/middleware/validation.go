package middleware

import (
	"trivia-rag/internal/domain"
	"trivia-rag/internal/dto"
	"trivia-rag/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const validatedRequestLocal = "validated_request"

// ValidationMiddleware parses and validates JSON request bodies
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateGenerateRequest parses a dto.GenerateRequest body and stores the normalized value.
func (vm *ValidationMiddleware) ValidateGenerateRequest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.GenerateRequest
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidArgumentError("request body must be a JSON object")
		}
		if errs := vm.validator.ValidateGenerateRequest(&req); len(errs) > 0 {
			return errs // This will be handled by ErrorHandler middleware
		}
		c.Locals(validatedRequestLocal, req)
		return c.Next()
	}
}

// ValidateTopicRequest parses a dto.TopicRequest body and stores it.
func (vm *ValidationMiddleware) ValidateTopicRequest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.TopicRequest
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidArgumentError("request body must be a JSON object")
		}
		if errs := vm.validator.ValidateTopicRequest(&req); len(errs) > 0 {
			return errs
		}
		c.Locals(validatedRequestLocal, req)
		return c.Next()
	}
}

// ValidatedRequest returns the body stored by one of the validators.
func ValidatedRequest[T any](c *fiber.Ctx) (T, bool) {
	req, ok := c.Locals(validatedRequestLocal).(T)
	return req, ok
}
