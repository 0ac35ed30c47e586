package middleware

import (
	"exam-agent/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ExerciseIDKey is the fiber.Ctx locals key of a validated exercise ID.
const ExerciseIDKey = "validated_exercise_id"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateExerciseID validates the :id path parameter
func (vm *ValidationMiddleware) ValidateExerciseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateExerciseID(id); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		c.Locals(ExerciseIDKey, id)
		return c.Next()
	}
}
