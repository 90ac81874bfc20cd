package handlers

import (
	"fmt"

	"farmart/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// validationMessages flattens validator errors into a field -> message map
// for 400 responses.
func validationMessages(err error) map[string]string {
	messages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return messages
}

// errorJSON maps a service error onto the taxonomy's HTTP status and a
// human-readable body.
func errorJSON(c *fiber.Ctx, message string, err error) error {
	return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// withMiddleware prepends route-level middleware to a handler. Used where a
// path mixes public and protected methods, so prefix-level middleware cannot
// be applied.
func withMiddleware(mw []fiber.Handler, h fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(mw)+1)
	chain = append(chain, mw...)
	return append(chain, h)
}
