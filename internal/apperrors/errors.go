// Package apperrors defines the error taxonomy shared by services and
// handlers. Services wrap these sentinels with fmt.Errorf("...: %w", ...);
// handlers map them to HTTP status codes with errors.Is.
package apperrors

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrNotFound marks an unknown id on read, update or delete.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input or a status transition outside
	// the defined tables.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a lost conditional update (an animal already
	// reserved or sold) or a duplicate unique field.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks a credential or token mismatch.
	ErrUnauthorized = errors.New("unauthorized")
)

// HTTPStatus maps an error to the HTTP status a handler should answer with.
// Anything outside the taxonomy is an internal failure.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}
