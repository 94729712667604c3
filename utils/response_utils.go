package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// FormatValidationErrors formats validation errors from validator/v10 into
// human-readable field messages.
func FormatValidationErrors(err error) []string {
	var formatted []string
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			formatted = append(formatted, err.Error())
		}
		return formatted
	}
	for _, ferr := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", ferr.Field(), ferr.Tag())
		if ferr.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, ferr.Param())
		}
		formatted = append(formatted, element)
	}
	return formatted
}

// SanitizeInput trims surrounding whitespace from user-supplied text.
func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}
