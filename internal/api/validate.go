package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its `validate` struct tags.
// Field failures are returned as a *ValidationError naming the first offending JSON field.
func Validate(v any) error {
	err := defaultValidator.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return NewValidationError("", err.Error())
	}

	fe := validationErrs[0]
	msg := fmt.Sprintf("failed '%s' validation", fe.Tag())
	if fe.Param() != "" {
		msg += fmt.Sprintf(" (param: %s)", fe.Param())
	}
	return NewValidationError(jsonFieldName(fe.Field()), msg)
}

// jsonFieldName lowercases the first letter of a Go field name (WhatsApp -> whatsApp)
// so messages match the camelCase JSON bodies.
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	if strings.EqualFold(field, "whatsapp") {
		return "whatsapp"
	}
	return strings.ToLower(field[:1]) + field[1:]
}
