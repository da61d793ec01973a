package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level validator. Registrations must happen before the
// first Validate call.
var v = validator.New()

// Validate runs the struct's validate tags and flattens failures into a
// field→message map keyed by the json field name, ready for an
// unprocessable-entity response.
func Validate(s any) map[string]string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fieldName(fe.Field())] = fieldMessage(fe)
	}
	return fields
}

func fieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "eqfield":
		return "Passwords do not match"
	default:
		return "Invalid value"
	}
}
