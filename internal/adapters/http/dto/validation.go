package dto

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation wraps struct validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps body decoding failures.
	ErrBinding = errors.New("binding failed")
)

// Validator returns the shared validator. Field errors are reported under
// their JSON names, and the "dotted" tag checks context paths.
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	if err := v.RegisterValidation("dotted", validateDottedPath); err != nil {
		panic(err)
	}

	return v
})

// Validate checks v against its validate tags.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// ValidationErrors returns one message per failing field, keyed by JSON
// name. Errors that do not come from the validator yield an empty map.
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			out[fe.Field()] = validationMessage(fe)
		}
	}

	return out
}

// IsValidationError reports whether err carries validator field errors.
func IsValidationError(err error) bool {
	var fieldErrs validator.ValidationErrors
	return errors.As(err, &fieldErrs)
}

var validationMessages = map[string]string{
	"required": "this field is required",
	"dotted":   "must be a dotted path without empty segments",
	"oneof":    "must be one of: {param}",
}

func validationMessage(fe validator.FieldError) string {
	switch tag := fe.Tag(); tag {
	case "min", "max":
		return minMaxMessage(tag, fe.Param(), fe.Type().Kind())
	default:
		if msg, ok := validationMessages[tag]; ok {
			return strings.ReplaceAll(msg, "{param}", fe.Param())
		}

		return "failed validation: " + tag
	}
}

func minMaxMessage(tag, param string, kind reflect.Kind) string {
	bound := "at least"
	if tag == "max" {
		bound = "at most"
	}

	if kind == reflect.String {
		return "must be " + bound + " " + param + " characters"
	}

	return "must be " + bound + " " + param
}

// validateDottedPath accepts "a.b.c" and rejects leading, trailing or
// doubled dots. Emptiness is left to "required".
func validateDottedPath(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	return !slices.Contains(strings.Split(value, "."), "")
}
