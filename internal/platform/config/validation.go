package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterStructValidation(validateAppContext, AppContextConfig{})
}

// Validate validates the configuration. The service should not start with
// invalid config.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// validateAppContext rejects a "static" provider entry with nothing to
// expand to, provider names that would collide in the engine, and an
// enabled webhook without a target.
func validateAppContext(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(AppContextConfig)
	if !ok {
		return
	}

	if slices.Contains(cfg.Providers, "static") && len(cfg.Static) == 0 {
		sl.ReportError(cfg.Static, "Static", "Static", "required_with_static", "")
	}

	for i, name := range cfg.Providers {
		if slices.Contains(cfg.Providers[:i], name) {
			sl.ReportError(name, fmt.Sprintf("Providers[%d]", i), "Providers", "unique", "")
		}
	}

	for i, sc := range cfg.Static {
		field := fmt.Sprintf("Static[%d].Name", i)

		switch {
		case sc.Name == "":
			// Reported by the required tag.
		case slices.Contains(BuiltinProviderNames, sc.Name):
			sl.ReportError(sc.Name, field, "Name", "reserved_provider_name", sc.Name)
		case slices.ContainsFunc(cfg.Static[:i], func(prev StaticProviderConfig) bool { return prev.Name == sc.Name }):
			sl.ReportError(sc.Name, field, "Name", "unique", sc.Name)
		}
	}

	if hook, ok := cfg.Channels["webhook"]; ok && hook.Enabled && hook.URL == "" {
		sl.ReportError(hook.URL, "Channels[webhook].URL", "URL", "required_if", "channels.webhook.enabled is true")
	}
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, formatFieldError(e))
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "required_with_static":
		return fmt.Sprintf("%s must declare at least one entry when providers lists static", field)
	case "unique":
		return fmt.Sprintf("%s duplicates an earlier entry", field)
	case "reserved_provider_name":
		return fmt.Sprintf("%s must not reuse the built-in provider name %q", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "timezone":
		return fmt.Sprintf("%s must be an IANA time zone", field)
	case "bcp47_language_tag":
		return fmt.Sprintf("%s must be a BCP 47 language tag", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath converts "Config.AppContext.Cache.TTL" to
// "app_context.cache.ttl".
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	for i, part := range parts {
		parts[i] = snakeCase(part)
	}

	return strings.Join(parts, ".")
}

// snakeCase lowercases a Go field name, separating words with underscores.
// Acronym runs stay together: "MaxSizeMB" becomes "max_size_mb".
func snakeCase(s string) string {
	runes := []rune(s)

	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
