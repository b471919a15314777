package common

import (
	"fmt"
	"slices"

	"resumatch/internal/errors"
	"resumatch/internal/formatters"
)

// ValidateOutputFormat accepts format when it is both configured and
// renderable. An empty configured list allows every registered format.
func ValidateOutputFormat(format string, configured []string) error {
	allowed := AllowedFormats(configured)
	if slices.Contains(allowed, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, allowed), nil)
}

// AllowedFormats returns the configured formats the registry can render,
// in configured order.
func AllowedFormats(configured []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(configured) == 0 {
		return registered
	}
	allowed := make([]string, 0, len(configured))
	for _, f := range configured {
		if slices.Contains(registered, f) && !slices.Contains(allowed, f) {
			allowed = append(allowed, f)
		}
	}
	return allowed
}
