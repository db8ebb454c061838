package common

import (
	"fmt"
	"slices"

	"atsmatch/internal/formatters"
)

// ValidateOutputFormat checks format against the configured list, when one is
// configured, and against the formats the registry can render
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) > 0 && !slices.Contains(supportedFormats, format) {
		return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
			format, supportedFormats)
	}

	if !formatters.GlobalRegistry.Supports(format) {
		return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
			format, formatters.GlobalRegistry.GetSupportedFormats())
	}
	return nil
}
