package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: configured},
		{name: "markdown", format: "markdown", supported: configured},
		{name: "not configured", format: "markdown", supported: []string{"json"},
			expectedError: "unsupported output format 'markdown'. Supported formats: [json]"},
		{name: "case sensitive", format: "JSON", supported: configured,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown]"},
		{name: "empty format", format: "", supported: configured,
			expectedError: "unsupported output format ''. Supported formats: [json text markdown]"},
		{name: "no list falls back to registry", format: "text"},
		{name: "registry rejects unknown", format: "xml",
			expectedError: "unsupported output format 'xml'. Supported formats: [json markdown text]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedError)
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	for b.Loop() {
		_ = ValidateOutputFormat("json", supportedFormats)
	}
}
