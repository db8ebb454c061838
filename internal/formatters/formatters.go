// Package formatters renders command results as json, text or markdown.
package formatters

import (
	"encoding/json"
	"fmt"
	"slices"

	"atsmatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Data type keys used by the registry
const (
	TypeAny          = "any"
	TypeScore        = "ScoreResult"
	TypeOptimization = "OptimizationResult"
	TypeGapAnalysis  = "GapAnalysis"
	TypeRephrase     = "RephraseResult"
	TypeParse        = "ParseResult"
)

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("text", TypeScore, &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", TypeScore, &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeOptimization, &OptimizationTextFormatter{})
	registry.RegisterFormatter("markdown", TypeOptimization, &OptimizationMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeGapAnalysis, &GapTextFormatter{})
	registry.RegisterFormatter("markdown", TypeGapAnalysis, &GapMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeRephrase, &PlainTextFormatter{})
	registry.RegisterFormatter("markdown", TypeRephrase, &PlainTextFormatter{})
	registry.RegisterFormatter("text", TypeParse, &PlainTextFormatter{})
	registry.RegisterFormatter("markdown", TypeParse, &PlainTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// Supports reports whether format is registered
func (fr *FormatterRegistry) Supports(format string) bool {
	_, ok := fr.formatters[format]
	return ok
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.ScoreResult:
		return *v
	case *types.OptimizationResult:
		return *v
	case *types.GapAnalysis:
		return *v
	case *types.RephraseResult:
		return *v
	case *types.ParseResult:
		return *v
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreResult:
		return TypeScore
	case types.OptimizationResult:
		return TypeOptimization
	case types.GapAnalysis:
		return TypeGapAnalysis
	case types.RephraseResult:
		return TypeRephrase
	case types.ParseResult:
		return TypeParse
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// PlainTextFormatter prints the single text field of rephrase and parse results
type PlainTextFormatter struct{}

func (pf *PlainTextFormatter) Format(data any) (string, error) {
	switch v := data.(type) {
	case types.RephraseResult:
		return v.OptimizedText + "\n", nil
	case types.ParseResult:
		return v.Text + "\n", nil
	}
	return "", fmt.Errorf("expected RephraseResult or ParseResult, got %T", data)
}

func (pf *PlainTextFormatter) SupportedType() string {
	return TypeRephrase
}

// GlobalRegistry is the registry used by command output
var GlobalRegistry = NewFormatterRegistry()
