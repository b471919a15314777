package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "MatchReport", &MatchTextFormatter{})
	registry.RegisterFormatter("markdown", "MatchReport", &MatchMarkdownFormatter{})
	registry.RegisterFormatter("text", "KeywordReport", &KeywordTextFormatter{})
	registry.RegisterFormatter("markdown", "KeywordReport", &KeywordMarkdownFormatter{})

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
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
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
	sort.Strings(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.MatchReport:
		if v != nil {
			return *v
		}
	case *types.KeywordReport:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.MatchReport:
		return "MatchReport"
	case types.KeywordReport:
		return "KeywordReport"
	default:
		return "any"
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
	return "any"
}

// MatchTextFormatter handles text formatting for match results
type MatchTextFormatter struct{}

func (mtf *MatchTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.MatchReport)
	if !ok {
		return "", fmt.Errorf("expected MatchReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== MATCH SCORE ===\n")
	output.WriteString(fmt.Sprintf("Final Score:    %.2f/100\n", report.FinalScore))
	output.WriteString(fmt.Sprintf("Semantic Score: %.2f/100 (weight %.2f)\n", report.SemanticScore, report.Weights.Semantic))
	output.WriteString(fmt.Sprintf("Keyword Score:  %.2f/100 (weight %.2f)\n\n", report.KeywordScore, report.Weights.Keyword))

	output.WriteString("=== RESUME KEYWORDS ===\n")
	writeTextList(&output, report.ResumeKeywords)

	output.WriteString("=== JOB KEYWORDS ===\n")
	writeTextList(&output, report.JobKeywords)

	output.WriteString("=== MATCHED KEYWORDS ===\n")
	writeTextList(&output, report.MatchedKeywords)

	output.WriteString("=== MISSING KEYWORDS ===\n")
	writeTextList(&output, report.MissingKeywords)

	return output.String(), nil
}

func (mtf *MatchTextFormatter) SupportedType() string {
	return "MatchReport"
}

func writeTextList(output *strings.Builder, items []string) {
	if len(items) == 0 {
		output.WriteString("(none)\n\n")
		return
	}
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// MatchMarkdownFormatter handles markdown formatting for match results
type MatchMarkdownFormatter struct{}

func (mmf *MatchMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.MatchReport)
	if !ok {
		return "", fmt.Errorf("expected MatchReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Match Report\n\n")
	output.WriteString(fmt.Sprintf("**Final Score:** %.2f/100\n\n", report.FinalScore))
	output.WriteString("| Signal | Score | Weight |\n")
	output.WriteString("|---|---|---|\n")
	output.WriteString(fmt.Sprintf("| Semantic similarity | %.2f | %.2f |\n", report.SemanticScore, report.Weights.Semantic))
	output.WriteString(fmt.Sprintf("| Keyword overlap | %.2f | %.2f |\n\n", report.KeywordScore, report.Weights.Keyword))

	if len(report.MatchedKeywords) > 0 {
		output.WriteString("## Matched Keywords\n")
		for _, keyword := range report.MatchedKeywords {
			output.WriteString(fmt.Sprintf("- ✅ %s\n", keyword))
		}
		output.WriteString("\n")
	}
	if len(report.MissingKeywords) > 0 {
		output.WriteString("## Missing Keywords\n")
		for _, keyword := range report.MissingKeywords {
			output.WriteString(fmt.Sprintf("- ❌ %s\n", keyword))
		}
		output.WriteString("\n")
	}

	output.WriteString("## Resume Keywords\n")
	for i, keyword := range report.ResumeKeywords {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, keyword))
	}
	output.WriteString("\n## Job Keywords\n")
	for i, keyword := range report.JobKeywords {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, keyword))
	}

	return output.String(), nil
}

func (mmf *MatchMarkdownFormatter) SupportedType() string {
	return "MatchReport"
}

// KeywordTextFormatter handles text formatting for keyword extraction results
type KeywordTextFormatter struct{}

func (ktf *KeywordTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.KeywordReport)
	if !ok {
		return "", fmt.Errorf("expected KeywordReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== KEYWORDS ===\n")
	if report.Source != "" {
		output.WriteString(fmt.Sprintf("Source: %s\n", report.Source))
	}
	output.WriteString(fmt.Sprintf("Stop words: %s\n\n", report.Language))
	for i, keyword := range report.Keywords {
		output.WriteString(fmt.Sprintf("%2d. %s\n", i+1, keyword))
	}
	return output.String(), nil
}

func (ktf *KeywordTextFormatter) SupportedType() string {
	return "KeywordReport"
}

// KeywordMarkdownFormatter handles markdown formatting for keyword extraction results
type KeywordMarkdownFormatter struct{}

func (kmf *KeywordMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.KeywordReport)
	if !ok {
		return "", fmt.Errorf("expected KeywordReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Keywords\n\n")
	if report.Source != "" {
		output.WriteString(fmt.Sprintf("**Source:** %s\n\n", report.Source))
	}
	for i, keyword := range report.Keywords {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, keyword))
	}
	return output.String(), nil
}

func (kmf *KeywordMarkdownFormatter) SupportedType() string {
	return "KeywordReport"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
