package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/sylva-dev/sylva/domain"
)

// EncodeJSON returns an indented JSON string for the given value.
func EncodeJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", domain.NewOutputError("failed to marshal JSON", err)
	}
	return string(data) + "\n", nil
}

// EncodeYAML returns a YAML string for the given value.
func EncodeYAML(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", domain.NewOutputError("failed to marshal YAML", err)
	}
	return string(data), nil
}

const headerWidth = 40

var (
	headerColor = color.New(color.Bold)
	fileColor   = color.New(color.FgCyan)
	errColor    = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
	dimColor    = color.New(color.Faint)
)

// FormatUtils provides shared text formatting helpers
type FormatUtils struct{}

// NewFormatUtils creates a new format utilities instance
func NewFormatUtils() *FormatUtils {
	return &FormatUtils{}
}

// FormatMainHeader creates a standardized main header
func (f *FormatUtils) FormatMainHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(headerColor.Sprint(title) + "\n")
	builder.WriteString(strings.Repeat("=", headerWidth) + "\n\n")
	return builder.String()
}

// FormatSectionHeader creates a standardized section header
func (f *FormatUtils) FormatSectionHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(headerColor.Sprint(strings.ToUpper(title)) + "\n")
	builder.WriteString(strings.Repeat("-", len(title)) + "\n")
	return builder.String()
}

// FormatFileHeader renders a per-file heading
func (f *FormatUtils) FormatFileHeader(path string) string {
	return fileColor.Sprint(path) + "\n"
}

// FormatLabel creates a consistently formatted label line
func (f *FormatUtils) FormatLabel(label string, value interface{}) string {
	return fmt.Sprintf("  %-18s %v\n", label+":", value)
}

// FormatFailure renders a per-file failure line
func (f *FormatUtils) FormatFailure(path, reason string) string {
	return fmt.Sprintf("%s  %s\n", fileColor.Sprint(path), errColor.Sprint(reason))
}

// FormatStatus renders an ok/error marker
func (f *FormatUtils) FormatStatus(hasError bool) string {
	if hasError {
		return errColor.Sprint("errors")
	}
	return okColor.Sprint("ok")
}

// FormatDim renders secondary detail text
func (f *FormatUtils) FormatDim(text string) string {
	return dimColor.Sprint(text)
}
