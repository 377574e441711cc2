package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sylva-dev/sylva/domain"
)

// ParseOutputFormatterImpl implements the ParseOutputFormatter interface
type ParseOutputFormatterImpl struct{}

// NewParseOutputFormatter creates a new parse output formatter
func NewParseOutputFormatter() *ParseOutputFormatterImpl {
	return &ParseOutputFormatterImpl{}
}

// Format formats the parse response according to the specified format
func (f *ParseOutputFormatterImpl) Format(response *domain.ParseResponse, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.OutputFormatText:
		return f.formatText(response)
	case domain.OutputFormatJSON:
		return EncodeJSON(response)
	case domain.OutputFormatYAML:
		return EncodeYAML(response)
	default:
		return "", domain.NewUnsupportedFormatError(string(format))
	}
}

// Write writes the formatted output to the writer
func (f *ParseOutputFormatterImpl) Write(response *domain.ParseResponse, format domain.OutputFormat, writer io.Writer) error {
	output, err := f.Format(response, format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(writer, output); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

func (f *ParseOutputFormatterImpl) formatText(response *domain.ParseResponse) (string, error) {
	var builder strings.Builder
	utils := NewFormatUtils()

	builder.WriteString(utils.FormatMainHeader("Parse Report"))

	for _, file := range response.Files {
		if file.Failed {
			builder.WriteString(utils.FormatFailure(file.FilePath, file.Reason))
			continue
		}

		builder.WriteString(utils.FormatFileHeader(file.FilePath))
		builder.WriteString(utils.FormatLabel("language", file.Language))
		builder.WriteString(utils.FormatLabel("nodes", file.NodeCount))
		builder.WriteString(utils.FormatLabel("status", utils.FormatStatus(file.HasError)))
		if file.ErrorCount > 0 {
			builder.WriteString(utils.FormatLabel("syntax errors", file.ErrorCount))
		}
		if file.Tree != "" {
			builder.WriteString(file.Tree)
			if !strings.HasSuffix(file.Tree, "\n") {
				builder.WriteString("\n")
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(utils.FormatSectionHeader("Summary"))
	builder.WriteString(utils.FormatLabel("files", response.Summary.TotalFiles))
	builder.WriteString(utils.FormatLabel("parsed", response.Summary.ParsedFiles))
	if response.Summary.FailedFiles > 0 {
		builder.WriteString(utils.FormatLabel("failed", response.Summary.FailedFiles))
	}
	if response.Summary.FilesWithErr > 0 {
		builder.WriteString(utils.FormatLabel("with errors", response.Summary.FilesWithErr))
	}
	builder.WriteString(utils.FormatLabel("total nodes", response.Summary.TotalNodes))
	builder.WriteString(utils.FormatLabel("duration", time.Duration(response.Summary.DurationUS)*time.Microsecond))

	return builder.String(), nil
}

// QueryOutputFormatterImpl implements the QueryOutputFormatter interface
type QueryOutputFormatterImpl struct{}

// NewQueryOutputFormatter creates a new query output formatter
func NewQueryOutputFormatter() *QueryOutputFormatterImpl {
	return &QueryOutputFormatterImpl{}
}

// Format formats the query response according to the specified format
func (f *QueryOutputFormatterImpl) Format(response *domain.QueryResponse, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.OutputFormatText:
		return f.formatText(response)
	case domain.OutputFormatJSON:
		return EncodeJSON(response)
	case domain.OutputFormatYAML:
		return EncodeYAML(response)
	default:
		return "", domain.NewUnsupportedFormatError(string(format))
	}
}

// Write writes the formatted output to the writer
func (f *QueryOutputFormatterImpl) Write(response *domain.QueryResponse, format domain.OutputFormat, writer io.Writer) error {
	output, err := f.Format(response, format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(writer, output); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

func (f *QueryOutputFormatterImpl) formatText(response *domain.QueryResponse) (string, error) {
	var builder strings.Builder
	utils := NewFormatUtils()

	for _, file := range response.Files {
		if file.Failed {
			builder.WriteString(utils.FormatFailure(file.FilePath, file.Reason))
			continue
		}
		if len(file.Matches) == 0 {
			continue
		}

		builder.WriteString(utils.FormatFileHeader(file.FilePath))
		for _, match := range file.Matches {
			for _, cap := range match.Captures {
				loc := fmt.Sprintf("%d:%d", cap.StartRow+1, cap.StartCol+1)
				builder.WriteString(fmt.Sprintf("  %s  @%s %s  %s\n",
					loc, cap.Name, utils.FormatDim("("+cap.Kind+")"), firstLine(cap.Text)))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(utils.FormatSectionHeader("Summary"))
	builder.WriteString(utils.FormatLabel("files", response.Summary.TotalFiles))
	builder.WriteString(utils.FormatLabel("matches", response.Summary.TotalMatches))
	if response.Summary.FailedFiles > 0 {
		builder.WriteString(utils.FormatLabel("failed", response.Summary.FailedFiles))
	}
	builder.WriteString(utils.FormatLabel("duration", time.Duration(response.Summary.DurationUS)*time.Microsecond))

	return builder.String(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}
