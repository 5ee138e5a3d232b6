package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/pagescore/internal/model"
)

// JSONWriter outputs reports in JSON format, one document per call.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteIteration outputs the iteration report as JSON.
func (w *JSONWriter) WriteIteration(report *model.IterationReport) (int, error) {
	return w.writeJSON(report)
}

// WriteSheet outputs the sheet as JSON.
func (w *JSONWriter) WriteSheet(sheet *Sheet) (int, error) {
	return w.writeJSON(sheet)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps an iteration report with the producing version and
// derived counters.
type JSONReport struct {
	Version        string                 `json:"version"`
	Failures       int                    `json:"failures"`
	ElapsedSeconds float64                `json:"elapsed_seconds"`
	Report         *model.IterationReport `json:"report"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(report *model.IterationReport, version string) *JSONReport {
	return &JSONReport{
		Version:        version,
		Failures:       report.Failures(),
		ElapsedSeconds: report.Elapsed().Seconds(),
		Report:         report,
	}
}

// FullJSONWriter outputs iteration reports with the metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for wrapped iteration reports.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// WriteIteration outputs the iteration wrapped with metadata.
func (w *FullJSONWriter) WriteIteration(report *model.IterationReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}
