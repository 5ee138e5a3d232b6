package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nao1215/pagescore/internal/model"
)

// defaultCellWidth bounds failure messages in terminal tables.
const defaultCellWidth = 60

// SimpleWriter outputs human-readable text tables for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose disables truncation of failure messages.
	verbose bool

	style table.Style
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose prints failure messages in full.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithStyle sets the table style. Header and footer text is never
// case-converted, so labels are printed exactly as stored.
func WithStyle(style table.Style) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.style = style
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		style:      table.StyleLight,
	}

	for _, opt := range opts {
		opt(w)
	}
	w.style.Format.Header = text.FormatDefault
	w.style.Format.Footer = text.FormatDefault

	return w
}

// WriteIteration outputs one iteration as a score table followed by a summary.
func (w *SimpleWriter) WriteIteration(report *model.IterationReport) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Iteration %d/%d  sheet: %s  run: %s\n",
		report.Iteration, report.Iterations, report.Sheet, report.RunID)

	maxMessage := defaultCellWidth
	if w.verbose {
		maxMessage = 0
	}

	tw := w.newTable()
	tw.AppendHeader(toRow(scoreHeader(report)))
	for _, row := range scoreRows(report, maxMessage) {
		tw.AppendRow(toRow(row))
	}
	if len(report.Aggregates) > 0 {
		footer := table.Row{"Average"}
		for _, a := range report.Aggregates {
			footer = append(footer, a.Value)
		}
		tw.AppendFooter(footer)
	}
	sb.WriteString(tw.Render())
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "%d audited, %d failed, %d new rows, took %s\n\n",
		len(report.Entries), report.Failures(), report.RowsAdded,
		report.Elapsed().Round(time.Millisecond))

	return io.WriteString(w.output, sb.String())
}

// WriteSheet outputs the stored sheet as a single table.
func (w *SimpleWriter) WriteSheet(sheet *Sheet) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Sheet: %s (%d rows)\n", sheet.Name, len(sheet.Rows))
	if len(sheet.Headers) == 0 {
		sb.WriteString("(empty)\n")
		return io.WriteString(w.output, sb.String())
	}

	maxMessage := defaultCellWidth
	if w.verbose {
		maxMessage = 0
	}

	tw := w.newTable()
	tw.AppendHeader(toRow(sheet.Headers))
	for _, r := range sheet.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = truncateString(cell, maxMessage)
		}
		tw.AppendRow(row)
	}
	sb.WriteString(tw.Render())
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(w.style)
	return tw
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
