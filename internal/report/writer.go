package report

import (
	"io"

	"github.com/nao1215/pagescore/internal/model"
	"github.com/nao1215/pagescore/internal/store"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteIteration outputs the outcome of one iteration.
	// Returns the number of bytes written and any error encountered.
	WriteIteration(report *model.IterationReport) (int, error)

	// WriteSheet outputs the full contents of a stored sheet.
	WriteSheet(sheet *Sheet) (int, error)
}

// Sheet is a rectangular view of a stored result sheet.
type Sheet struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// NewSheet builds a Sheet from a store snapshot. Rows shorter than the
// header row are padded with blank cells.
func NewSheet(name string, headers []string, rows []store.Row) *Sheet {
	s := &Sheet{
		Name:    name,
		Headers: append([]string(nil), headers...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		cells := make([]string, len(headers))
		copy(cells, r.Cells)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

// MultiWriter writes to multiple Writers in order.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteIteration outputs the iteration to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteIteration(report *model.IterationReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteIteration(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSheet outputs the sheet to all configured Writers.
func (m *MultiWriter) WriteSheet(sheet *Sheet) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSheet(sheet)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// scoreHeader returns the header row of an iteration score table.
func scoreHeader(report *model.IterationReport) []string {
	header := make([]string, 0, len(report.Categories)+1)
	header = append(header, store.KeyHeader)
	for _, c := range report.Categories {
		header = append(header, c.Title())
	}
	return header
}

// scoreRows returns one row per audited target, in batch order.
func scoreRows(report *model.IterationReport, maxMessage int) [][]string {
	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		row := make([]string, 0, len(report.Categories)+1)
		row = append(row, e.Target.String())
		for _, c := range report.Categories {
			row = append(row, truncateString(e.Result.Cell(c), maxMessage))
		}
		rows = append(rows, row)
	}
	return rows
}

// truncateString truncates a string to maxLen bytes with ellipsis.
// A non-positive maxLen disables truncation.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
