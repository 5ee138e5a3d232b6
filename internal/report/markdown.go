package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pagescore/internal/model"
)

// markdownCellWidth bounds failure messages in Markdown tables.
const markdownCellWidth = 80

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteIteration outputs one iteration as a Markdown document.
func (w *MarkdownWriter) WriteIteration(report *model.IterationReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeOutcome(md, report)
	w.writeScores(md, report)
	w.writeAggregates(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSheet outputs a stored sheet as a Markdown table.
func (w *MarkdownWriter) WriteSheet(sheet *Sheet) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(sheet.Name)
	md.PlainText("")
	if len(sheet.Headers) == 0 {
		md.PlainText("The sheet is empty.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(sheet.Rows))
		for i, r := range sheet.Rows {
			rows[i] = make([]string, len(r))
			for j, cell := range r {
				rows[i][j] = truncateString(cell, markdownCellWidth)
			}
		}
		md.Table(markdown.TableSet{
			Header: sheet.Headers,
			Rows:   rows,
		})
		md.PlainText("")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.IterationReport) {
	md.H1("Iteration " + strconv.Itoa(report.Iteration) + " of " + strconv.Itoa(report.Iterations))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Sheet", "`" + report.Sheet + "`"},
			{"Run", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed().String()},
			{"Targets", strconv.Itoa(len(report.Entries))},
			{"New rows", strconv.Itoa(report.RowsAdded)},
		},
	})
	md.PlainText("")
}

// writeOutcome writes the success/failure chart and an alert.
func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, report *model.IterationReport) {
	total := len(report.Entries)
	failed := report.Failures()

	if total > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Audit Outcomes"),
			piechart.WithShowData(true),
		)
		if ok := total - failed; ok > 0 {
			chart.LabelAndIntValue("Success", uint64(ok))
		}
		if failed > 0 {
			chart.LabelAndIntValue("Failure", uint64(failed))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case total > 0 && failed == total:
		md.Cautionf("Every audit failed (%d of %d).", failed, total)
	case failed > 0:
		md.Warningf("%d of %d audits failed.", failed, total)
	default:
		md.Tip("All audits succeeded.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeScores(md *markdown.Markdown, report *model.IterationReport) {
	md.H2("Scores")
	md.PlainText("")

	if len(report.Entries) == 0 {
		md.PlainText("No targets were audited.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: scoreHeader(report),
		Rows:   scoreRows(report, markdownCellWidth),
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAggregates(md *markdown.Markdown, report *model.IterationReport) {
	if len(report.Aggregates) == 0 {
		return
	}

	md.H2("Column Averages")
	md.PlainText("")

	rows := make([][]string, len(report.Aggregates))
	for i, a := range report.Aggregates {
		rows[i] = []string{a.Label, a.Value, strconv.Itoa(a.Samples)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Column", "Average", "Samples"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagescore](https://github.com/nao1215/pagescore)*")
}
