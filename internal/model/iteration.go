package model

import "time"

// ColumnAggregate is the trailing aggregate written under one column.
type ColumnAggregate struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
	// Value is the text written into the aggregate cell: a mean with four
	// decimals, or NoDataText.
	Value string `json:"value"`
	// Samples is the number of numeric cells the mean was computed over.
	Samples int `json:"samples"`
}

// NoDataText is the aggregate of a column without numeric cells.
const NoDataText = "No data"

// IterationReport describes one completed iteration of a run.
type IterationReport struct {
	RunID      string            `json:"run_id"`
	Sheet      string            `json:"sheet"`
	Iteration  int               `json:"iteration"`
	Iterations int               `json:"iterations"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Categories []Category        `json:"categories"`
	Entries    Batch             `json:"entries"`
	Aggregates []ColumnAggregate `json:"aggregates"`
	// RowsAdded is the number of targets that were new to the sheet.
	RowsAdded int `json:"rows_added"`
}

// Failures returns the number of failed audits in the iteration.
func (r *IterationReport) Failures() int {
	return r.Entries.Failures()
}

// Elapsed returns the wall time of the iteration.
func (r *IterationReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
