package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nao1215/pagescore/internal/model"
	"github.com/nao1215/pagescore/internal/store"
)

// Outcome summarizes one reconciliation.
type Outcome struct {
	Sheet      string
	Labels     []string
	RowsAdded  int
	Aggregates []model.ColumnAggregate
}

// Reconciler is the only writer of sheets.
type Reconciler struct {
	backend store.Backend
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithClock sets the clock used for column group labels.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// New creates a Reconciler writing to backend.
func New(backend store.Backend, opts ...Option) *Reconciler {
	r := &Reconciler{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Reconcile merges batch into the named sheet, creating it when absent.
// It adds one column per category, labeled with the current time.
//
// Store failures wrap store.ErrUnavailable. An existing label equal to a new
// one fails with ErrLabelCollision and a sheet that cannot be written
// positionally fails with ErrMalformedSchema. In every error case nothing
// is committed.
func (r *Reconciler) Reconcile(ctx context.Context, sheetName string, categories []model.Category, batch model.Batch) (Outcome, error) {
	if len(categories) == 0 {
		return Outcome{}, errors.New("reconcile: no categories")
	}

	sheet, err := r.backend.OpenOrCreate(ctx, sheetName)
	if err != nil {
		return Outcome{}, err
	}
	defer sheet.Close()

	tx, err := sheet.Begin(ctx)
	if err != nil {
		return Outcome{}, err
	}

	out, err := r.apply(tx, categories, batch)
	if err != nil {
		_ = tx.Rollback() //nolint:errcheck // the apply error is reported
		return Outcome{}, err
	}
	if err := tx.Commit(); err != nil {
		return Outcome{}, err
	}

	out.Sheet = sheetName
	r.logger.Info("iteration reconciled",
		"sheet", sheetName,
		"labels", out.Labels,
		"targets", len(batch),
		"rows_added", out.RowsAdded,
	)
	return out, nil
}

// apply performs all reads and writes of one reconciliation on tx.
func (r *Reconciler) apply(tx store.Tx, categories []model.Category, batch model.Batch) (Outcome, error) {
	headers, err := tx.Headers()
	if err != nil {
		return Outcome{}, err
	}
	rows, err := tx.Rows()
	if err != nil {
		return Outcome{}, err
	}

	if len(headers) == 0 {
		if len(rows) > 0 {
			return Outcome{}, fmt.Errorf("%w: %d rows without a header row", ErrMalformedSchema, len(rows))
		}
		if _, err := tx.AppendHeader(store.KeyHeader); err != nil {
			return Outcome{}, err
		}
		headers = []string{store.KeyHeader}
	}
	if err := checkSchema(headers, rows); err != nil {
		return Outcome{}, err
	}

	labels := Labels(categories, r.now())
	for _, l := range labels {
		if slices.Contains(headers, l) {
			return Outcome{}, fmt.Errorf("%w: %q already exists", ErrLabelCollision, l)
		}
	}

	cols := make([]int, len(labels))
	for i, l := range labels {
		col, err := tx.AppendHeader(l)
		if err != nil {
			return Outcome{}, err
		}
		cols[i] = col
		headers = append(headers, l)
	}
	width := len(headers)

	// Backfill so every existing row has a cell for every column.
	for _, row := range rows {
		for c := len(row.Cells); c < width; c++ {
			if err := tx.SetCell(row.Ref, c, ""); err != nil {
				return Outcome{}, err
			}
		}
	}

	agg, hasAgg, err := tx.FindRow(AggregateKey)
	if err != nil {
		return Outcome{}, err
	}
	var aggCells []string
	if hasAgg {
		for _, row := range rows {
			if row.Ref == agg {
				aggCells = padded(row.Cells, width)
				break
			}
		}
	}

	added := 0
	for _, e := range batch {
		key := e.Target.String()
		ref, ok, err := tx.FindRow(key)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			ref, agg, err = appendTargetRow(tx, key, width, hasAgg, agg, aggCells)
			if err != nil {
				return Outcome{}, err
			}
			added++
		}
		for i, c := range categories {
			if err := tx.SetCell(ref, cols[i], e.Result.Cell(c)); err != nil {
				return Outcome{}, err
			}
		}
	}

	if !hasAgg {
		if agg, err = tx.AppendRow(padded([]string{AggregateKey}, width)); err != nil {
			return Outcome{}, err
		}
	}

	aggregates, err := r.writeAggregates(tx, agg, categories, labels, cols)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Labels:     labels,
		RowsAdded:  added,
		Aggregates: aggregates,
	}, nil
}

// appendTargetRow adds a blank row keyed by key. When the sheet has an
// aggregate row, the new target takes over its slot and the aggregate is
// re-appended below so that it stays after the data. It returns the new
// target row and the aggregate row.
func appendTargetRow(tx store.Tx, key string, width int, hasAgg bool, agg store.RowRef, aggCells []string) (store.RowRef, store.RowRef, error) {
	blank := padded([]string{key}, width)
	if !hasAgg {
		ref, err := tx.AppendRow(blank)
		return ref, agg, err
	}

	for c, v := range blank {
		if err := tx.SetCell(agg, c, v); err != nil {
			return 0, 0, err
		}
	}
	moved, err := tx.AppendRow(aggCells)
	if err != nil {
		return 0, 0, err
	}
	return agg, moved, nil
}

// writeAggregates computes the mean of each new column over all data rows
// and writes it into the aggregate row.
func (r *Reconciler) writeAggregates(tx store.Tx, agg store.RowRef, categories []model.Category, labels []string, cols []int) ([]model.ColumnAggregate, error) {
	rows, err := tx.Rows()
	if err != nil {
		return nil, err
	}

	aggregates := make([]model.ColumnAggregate, len(cols))
	for i, col := range cols {
		var values []float64
		for _, row := range rows {
			if row.Ref == agg || row.Key() == AggregateKey || col >= len(row.Cells) {
				continue
			}
			if v, ok := numeric(row.Cells[col]); ok {
				values = append(values, v)
			}
		}
		value := mean(values)
		if err := tx.SetCell(agg, col, value); err != nil {
			return nil, err
		}
		aggregates[i] = model.ColumnAggregate{
			Label:    labels[i],
			Category: categories[i],
			Value:    value,
			Samples:  len(values),
		}
	}
	return aggregates, nil
}

// checkSchema rejects sheets that positional writes would corrupt.
func checkSchema(headers []string, rows []store.Row) error {
	if headers[0] != store.KeyHeader {
		return fmt.Errorf("%w: first header is %q, expected %q", ErrMalformedSchema, headers[0], store.KeyHeader)
	}
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if _, dup := seen[h]; dup {
			return fmt.Errorf("%w: duplicate header %q", ErrMalformedSchema, h)
		}
		seen[h] = struct{}{}
	}
	for _, row := range rows {
		if len(row.Cells) > len(headers) {
			return fmt.Errorf("%w: row %d has %d cells but the header row has %d",
				ErrMalformedSchema, int(row.Ref)+2, len(row.Cells), len(headers))
		}
	}
	return nil
}

// padded returns cells extended with blanks to width.
func padded(cells []string, width int) []string {
	out := make([]string, width)
	copy(out, cells)
	return out
}
