package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// KeyHeader is the label of the key column. It is always column 0.
const KeyHeader = "Website"

// RowRef addresses a data row. Data rows are numbered from 0; the header
// row is not counted.
type RowRef int

// Row is one data row as stored. Cells is not padded: a row may be shorter
// than the header list when trailing cells were never written.
type Row struct {
	Ref   RowRef
	Cells []string
}

// Key returns the row's key cell, or "" when the row is empty.
func (r Row) Key() string {
	if len(r.Cells) == 0 {
		return ""
	}
	return r.Cells[0]
}

// SheetInfo describes a stored sheet.
type SheetInfo struct {
	Name      string
	UpdatedAt time.Time
}

// Backend opens sheets in one storage location. The location (folder,
// database file, credentials) is fixed when the backend is constructed.
type Backend interface {
	// OpenOrCreate returns the named sheet, creating an empty one when it
	// does not exist yet.
	OpenOrCreate(ctx context.Context, name string) (Sheet, error)

	// Open returns an existing sheet or ErrSheetNotFound.
	Open(ctx context.Context, name string) (Sheet, error)

	// List returns the sheets in the location ordered by name.
	List(ctx context.Context) ([]SheetInfo, error)

	Close() error
}

// Sheet is a handle on one table.
type Sheet interface {
	Name() string

	// Begin starts a transaction. Changes become visible to later
	// transactions only after Commit.
	Begin(ctx context.Context) (Tx, error)

	Close() error
}

// Tx reads and mutates one sheet.
type Tx interface {
	// Headers returns the current header labels in column order.
	Headers() ([]string, error)

	// AppendHeader adds a column at the end and returns its index.
	// Existing rows are not modified.
	AppendHeader(label string) (int, error)

	// FindRow returns the first row whose key cell equals key exactly.
	FindRow(key string) (RowRef, bool, error)

	// AppendRow adds a row holding values and returns its reference.
	AppendRow(values []string) (RowRef, error)

	// SetCell writes value at (row, col). The column must exist.
	SetCell(row RowRef, col int, value string) error

	// Rows returns all data rows in order.
	Rows() ([]Row, error)

	RowCount() (int, error)

	Commit() error
	Rollback() error
}

// ValidateSheetName rejects names that cannot be used as a sheet
// identifier by any backend.
func ValidateSheetName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSheetName)
	}
	if trimmed != name {
		return fmt.Errorf("%w: %q has surrounding spaces", ErrInvalidSheetName, name)
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidSheetName, name)
	}
	return nil
}

// Snapshot reads the headers and rows of sheet in a read-only transaction.
func Snapshot(ctx context.Context, sheet Sheet) ([]string, []Row, error) {
	tx, err := sheet.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // read-only

	headers, err := tx.Headers()
	if err != nil {
		return nil, nil, err
	}
	rows, err := tx.Rows()
	if err != nil {
		return nil, nil, err
	}
	return headers, rows, nil
}
