package store

import (
	"fmt"
	"sync"
)

// Table is an in-memory copy of a sheet. Backends that cannot update cells
// in place load a Table, let a BufferedTx mutate it and persist it on
// commit.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := &Table{
		Headers: append([]string(nil), t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return c
}

// CommitFunc persists a table when a BufferedTx commits.
type CommitFunc func(*Table) error

// BufferedTx is a Tx over a private Table copy.
type BufferedTx struct {
	mu     sync.Mutex
	table  *Table
	commit CommitFunc
	done   bool
}

var _ Tx = (*BufferedTx)(nil)

// NewBufferedTx starts a transaction over a copy of table. commit is called
// with the mutated copy on Commit.
func NewBufferedTx(table *Table, commit CommitFunc) *BufferedTx {
	return &BufferedTx{
		table:  table.Clone(),
		commit: commit,
	}
}

func (tx *BufferedTx) check() error {
	if tx.done {
		return ErrTxDone
	}
	return nil
}

// Headers implements Tx.
func (tx *BufferedTx) Headers() ([]string, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return nil, err
	}
	return append([]string(nil), tx.table.Headers...), nil
}

// AppendHeader implements Tx.
func (tx *BufferedTx) AppendHeader(label string) (int, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return 0, err
	}
	tx.table.Headers = append(tx.table.Headers, label)
	return len(tx.table.Headers) - 1, nil
}

// FindRow implements Tx.
func (tx *BufferedTx) FindRow(key string) (RowRef, bool, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return 0, false, err
	}
	for i, r := range tx.table.Rows {
		if len(r) > 0 && r[0] == key {
			return RowRef(i), true, nil
		}
	}
	return 0, false, nil
}

// AppendRow implements Tx.
func (tx *BufferedTx) AppendRow(values []string) (RowRef, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return 0, err
	}
	if len(values) > len(tx.table.Headers) {
		return 0, fmt.Errorf("%w: row has %d values for %d columns", ErrOutOfRange, len(values), len(tx.table.Headers))
	}
	tx.table.Rows = append(tx.table.Rows, append([]string(nil), values...))
	return RowRef(len(tx.table.Rows) - 1), nil
}

// SetCell implements Tx.
func (tx *BufferedTx) SetCell(row RowRef, col int, value string) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return err
	}
	if row < 0 || int(row) >= len(tx.table.Rows) || col < 0 || col >= len(tx.table.Headers) {
		return fmt.Errorf("%w: row %d column %d", ErrOutOfRange, row, col)
	}
	r := tx.table.Rows[row]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	tx.table.Rows[row] = r
	return nil
}

// Rows implements Tx.
func (tx *BufferedTx) Rows() ([]Row, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return nil, err
	}
	rows := make([]Row, len(tx.table.Rows))
	for i, r := range tx.table.Rows {
		rows[i] = Row{Ref: RowRef(i), Cells: append([]string(nil), r...)}
	}
	return rows, nil
}

// RowCount implements Tx.
func (tx *BufferedTx) RowCount() (int, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return 0, err
	}
	return len(tx.table.Rows), nil
}

// Commit implements Tx.
func (tx *BufferedTx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return err
	}
	tx.done = true
	if tx.commit == nil {
		return nil
	}
	return tx.commit(tx.table)
}

// Rollback implements Tx. Rolling back a finished transaction returns
// ErrTxDone.
func (tx *BufferedTx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(); err != nil {
		return err
	}
	tx.done = true
	return nil
}
