package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/pagescore/internal/store"
)

// sheet is a handle on one row of the sheets table.
type sheet struct {
	db   *sql.DB
	id   int64
	name string
}

func (s *sheet) Name() string {
	return s.name
}

func (s *sheet) Close() error {
	return nil
}

// Begin starts a SQL transaction bound to ctx.
func (s *sheet) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", store.ErrUnavailable, err)
	}
	return &sheetTx{ctx: ctx, tx: tx, sheetID: s.id}, nil
}

// sheetTx implements store.Tx on top of *sql.Tx.
type sheetTx struct {
	ctx     context.Context //nolint:containedctx // bound for the lifetime of the transaction
	tx      *sql.Tx
	sheetID int64
}

// wrap maps driver errors to store errors.
func wrap(op string, err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return store.ErrTxDone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: failed to %s: %w", store.ErrUnavailable, op, err)
}

func (t *sheetTx) count(table string) (int, error) {
	var n int
	//nolint:gosec // table is one of two constants
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE sheet_id = ?`, table)
	if err := t.tx.QueryRowContext(t.ctx, query, t.sheetID).Scan(&n); err != nil {
		return 0, wrap("count "+table, err)
	}
	return n, nil
}

func (t *sheetTx) Headers() ([]string, error) {
	query := `SELECT label FROM sheet_columns WHERE sheet_id = ? ORDER BY position`
	rows, err := t.tx.QueryContext(t.ctx, query, t.sheetID)
	if err != nil {
		return nil, wrap("read headers", err)
	}
	defer rows.Close()

	headers := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, wrap("scan header", err)
		}
		headers = append(headers, label)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("read headers", err)
	}
	return headers, nil
}

func (t *sheetTx) AppendHeader(label string) (int, error) {
	pos, err := t.count("sheet_columns")
	if err != nil {
		return 0, err
	}
	query := `INSERT INTO sheet_columns (sheet_id, position, label) VALUES (?, ?, ?)`
	if _, err := t.tx.ExecContext(t.ctx, query, t.sheetID, pos, label); err != nil {
		return 0, wrap("append header", err)
	}
	return pos, nil
}

func (t *sheetTx) FindRow(key string) (store.RowRef, bool, error) {
	query := `
	SELECT row FROM sheet_cells
	WHERE sheet_id = ? AND col = 0 AND value = ?
	ORDER BY row
	LIMIT 1
	`
	var row int
	err := t.tx.QueryRowContext(t.ctx, query, t.sheetID, key).Scan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrap("find row", err)
	}
	return store.RowRef(row), true, nil
}

func (t *sheetTx) AppendRow(values []string) (store.RowRef, error) {
	cols, err := t.count("sheet_columns")
	if err != nil {
		return 0, err
	}
	if len(values) > cols {
		return 0, fmt.Errorf("%w: row has %d values for %d columns", store.ErrOutOfRange, len(values), cols)
	}
	pos, err := t.count("sheet_rows")
	if err != nil {
		return 0, err
	}

	if _, err := t.tx.ExecContext(t.ctx, `INSERT INTO sheet_rows (sheet_id, position) VALUES (?, ?)`, t.sheetID, pos); err != nil {
		return 0, wrap("append row", err)
	}
	for col, v := range values {
		if err := t.putCell(pos, col, v); err != nil {
			return 0, err
		}
	}
	return store.RowRef(pos), nil
}

func (t *sheetTx) SetCell(row store.RowRef, col int, value string) error {
	rowCount, err := t.count("sheet_rows")
	if err != nil {
		return err
	}
	colCount, err := t.count("sheet_columns")
	if err != nil {
		return err
	}
	if row < 0 || int(row) >= rowCount || col < 0 || col >= colCount {
		return fmt.Errorf("%w: row %d column %d", store.ErrOutOfRange, row, col)
	}
	return t.putCell(int(row), col, value)
}

func (t *sheetTx) putCell(row, col int, value string) error {
	query := `
	INSERT INTO sheet_cells (sheet_id, row, col, value)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(sheet_id, row, col) DO UPDATE SET value = excluded.value
	`
	if _, err := t.tx.ExecContext(t.ctx, query, t.sheetID, row, col, value); err != nil {
		return wrap("write cell", err)
	}
	return nil
}

func (t *sheetTx) Rows() ([]store.Row, error) {
	n, err := t.count("sheet_rows")
	if err != nil {
		return nil, err
	}
	out := make([]store.Row, n)
	for i := range out {
		out[i].Ref = store.RowRef(i)
	}

	query := `SELECT row, col, value FROM sheet_cells WHERE sheet_id = ? ORDER BY row, col`
	rows, err := t.tx.QueryContext(t.ctx, query, t.sheetID)
	if err != nil {
		return nil, wrap("read rows", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row, col int
		var value string
		if err := rows.Scan(&row, &col, &value); err != nil {
			return nil, wrap("scan cell", err)
		}
		if row < 0 || row >= n {
			continue
		}
		cells := out[row].Cells
		for len(cells) <= col {
			cells = append(cells, "")
		}
		cells[col] = value
		out[row].Cells = cells
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("read rows", err)
	}
	return out, nil
}

func (t *sheetTx) RowCount() (int, error) {
	return t.count("sheet_rows")
}

func (t *sheetTx) Commit() error {
	query := `UPDATE sheets SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := t.tx.ExecContext(t.ctx, query, t.sheetID); err != nil {
		_ = t.tx.Rollback()
		return wrap("touch sheet", err)
	}
	if err := t.tx.Commit(); err != nil {
		return wrap("commit", err)
	}
	return nil
}

func (t *sheetTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return wrap("rollback", err)
	}
	return nil
}
