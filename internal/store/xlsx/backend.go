package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/pagescore/internal/store"
)

const (
	// Extension is the file extension of sheet files.
	Extension = ".xlsx"

	// DefaultWorksheet names the worksheet of newly created files.
	DefaultWorksheet = "Scores"
)

// Backend keeps sheets as spreadsheet files in one folder.
type Backend struct {
	dir string
}

var _ store.Backend = (*Backend)(nil)

// New returns a backend rooted at dir, creating the folder if needed.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create folder %s: %w", store.ErrUnavailable, dir, err)
	}
	return &Backend{dir: dir}, nil
}

// Dir returns the folder holding the sheet files.
func (b *Backend) Dir() string {
	return b.dir
}

// Path returns the file path used for the named sheet.
func (b *Backend) Path(name string) string {
	return filepath.Join(b.dir, name+Extension)
}

// OpenOrCreate implements store.Backend. The file itself is written on the
// first commit.
func (b *Backend) OpenOrCreate(_ context.Context, name string) (store.Sheet, error) {
	if err := store.ValidateSheetName(name); err != nil {
		return nil, err
	}
	return &sheet{name: name, path: b.Path(name)}, nil
}

// Open implements store.Backend.
func (b *Backend) Open(_ context.Context, name string) (store.Sheet, error) {
	if err := store.ValidateSheetName(name); err != nil {
		return nil, err
	}
	path := b.Path(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrSheetNotFound, name)
		}
		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return &sheet{name: name, path: path}, nil
}

// List implements store.Backend.
func (b *Backend) List(_ context.Context) ([]store.SheetInfo, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	var infos []store.SheetInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), Extension) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, store.SheetInfo{
			Name:      strings.TrimSuffix(name, filepath.Ext(name)),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return nil
}

type sheet struct {
	name string
	path string
}

func (s *sheet) Name() string {
	return s.name
}

func (s *sheet) Close() error {
	return nil
}

// Begin loads the worksheet. A missing file is an empty table.
func (s *sheet) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, worksheet, err := s.load()
	if err != nil {
		return nil, err
	}
	return store.NewBufferedTx(table, func(t *store.Table) error {
		return s.save(worksheet, t)
	}), nil
}

func (s *sheet) load() (*store.Table, string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &store.Table{}, DefaultWorksheet, nil
		}
		return nil, "", fmt.Errorf("%w: open %s: %w", store.ErrUnavailable, s.path, err)
	}
	defer f.Close()

	worksheet := f.GetSheetName(0)
	rows, err := f.GetRows(worksheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %w", store.ErrUnavailable, s.path, err)
	}

	table := &store.Table{}
	if len(rows) > 0 {
		table.Headers = rows[0]
		table.Rows = rows[1:]
	}
	return table, worksheet, nil
}

// save writes t into the workbook and atomically replaces the file.
func (s *sheet) save(worksheet string, t *store.Table) error {
	f, err := s.workbook(worksheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeRow(f, worksheet, 1, t.Headers); err != nil {
		return err
	}
	for i, r := range t.Rows {
		if err := writeRow(f, worksheet, i+2, r); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pagescore-*"+Extension)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }() //nolint:errcheck // gone after rename

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", store.ErrUnavailable, s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", store.ErrUnavailable, s.path, err)
	}
	return nil
}

// workbook opens the existing file or creates a new one with worksheet.
func (s *sheet) workbook(worksheet string) (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: open %s: %w", store.ErrUnavailable, s.path, err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), worksheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return f, nil
}

// writeRow writes values starting at column A of the given 1-based row.
// Numeric values are stored as numbers.
func writeRow(f *excelize.File, worksheet string, row int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	out := make([]any, len(values))
	for i, v := range values {
		if n, err := strconv.ParseFloat(v, 64); err == nil && v == strconv.FormatFloat(n, 'f', -1, 64) {
			out[i] = n
			continue
		}
		out[i] = v
	}
	if err := f.SetSheetRow(worksheet, cell, &out); err != nil {
		return fmt.Errorf("%w: write row %d: %w", store.ErrUnavailable, row, err)
	}
	return nil
}
