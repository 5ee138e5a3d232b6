package targets

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// keyColumns are the accepted CSV column names, in order of preference.
var keyColumns = []string{"website", "domain", "url"}

// FileProvider reads target files. Files ending in .csv are parsed as CSV
// with a header row; other files hold one entry per line, where blank lines
// and lines starting with '#' are ignored.
type FileProvider struct{}

// Entries implements Provider.
func (FileProvider) Entries(_ context.Context, path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open target file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(f)
	}
	return readLines(f)
}

func readLines(r io.Reader) ([]string, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			line = ""
		}
		// Keep blank lines so that diagnostics carry line numbers.
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}
	return entries, nil
}

// ReadCSV returns the values of the key column of a CSV table.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := KeyColumn(header)
	if col < 0 {
		return nil, fmt.Errorf("%w: header %v", ErrNoKeyColumn, header)
	}

	var entries []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if col < len(rec) {
			entries = append(entries, rec[col])
		} else {
			entries = append(entries, "")
		}
	}
	return entries, nil
}

// KeyColumn returns the index of the column naming the sites, or -1.
func KeyColumn(header []string) int {
	for _, want := range keyColumns {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), want) {
				return i
			}
		}
	}
	return -1
}
