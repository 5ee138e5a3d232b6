package targets

import (
	"context"
	"fmt"

	"github.com/nao1215/pagescore/internal/reconcile"
	"github.com/nao1215/pagescore/internal/store"
)

// SheetProvider reads the key column of a stored sheet.
type SheetProvider struct {
	backend store.Backend
}

// NewSheetProvider returns a provider reading sheets from backend.
func NewSheetProvider(backend store.Backend) *SheetProvider {
	return &SheetProvider{backend: backend}
}

// Entries implements Provider. The aggregate row is not an entry.
func (p *SheetProvider) Entries(ctx context.Context, name string) ([]string, error) {
	sheet, err := p.backend.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer sheet.Close()

	headers, rows, err := store.Snapshot(ctx, sheet)
	if err != nil {
		return nil, err
	}
	col := KeyColumn(headers)
	if col < 0 {
		return nil, fmt.Errorf("%w in sheet %s", ErrNoKeyColumn, name)
	}

	entries := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Key() == reconcile.AggregateKey {
			continue
		}
		if col < len(row.Cells) {
			entries = append(entries, row.Cells[col])
		} else {
			entries = append(entries, "")
		}
	}
	return entries, nil
}
