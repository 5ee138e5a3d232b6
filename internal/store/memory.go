package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is a Backend that keeps sheets in process memory.
type Memory struct {
	mu     sync.Mutex
	sheets map[string]*memorySheet
	now    func() time.Time
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		sheets: make(map[string]*memorySheet),
		now:    time.Now,
	}
}

// OpenOrCreate implements Backend.
func (m *Memory) OpenOrCreate(_ context.Context, name string) (Sheet, error) {
	if err := ValidateSheetName(name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sheets[name]
	if !ok {
		s = &memorySheet{owner: m, name: name, table: &Table{}, updated: m.now()}
		m.sheets[name] = s
	}
	return s, nil
}

// Open implements Backend.
func (m *Memory) Open(_ context.Context, name string) (Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sheets[name]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return s, nil
}

// List implements Backend.
func (m *Memory) List(_ context.Context) ([]SheetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]SheetInfo, 0, len(m.sheets))
	for _, s := range m.sheets {
		s.mu.Lock()
		infos = append(infos, SheetInfo{Name: s.name, UpdatedAt: s.updated})
		s.mu.Unlock()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Close implements Backend.
func (m *Memory) Close() error {
	return nil
}

// Load replaces the contents of the named sheet, creating it if needed.
func (m *Memory) Load(name string, table *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sheets[name]
	if !ok {
		s = &memorySheet{owner: m, name: name}
		m.sheets[name] = s
	}
	s.mu.Lock()
	s.table = table.Clone()
	s.updated = m.now()
	s.mu.Unlock()
}

// Table returns a copy of the named sheet's committed contents.
func (m *Memory) Table(name string) (*Table, bool) {
	m.mu.Lock()
	s, ok := m.sheets[name]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Clone(), true
}

type memorySheet struct {
	owner   *Memory
	mu      sync.Mutex
	name    string
	table   *Table
	updated time.Time
}

func (s *memorySheet) Name() string {
	return s.name
}

func (s *memorySheet) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return NewBufferedTx(s.table, func(t *Table) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.table = t.Clone()
		s.updated = s.owner.now()
		return nil
	}), nil
}

func (s *memorySheet) Close() error {
	return nil
}
