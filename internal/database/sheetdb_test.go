package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagescore/internal/store"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*SheetDB, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	db, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()

		dbDir := filepath.Join(tmpDir, "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "nonexistent-db")

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !errors.Is(err, store.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to mention missing database, got %q", err.Error())
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "existing-db")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		sheet, err := db1.OpenOrCreate(ctx, "scores")
		if err != nil {
			t.Fatalf("failed to create sheet: %v", err)
		}
		tx, _ := sheet.Begin(ctx)
		_, _ = tx.AppendHeader(store.KeyHeader)
		_, _ = tx.AppendRow([]string{"https://example.com"})
		if err := tx.Commit(); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database with CreateIfNotExists=false: %v", err)
		}
		defer db2.Close()

		sheet, err = db2.Open(ctx, "scores")
		if err != nil {
			t.Fatalf("failed to open sheet: %v", err)
		}
		_, rows, err := store.Snapshot(ctx, sheet)
		if err != nil {
			t.Fatalf("failed to read sheet: %v", err)
		}
		if len(rows) != 1 || rows[0].Key() != "https://example.com" {
			t.Errorf("expected persisted row, got %+v", rows)
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestSheets tests sheet creation, lookup and listing.
func TestSheets(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := db.Open(ctx, "missing"); !errors.Is(err, store.ErrSheetNotFound) {
		t.Errorf("expected ErrSheetNotFound, got %v", err)
	}
	if _, err := db.OpenOrCreate(ctx, ""); !errors.Is(err, store.ErrInvalidSheetName) {
		t.Errorf("expected ErrInvalidSheetName, got %v", err)
	}

	first, err := db.OpenOrCreate(ctx, "beta")
	if err != nil {
		t.Fatalf("OpenOrCreate failed: %v", err)
	}
	again, err := db.OpenOrCreate(ctx, "beta")
	if err != nil {
		t.Fatalf("OpenOrCreate failed: %v", err)
	}
	if first.(*sheet).id != again.(*sheet).id {
		t.Error("OpenOrCreate created a second sheet with the same name")
	}
	if _, err := db.OpenOrCreate(ctx, "alpha"); err != nil {
		t.Fatalf("OpenOrCreate failed: %v", err)
	}

	infos, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "alpha" || infos[1].Name != "beta" {
		t.Errorf("unexpected list %+v", infos)
	}
	if infos[0].UpdatedAt.IsZero() {
		t.Error("expected updated_at to be parsed")
	}
}

// TestSheetTx tests transactional cell operations.
func TestSheetTx(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	sheet, err := db.OpenOrCreate(ctx, "scores")
	if err != nil {
		t.Fatalf("OpenOrCreate failed: %v", err)
	}

	tx, err := sheet.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if col, err := tx.AppendHeader(store.KeyHeader); err != nil || col != 0 {
		t.Fatalf("AppendHeader = (%d, %v), expected (0, nil)", col, err)
	}
	col, err := tx.AppendHeader("Performance 2024-05-01 10:00:00")
	if err != nil || col != 1 {
		t.Fatalf("AppendHeader = (%d, %v), expected (1, nil)", col, err)
	}
	a, _ := tx.AppendRow([]string{"https://a.example", "0.8"})
	b, _ := tx.AppendRow([]string{"https://b.example"})
	if a != 0 || b != 1 {
		t.Errorf("unexpected refs %d, %d", a, b)
	}
	if err := tx.SetCell(b, col, "Error: exit 1"); err != nil {
		t.Fatalf("SetCell failed: %v", err)
	}
	if err := tx.SetCell(b, 2, "x"); !errors.Is(err, store.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := tx.AppendRow([]string{"a", "b", "c"}); !errors.Is(err, store.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, store.ErrTxDone) {
		t.Errorf("expected ErrTxDone on second commit, got %v", err)
	}

	t.Run("committed data is readable", func(t *testing.T) {
		headers, rows, err := store.Snapshot(ctx, sheet)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(headers) != 2 {
			t.Errorf("expected 2 headers, got %v", headers)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[1].Cells[1] != "Error: exit 1" {
			t.Errorf("unexpected cell %q", rows[1].Cells[1])
		}
	})

	t.Run("find row", func(t *testing.T) {
		tx, _ := sheet.Begin(ctx)
		defer func() { _ = tx.Rollback() }()

		ref, ok, err := tx.FindRow("https://b.example")
		if err != nil || !ok || ref != 1 {
			t.Errorf("FindRow = (%d, %v, %v), expected (1, true, nil)", ref, ok, err)
		}
		if _, ok, _ := tx.FindRow("https://b.example/"); ok {
			t.Error("FindRow must use exact match")
		}
		if n, _ := tx.RowCount(); n != 2 {
			t.Errorf("RowCount = %d, expected 2", n)
		}
	})

	t.Run("rollback discards changes", func(t *testing.T) {
		tx, _ := sheet.Begin(ctx)
		_, _ = tx.AppendHeader("discarded")
		_, _ = tx.AppendRow([]string{"https://c.example"})
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback failed: %v", err)
		}

		headers, rows, _ := store.Snapshot(ctx, sheet)
		if len(headers) != 2 || len(rows) != 2 {
			t.Errorf("rollback leaked changes: headers=%v rows=%d", headers, len(rows))
		}
	})
}

// TestParseTimestamp tests timestamp parsing across SQLite formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-05-01 10:00:00", "2024-05-01T10:00:00Z", "2024-05-01T10:00:00"} {
		if got := parseTimestamp(s); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, expected %v", s, got, want)
		}
	}
	if got := parseTimestamp("yesterday"); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
