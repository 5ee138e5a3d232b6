package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/pagescore/internal/database"
	"github.com/nao1215/pagescore/internal/report"
	"github.com/nao1215/pagescore/internal/store"
)

// seedSheet stores a small sheet in a SQLite store under dir.
func seedSheet(t *testing.T, dir string) {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	sheet, err := db.OpenOrCreate(ctx, "scores")
	if err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
	defer sheet.Close()

	tx, err := sheet.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	for _, label := range []string{store.KeyHeader, "Performance 2024-05-01 12:00:00"} {
		if _, err := tx.AppendHeader(label); err != nil {
			t.Fatalf("failed to append header: %v", err)
		}
	}
	for _, row := range [][]string{{"https://a.example/", "0.92"}, {"Average", "0.9200"}} {
		if _, err := tx.AppendRow(row); err != nil {
			t.Fatalf("failed to append row: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, args ...string) (string, error) {
		t.Helper()

		var stdout bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&stdout)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"history", "--config", writeEmptyConfig(t)}, args...))
		err := root.Execute()
		return stdout.String(), err
	}

	t.Run("lists sheets", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedSheet(t, dir)

		out, err := run(t, "-b", "sqlite", "-f", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "scores") || !strings.Contains(out, "Updated") {
			t.Errorf("expected sheet listing, got\n%s", out)
		}
	})

	t.Run("reports an empty store", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "--list", "-f", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No result sheets found") {
			t.Errorf("expected empty listing, got\n%s", out)
		}
	})

	t.Run("prints a sheet as markdown", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedSheet(t, dir)

		out, err := run(t, "scores", "-b", "sqlite", "-f", dir, "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"# scores", "https://a.example/", "0.9200"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q\n%s", want, out)
			}
		}
	})

	t.Run("unknown sheet", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "nope", "-b", "sqlite", "-f", t.TempDir())
		if !errors.Is(err, store.ErrSheetNotFound) {
			t.Errorf("expected ErrSheetNotFound, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "scores", "--json", "--markdown", "-f", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "conflicting report formats") {
			t.Errorf("expected conflicting formats error, got %v", err)
		}
	})
}

func TestShowSheet(t *testing.T) {
	t.Parallel()

	backend := store.NewMemory()
	backend.Load("scores", &store.Table{
		Headers: []string{store.KeyHeader, "SEO 2024-05-01 12:00:00"},
		Rows:    [][]string{{"https://a.example/", "1"}},
	})

	var buf bytes.Buffer
	if err := showSheet(context.Background(), report.NewJSONWriter(&buf), backend, "scores"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"SEO 2024-05-01 12:00:00"`) {
		t.Errorf("unexpected output %s", buf.String())
	}
}
