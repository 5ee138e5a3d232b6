package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagescore/internal/config"
	"github.com/nao1215/pagescore/internal/pipeline"
	"github.com/nao1215/pagescore/internal/store"
	"github.com/nao1215/pagescore/internal/store/xlsx"
)

// subcommand returns the named subcommand of a fresh root with args parsed.
func subcommand(t *testing.T, name string, args ...string) *cobra.Command {
	t.Helper()

	cmd, _, err := NewRootCmd().Find([]string{name})
	if err != nil {
		t.Fatalf("failed to find %s: %v", name, err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

// writeAnalyzer creates a shell script that prints a fixed report.
func writeAnalyzer(t *testing.T, score string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-lighthouse")
	body := "#!/bin/sh\necho '{\"categories\":{\"performance\":{\"score\":" + score + "}}}'\n"
	if err := os.WriteFile(path, []byte(body), 0o700); err != nil { //nolint:gosec // test script must be executable
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// listenProbe starts a listener standing in for the connectivity probe.
func listenProbe(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	return ln.Addr().String()
}

func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	t.Run("requires three arguments", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, []string{"sites.txt", "1"}); err == nil {
			t.Error("expected error for two arguments")
		}
		if err := cmd.Args(cmd, []string{"sites.txt", "1", "scores"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("has scheduling flags with defaults", func(t *testing.T) {
		t.Parallel()

		tests := map[string]string{
			"concurrency": "2",
			"delay":       "1m0s",
			"max-wait":    "0s",
			"backend":     "xlsx",
			"analyzer":    "lighthouse",
		}
		for name, want := range tests {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.DefValue != want {
				t.Errorf("flag %s: expected default %q, got %q", name, want, flag.DefValue)
			}
		}
	})
}

func TestParseRunArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"valid", []string{"sites.txt", "3", "scores"}, nil},
		{"zero iterations", []string{"sites.txt", "0", "scores"}, pipeline.ErrInvalidIterations},
		{"negative iterations", []string{"sites.txt", "-2", "scores"}, pipeline.ErrInvalidIterations},
		{"non-numeric iterations", []string{"sites.txt", "many", "scores"}, pipeline.ErrInvalidIterations},
		{"invalid sheet name", []string{"sites.txt", "1", "a/b"}, store.ErrInvalidSheetName},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := parseRunArgs(tt.args)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req.iterations != 3 || req.sheet != "scores" || req.targetSet != "sites.txt" {
					t.Errorf("unexpected request %+v", req)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildRunConfig(t *testing.T) {
	t.Parallel()

	t.Run("flags override config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "pagescore.yaml")
		content := "store:\n  backend: sqlite\n  folder: /srv/scores\nrun:\n  concurrency: 3\n  delay: 5s\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := subcommand(t, "run", "--config", path, "--concurrency", "5",
			"--categories", "performance,seo", "--max-wait", "10m")
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Concurrency != 5 {
			t.Errorf("expected flag concurrency 5, got %d", cfg.Concurrency)
		}
		if cfg.QuiescentDelay != 5*time.Second {
			t.Errorf("expected file delay 5s, got %v", cfg.QuiescentDelay)
		}
		if cfg.Backend != config.BackendSQLite || cfg.Folder != "/srv/scores" {
			t.Errorf("expected file store settings, got %q %q", cfg.Backend, cfg.Folder)
		}
		if len(cfg.Categories) != 2 || cfg.Categories[1] != "seo" {
			t.Errorf("unexpected categories %v", cfg.Categories)
		}
		if cfg.MaxWait != 10*time.Minute {
			t.Errorf("expected max wait 10m, got %v", cfg.MaxWait)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := subcommand(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		if _, err := buildRunConfig(cmd); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("dry run uses memory backend", func(t *testing.T) {
		t.Parallel()

		cmd := subcommand(t, "run", "--backend", "sqlite", "--dry-run")
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Backend != config.BackendMemory {
			t.Errorf("expected memory backend, got %q", cfg.Backend)
		}
	})
}

func TestOpenBackend(t *testing.T) {
	t.Parallel()

	for _, backend := range config.Backends {
		backend := backend
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.Backend = backend
			cfg.Folder = t.TempDir()

			b, err := openBackend(cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer b.Close()

			sheets, err := b.List(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sheets) != 0 {
				t.Errorf("expected empty store, got %v", sheets)
			}
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Backend = "gsheets"
		if _, err := openBackend(cfg); !errors.Is(err, config.ErrUnknownBackend) {
			t.Errorf("expected ErrUnknownBackend, got %v", err)
		}
	})
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	analyzer := writeAnalyzer(t, "0.5")
	probe := listenProbe(t)
	dir := t.TempDir()

	targetsFile := filepath.Join(dir, "sites.txt")
	if err := os.WriteFile(targetsFile, []byte("a.example\nb.example\na.example\n"), 0600); err != nil {
		t.Fatalf("failed to write targets: %v", err)
	}
	folder := filepath.Join(dir, "results")
	reportFile := filepath.Join(dir, "reports", "run.json")

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{
		"run", targetsFile, "1", "scores",
		"--config", writeEmptyConfig(t),
		"--analyzer", analyzer,
		"--probe-address", probe,
		"--delay", "0s",
		"--folder", folder,
		"--json",
		"--output", reportFile,
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr.String())
	}

	output := stdout.String()
	for _, want := range []string{
		"Skipped 1 of 3 entries",
		"Auditing 2 targets, 1 iterations",
		"[2/2]",
		"0.5000",
		"Run completed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q\n%s", want, output)
		}
	}

	data, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}
	if !strings.Contains(string(data), `"version"`) || !strings.Contains(string(data), `"rows_added": 2`) {
		t.Errorf("unexpected JSON report:\n%s", data)
	}

	backend, err := xlsx.New(folder)
	if err != nil {
		t.Fatalf("failed to open results: %v", err)
	}
	sheet, err := backend.Open(context.Background(), "scores")
	if err != nil {
		t.Fatalf("expected sheet to exist: %v", err)
	}
	headers, rows, err := store.Snapshot(context.Background(), sheet)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}

	if len(headers) != 2 || headers[0] != store.KeyHeader || !strings.HasPrefix(headers[1], "Performance ") {
		t.Errorf("unexpected headers %v", headers)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 2 targets and the average row, got %d rows", len(rows))
	}
	if rows[0].Cells[1] != "0.5" {
		t.Errorf("expected score 0.5, got %q", rows[0].Cells[1])
	}
	if rows[2].Key() != "Average" || rows[2].Cells[1] != "0.5000" {
		t.Errorf("unexpected average row %v", rows[2].Cells)
	}
}

func TestRunCommandNoTargets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"run", "missing-sheet", "1", "scores",
		"--config", writeEmptyConfig(t),
		"--folder", dir,
		"--delay", "0s",
	})

	if err := root.Execute(); err == nil {
		t.Error("expected error for an unknown target set")
	}
}

// writeEmptyConfig returns the path of an empty configuration file so that
// tests do not pick up a .pagescore from the working or home directory.
func writeEmptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
