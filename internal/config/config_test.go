package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagescore/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Concurrency is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 2 {
			t.Errorf("expected Concurrency to be 2, got %d", cfg.Concurrency)
		}
	})

	t.Run("default probe is www.google.com:80 with 2s timeout", func(t *testing.T) {
		t.Parallel()
		if cfg.ProbeAddress != "www.google.com:80" {
			t.Errorf("expected ProbeAddress 'www.google.com:80', got %q", cfg.ProbeAddress)
		}
		if cfg.ProbeTimeout != 2*time.Second {
			t.Errorf("expected ProbeTimeout 2s, got %v", cfg.ProbeTimeout)
		}
	})

	t.Run("default PollInterval is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.PollInterval != 30*time.Second {
			t.Errorf("expected PollInterval 30s, got %v", cfg.PollInterval)
		}
	})

	t.Run("default MaxWait is unbounded", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxWait != 0 {
			t.Errorf("expected MaxWait 0, got %v", cfg.MaxWait)
		}
	})

	t.Run("default QuiescentDelay is 60 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.QuiescentDelay != 60*time.Second {
			t.Errorf("expected QuiescentDelay 60s, got %v", cfg.QuiescentDelay)
		}
	})

	t.Run("default categories are performance only", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Categories) != 1 || cfg.Categories[0] != "performance" {
			t.Errorf("expected [performance], got %v", cfg.Categories)
		}
	})

	t.Run("default backend is xlsx in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.Backend != BackendXLSX {
			t.Errorf("expected backend %q, got %q", BackendXLSX, cfg.Backend)
		}
		if cfg.Folder != XDGDataDir() {
			t.Errorf("expected folder %q, got %q", XDGDataDir(), cfg.Folder)
		}
	})

	t.Run("default filter uses 20 workers and 5s timeout", func(t *testing.T) {
		t.Parallel()
		if cfg.FilterWorkers != 20 {
			t.Errorf("expected FilterWorkers 20, got %d", cfg.FilterWorkers)
		}
		if cfg.FilterTimeout != 5*time.Second {
			t.Errorf("expected FilterTimeout 5s, got %v", cfg.FilterTimeout)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"no categories", func(c *Config) { c.Categories = nil }, ErrNoCategories},
		{"malformed category", func(c *Config) { c.Categories = []string{"Not Valid!"} }, ErrInvalidCategories},
		{"empty probe address", func(c *Config) { c.ProbeAddress = "" }, ErrEmptyProbeAddress},
		{"zero probe timeout", func(c *Config) { c.ProbeTimeout = 0 }, ErrInvalidProbeTimeout},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, ErrInvalidPollInterval},
		{"negative max wait", func(c *Config) { c.MaxWait = -time.Second }, ErrInvalidMaxWait},
		{"negative delay", func(c *Config) { c.QuiescentDelay = -time.Second }, ErrInvalidQuiescentDelay},
		{"unknown backend", func(c *Config) { c.Backend = "gsheets" }, ErrUnknownBackend},
		{"xlsx without folder", func(c *Config) { c.Folder = "" }, ErrEmptyFolder},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"zero filter workers", func(c *Config) { c.FilterWorkers = 0 }, ErrInvalidFilterWorkers},
		{"zero filter timeout", func(c *Config) { c.FilterTimeout = 0 }, ErrInvalidFilterTimeout},
		{"negative filter rate", func(c *Config) { c.FilterRate = -1 }, ErrInvalidFilterRate},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.Folder = "/tmp/pagescore"
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("memory backend needs no folder", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Backend = BackendMemory
		cfg.Folder = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("zero delay and bounded wait are valid", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.QuiescentDelay = 0
		cfg.MaxWait = 10 * time.Minute
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestParsedCategories(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Categories = []string{"Performance", "seo", "performance"}

	cats, err := cfg.ParsedCategories()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Category{model.CategoryPerformance, model.CategorySEO}
	if len(cats) != len(want) {
		t.Fatalf("expected %v, got %v", want, cats)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("category %d: expected %q, got %q", i, want[i], cats[i])
		}
	}
}

func TestConfigApply(t *testing.T) {
	t.Parallel()

	t.Run("overlays set values", func(t *testing.T) {
		t.Parallel()

		delay := 5 * time.Second
		cfg := NewConfig()
		cfg.Apply(&File{
			Analyzer: AnalyzerSection{
				Path:       "/opt/lighthouse",
				Args:       []string{"--quiet"},
				Categories: []string{"seo"},
			},
			Network: NetworkSection{
				ProbeAddress: "1.1.1.1:53",
				MaxWait:      time.Minute,
				Proxy:        "127.0.0.1:1080",
			},
			Store:  StoreSection{Backend: BackendSQLite, Folder: "/data"},
			Run:    RunSection{Concurrency: 4, Delay: &delay, SheetPerRun: true},
			Filter: FilterSection{Workers: 8, Rate: 2.5},
		})

		if cfg.AnalyzerPath != "/opt/lighthouse" {
			t.Errorf("unexpected AnalyzerPath %q", cfg.AnalyzerPath)
		}
		if len(cfg.AnalyzerArgs) != 1 || cfg.AnalyzerArgs[0] != "--quiet" {
			t.Errorf("unexpected AnalyzerArgs %v", cfg.AnalyzerArgs)
		}
		if len(cfg.Categories) != 1 || cfg.Categories[0] != "seo" {
			t.Errorf("unexpected Categories %v", cfg.Categories)
		}
		if cfg.ProbeAddress != "1.1.1.1:53" || cfg.MaxWait != time.Minute || cfg.Proxy != "127.0.0.1:1080" {
			t.Errorf("unexpected network settings: %q %v %q", cfg.ProbeAddress, cfg.MaxWait, cfg.Proxy)
		}
		if cfg.Backend != BackendSQLite || cfg.Folder != "/data" {
			t.Errorf("unexpected store settings: %q %q", cfg.Backend, cfg.Folder)
		}
		if cfg.Concurrency != 4 || cfg.QuiescentDelay != delay || !cfg.SheetPerRun {
			t.Errorf("unexpected run settings: %d %v %v", cfg.Concurrency, cfg.QuiescentDelay, cfg.SheetPerRun)
		}
		if cfg.FilterWorkers != 8 || cfg.FilterRate != 2.5 || cfg.FilterTimeout != DefaultFilterTimeout {
			t.Errorf("unexpected filter settings: %d %v %v", cfg.FilterWorkers, cfg.FilterRate, cfg.FilterTimeout)
		}
	})

	t.Run("keeps defaults for unset values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Apply(&File{})
		if cfg.ProbeTimeout != DefaultProbeTimeout || cfg.QuiescentDelay != DefaultQuiescentDelay {
			t.Errorf("expected defaults to survive an empty file")
		}
	})

	t.Run("explicit zero delay overrides default", func(t *testing.T) {
		t.Parallel()

		zero := time.Duration(0)
		cfg := NewConfig()
		cfg.Apply(&File{Run: RunSection{Delay: &zero}})
		if cfg.QuiescentDelay != 0 {
			t.Errorf("expected zero delay, got %v", cfg.QuiescentDelay)
		}
	})

	t.Run("nil file is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Apply(nil)
		if cfg.Concurrency != DefaultConcurrency {
			t.Errorf("unexpected Concurrency %d", cfg.Concurrency)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), ".pagescore")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		return path
	}

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.pagescore")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `analyzer:
  path: lighthouse
  args:
    - "--chrome-flags=--headless"
  categories: [performance, accessibility]
network:
  probe_address: "www.google.com:80"
  probe_timeout: 3s
  poll_interval: 1m
  max_wait: 30m
store:
  backend: sqlite
  folder: /var/lib/pagescore
run:
  concurrency: 3
  delay: 0s
filter:
  workers: 10
  rate: 5
`)

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cf.Analyzer.Categories) != 2 {
			t.Errorf("expected 2 categories, got %v", cf.Analyzer.Categories)
		}
		if cf.Network.ProbeTimeout != 3*time.Second {
			t.Errorf("expected probe timeout 3s, got %v", cf.Network.ProbeTimeout)
		}
		if cf.Network.PollInterval != time.Minute {
			t.Errorf("expected poll interval 1m, got %v", cf.Network.PollInterval)
		}
		if cf.Network.MaxWait != 30*time.Minute {
			t.Errorf("expected max wait 30m, got %v", cf.Network.MaxWait)
		}
		if cf.Store.Backend != "sqlite" || cf.Store.Folder != "/var/lib/pagescore" {
			t.Errorf("unexpected store section %+v", cf.Store)
		}
		if cf.Run.Concurrency != 3 {
			t.Errorf("expected concurrency 3, got %d", cf.Run.Concurrency)
		}
		if cf.Run.Delay == nil || *cf.Run.Delay != 0 {
			t.Errorf("expected explicit zero delay, got %v", cf.Run.Delay)
		}
		if cf.Filter.Workers != 10 || cf.Filter.Rate != 5 {
			t.Errorf("unexpected filter section %+v", cf.Filter)
		}
	})

	t.Run("empty file yields zero sections", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile(writeConfig(t, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Store.Backend != "" || cf.Run.Delay != nil {
			t.Errorf("expected zero file, got %+v", cf)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(writeConfig(t, `invalid: yaml: content: [}`)); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(writeConfig(t, "store:\n  bakend: sqlite\n"))
		if err == nil || !strings.Contains(err.Error(), "bakend") {
			t.Errorf("expected unknown field error, got %v", err)
		}
	})

	t.Run("rejects malformed durations", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(writeConfig(t, "network:\n  max_wait: soon\n")); err == nil {
			t.Error("expected error for malformed duration")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "custom.yaml")

		if err := os.WriteFile(configPath, []byte("run: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		result := FindConfigFile(configPath)
		if result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		result := FindConfigFile("/nonexistent/path/config.yaml")
		if result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		name, dir := name, dir
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if filepath.Base(dir) != AppName {
				t.Errorf("expected %s dir to end in %q, got %q", name, AppName, dir)
			}
		})
	}
}
