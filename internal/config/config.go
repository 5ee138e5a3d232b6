package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/pagescore/internal/model"
)

// Storage backends.
const (
	// BackendXLSX stores one spreadsheet file per sheet in the folder.
	BackendXLSX = "xlsx"

	// BackendSQLite stores every sheet of the folder in one SQLite database.
	BackendSQLite = "sqlite"

	// BackendMemory keeps sheets in process memory; nothing survives the run.
	BackendMemory = "memory"
)

// Backends lists the accepted storage backends.
var Backends = []string{BackendXLSX, BackendSQLite, BackendMemory}

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pagescore"

	// DefaultAnalyzerPath is the analyzer executable looked up in PATH.
	DefaultAnalyzerPath = "lighthouse"

	// DefaultConcurrency is the number of audits run at the same time.
	// Every audit drives a headless browser, so this stays small.
	DefaultConcurrency = 2

	// DefaultProbeAddress is the host:port dialed to decide whether the
	// network is up.
	DefaultProbeAddress = "www.google.com:80"

	// DefaultProbeTimeout bounds a single connectivity probe.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultPollInterval is the pause between probes while the network is down.
	DefaultPollInterval = 30 * time.Second

	// DefaultMaxWait of zero waits for connectivity without limit.
	DefaultMaxWait time.Duration = 0

	// DefaultQuiescentDelay is the pause after every iteration.
	DefaultQuiescentDelay = 60 * time.Second

	// DefaultBackend is the storage backend used when none is configured.
	DefaultBackend = BackendXLSX

	// DefaultFilterWorkers is the number of concurrent liveness requests.
	DefaultFilterWorkers = 20

	// DefaultFilterTimeout bounds a single liveness request.
	DefaultFilterTimeout = 5 * time.Second
)

// DefaultCategories returns the audit categories used when none is configured.
func DefaultCategories() []string {
	return []string{string(model.CategoryPerformance)}
}

// Config holds all configuration options for pagescore.
// It is populated from defaults, the configuration file and CLI flags, in
// that order, and passed through the application rather than kept in
// global state.
type Config struct {
	// AnalyzerPath is the analyzer executable.
	AnalyzerPath string

	// AnalyzerArgs are extra arguments appended to every analyzer invocation.
	// They may carry secrets such as --extra-headers and are only logged
	// through the sanitizing handler.
	AnalyzerArgs []string

	// Categories are the audit category ids requested from the analyzer.
	// Each one becomes a column of every iteration's column group.
	Categories []string

	// Concurrency is the number of audits run at the same time.
	Concurrency int

	// ProbeAddress is the host:port dialed by the connectivity gate.
	ProbeAddress string

	// ProbeTimeout bounds a single connectivity probe.
	ProbeTimeout time.Duration

	// PollInterval is the pause between probes while the network is down.
	PollInterval time.Duration

	// MaxWait caps a single wait for connectivity. Zero waits forever.
	MaxWait time.Duration

	// Proxy is an optional SOCKS5 proxy address the probe is routed through.
	Proxy string

	// Backend selects the storage backend (xlsx, sqlite or memory).
	Backend string

	// Folder is the directory holding the stored sheets.
	// Defaults to the XDG data directory (~/.local/share/pagescore on Linux).
	Folder string

	// QuiescentDelay is the pause after every iteration.
	QuiescentDelay time.Duration

	// SheetPerRun writes each run to its own sheet suffixed with the run
	// timestamp instead of appending a column group to one sheet.
	SheetPerRun bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON iteration reports.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown iteration reports.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for reports.
	// When empty, reports are written to stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .pagescore in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// FilterWorkers is the number of concurrent liveness requests.
	FilterWorkers int

	// FilterTimeout bounds a single liveness request.
	FilterTimeout time.Duration

	// FilterRate limits liveness requests per second. Zero means unlimited.
	FilterRate float64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		AnalyzerPath:   DefaultAnalyzerPath,
		Categories:     DefaultCategories(),
		Concurrency:    DefaultConcurrency,
		ProbeAddress:   DefaultProbeAddress,
		ProbeTimeout:   DefaultProbeTimeout,
		PollInterval:   DefaultPollInterval,
		MaxWait:        DefaultMaxWait,
		Backend:        DefaultBackend,
		Folder:         XDGDataDir(),
		QuiescentDelay: DefaultQuiescentDelay,
		FilterWorkers:  DefaultFilterWorkers,
		FilterTimeout:  DefaultFilterTimeout,
	}
}

// Apply overlays the values set in the configuration file onto c.
// Zero values in the file leave c unchanged.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}

	if f.Analyzer.Path != "" {
		c.AnalyzerPath = f.Analyzer.Path
	}
	if len(f.Analyzer.Args) > 0 {
		c.AnalyzerArgs = append([]string(nil), f.Analyzer.Args...)
	}
	if len(f.Analyzer.Categories) > 0 {
		c.Categories = append([]string(nil), f.Analyzer.Categories...)
	}

	if f.Network.ProbeAddress != "" {
		c.ProbeAddress = f.Network.ProbeAddress
	}
	if f.Network.ProbeTimeout != 0 {
		c.ProbeTimeout = f.Network.ProbeTimeout
	}
	if f.Network.PollInterval != 0 {
		c.PollInterval = f.Network.PollInterval
	}
	if f.Network.MaxWait != 0 {
		c.MaxWait = f.Network.MaxWait
	}
	if f.Network.Proxy != "" {
		c.Proxy = f.Network.Proxy
	}

	if f.Store.Backend != "" {
		c.Backend = f.Store.Backend
	}
	if f.Store.Folder != "" {
		c.Folder = f.Store.Folder
	}

	if f.Run.Concurrency != 0 {
		c.Concurrency = f.Run.Concurrency
	}
	if f.Run.Delay != nil {
		c.QuiescentDelay = *f.Run.Delay
	}
	if f.Run.SheetPerRun {
		c.SheetPerRun = true
	}

	if f.Filter.Workers != 0 {
		c.FilterWorkers = f.Filter.Workers
	}
	if f.Filter.Timeout != 0 {
		c.FilterTimeout = f.Filter.Timeout
	}
	if f.Filter.Rate != 0 {
		c.FilterRate = f.Filter.Rate
	}
}

// ParsedCategories returns the configured categories as validated ids,
// without duplicates, in configuration order.
func (c *Config) ParsedCategories() ([]model.Category, error) {
	if len(c.Categories) == 0 {
		return nil, ErrNoCategories
	}
	cats, err := model.ParseCategories(c.Categories)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCategories, err)
	}
	return cats, nil
}

// XDGDataDir returns the XDG data directory for pagescore.
// On Linux: ~/.local/share/pagescore
// On macOS: ~/Library/Application Support/pagescore
// On Windows: %LOCALAPPDATA%\pagescore
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagescore.
// On Linux: ~/.config/pagescore
// On macOS: ~/Library/Application Support/pagescore
// On Windows: %APPDATA%\pagescore
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if _, err := c.ParsedCategories(); err != nil {
		return err
	}

	if c.ProbeAddress == "" {
		return ErrEmptyProbeAddress
	}
	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}
	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.MaxWait < 0 {
		return ErrInvalidMaxWait
	}
	if c.QuiescentDelay < 0 {
		return ErrInvalidQuiescentDelay
	}

	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("%w: %q (expected one of %v)", ErrUnknownBackend, c.Backend, Backends)
	}
	if c.Backend != BackendMemory && c.Folder == "" {
		return ErrEmptyFolder
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return c.ValidateFilter()
}

// ValidateFilter checks only the liveness filter settings.
func (c *Config) ValidateFilter() error {
	if c.FilterWorkers <= 0 {
		return ErrInvalidFilterWorkers
	}
	if c.FilterTimeout <= 0 {
		return ErrInvalidFilterTimeout
	}
	if c.FilterRate < 0 {
		return ErrInvalidFilterRate
	}
	return nil
}
