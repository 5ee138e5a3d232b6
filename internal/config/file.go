package config

import "time"

// AnalyzerSection configures the external analyzer.
type AnalyzerSection struct {
	// Path is the analyzer executable.
	Path string `yaml:"path,omitempty"`

	// Args are extra arguments appended to every invocation,
	// for example "--chrome-flags=--headless".
	Args []string `yaml:"args,omitempty"`

	// Categories are the audit category ids, e.g. performance, seo.
	Categories []string `yaml:"categories,omitempty"`
}

// NetworkSection configures the connectivity gate.
type NetworkSection struct {
	ProbeAddress string        `yaml:"probe_address,omitempty"`
	ProbeTimeout time.Duration `yaml:"probe_timeout,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// MaxWait caps a single wait for connectivity. Zero waits forever.
	MaxWait time.Duration `yaml:"max_wait,omitempty"`

	// Proxy routes the probe through a SOCKS5 proxy ("host:port").
	Proxy string `yaml:"proxy,omitempty"`
}

// StoreSection selects where sheets are kept.
type StoreSection struct {
	Backend string `yaml:"backend,omitempty"`
	Folder  string `yaml:"folder,omitempty"`
}

// RunSection configures the iteration loop.
type RunSection struct {
	Concurrency int `yaml:"concurrency,omitempty"`

	// Delay is the pause after every iteration. A pointer so that an
	// explicit zero can be told apart from an unset value.
	Delay *time.Duration `yaml:"delay,omitempty"`

	SheetPerRun bool `yaml:"sheet_per_run,omitempty"`
}

// FilterSection configures the website liveness filter.
type FilterSection struct {
	Workers int           `yaml:"workers,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Rate limits requests per second. Zero means unlimited.
	Rate float64 `yaml:"rate,omitempty"`
}

// File represents the structure of the .pagescore configuration file.
type File struct {
	Analyzer AnalyzerSection `yaml:"analyzer,omitempty"`
	Network  NetworkSection  `yaml:"network,omitempty"`
	Store    StoreSection    `yaml:"store,omitempty"`
	Run      RunSection      `yaml:"run,omitempty"`
	Filter   FilterSection   `yaml:"filter,omitempty"`
}
