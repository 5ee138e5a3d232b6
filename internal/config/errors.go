package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() to tell them apart.
var (
	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrNoCategories is returned when no audit category is configured.
	ErrNoCategories = errors.New("no categories configured: at least one audit category is required")

	// ErrInvalidCategories is returned when a configured category id is malformed.
	ErrInvalidCategories = errors.New("invalid categories")

	// ErrEmptyProbeAddress is returned when the connectivity probe has no target.
	ErrEmptyProbeAddress = errors.New("empty probe address: expected host:port")

	// ErrInvalidProbeTimeout is returned when the probe timeout is not positive.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")

	// ErrInvalidPollInterval is returned when the poll interval is not positive.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be positive")

	// ErrInvalidMaxWait is returned when the maximum connectivity wait is negative.
	// Zero means wait forever.
	ErrInvalidMaxWait = errors.New("invalid max wait: must be non-negative")

	// ErrInvalidQuiescentDelay is returned when the delay between iterations is negative.
	ErrInvalidQuiescentDelay = errors.New("invalid delay: must be non-negative")

	// ErrUnknownBackend is returned for a storage backend other than xlsx, sqlite or memory.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrEmptyFolder is returned when a file based backend has no folder.
	ErrEmptyFolder = errors.New("empty storage folder")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidFilterWorkers is returned when the liveness filter worker count is not positive.
	ErrInvalidFilterWorkers = errors.New("invalid filter workers: must be positive")

	// ErrInvalidFilterTimeout is returned when the liveness request timeout is not positive.
	ErrInvalidFilterTimeout = errors.New("invalid filter timeout: must be positive")

	// ErrInvalidFilterRate is returned when the liveness request rate is negative.
	ErrInvalidFilterRate = errors.New("invalid filter rate: must be non-negative")
)
