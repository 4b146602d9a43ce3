package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no seed URL is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more seed URLs")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidDepth is returned when the crawl depth is outside 1-10.
	ErrInvalidDepth = errors.New("invalid depth: must be between 1 and 10")

	// ErrInvalidDelay is returned when the per-worker delay is outside
	// 100ms-5s. A zero delay hammers servers; a huge one stalls the crawl.
	ErrInvalidDelay = errors.New("invalid delay: must be between 100ms and 5s")

	// ErrInvalidWorkers is returned when the worker count is outside 1-20.
	ErrInvalidWorkers = errors.New("invalid workers: must be between 1 and 20")

	// ErrInvalidTimeout is returned when a fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
