package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the behavior of a careful
// human operator: shallow crawls, a modest worker count, and a polite
// delay between requests from each worker.
const (
	// DefaultOutputDir is where mirrored sites are written when the user
	// does not specify a directory.
	DefaultOutputDir = "./scraped_sites"

	// DefaultMaxDepth of 3 reaches most of a typical site's navigable
	// content without wandering into pagination or calendar traps.
	DefaultMaxDepth = 3

	// MinDepth and MaxDepth bound the accepted crawl depth.
	MinDepth = 1
	MaxDepth = 10

	// DefaultDelay is the pause each worker takes after finishing a task.
	// With DefaultWorkers workers the aggregate request rate stays around
	// workers/delay requests per second.
	DefaultDelay = 500 * time.Millisecond

	// MinDelay and MaxDelay bound the accepted per-worker delay.
	MinDelay = 100 * time.Millisecond
	MaxDelay = 5 * time.Second

	// DefaultWorkers is the number of concurrent crawl workers.
	DefaultWorkers = 5

	// MinWorkers and MaxWorkers bound the accepted worker count.
	MinWorkers = 1
	MaxWorkers = 20

	// DefaultPageTimeout is the per-request timeout for HTML page fetches.
	DefaultPageTimeout = 15 * time.Second

	// DefaultResourceTimeout is the per-request timeout for resource
	// downloads (images, stylesheets, scripts, extra file types).
	DefaultResourceTimeout = 10 * time.Second

	// DefaultBatchSize is the number of seeds mirrored concurrently when
	// several seed URLs are given in one invocation.
	DefaultBatchSize = 2

	// DefaultUserAgent identifies a common desktop browser. Some sites
	// serve degraded or blocked content to obvious bot agents, and a
	// mirror should capture what a visitor would actually see.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize limits how many response body bytes are read.
	// 20MB accommodates large assets while preventing memory exhaustion
	// from unexpectedly huge responses.
	DefaultMaxBodySize = 20 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "webmirror"
)

// Config holds all options for a webmirror invocation.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g. CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// Targets is the list of seed URLs to mirror. Each target gets its
	// own session with fresh frontier, visited set, and statistics.
	Targets []string

	// OutputDir is the root directory the mirrored files are written
	// under. Each site lands in a subdirectory named after its host.
	OutputDir string

	// MaxDepth is the maximum BFS distance from the seed, in link hops.
	// Pages at MaxDepth are fetched but their links are not followed.
	MaxDepth int

	// FollowExternal allows the crawl to leave the seed's host.
	// Off by default; mirroring a site rarely means mirroring the web.
	FollowExternal bool

	// DownloadImages, DownloadCSS, and DownloadJS control which embedded
	// resources are downloaded and rewritten to local references.
	DownloadImages bool
	DownloadCSS    bool
	DownloadJS     bool

	// ExtraFileTypes lists additional file extensions to download when a
	// page links to them (e.g. ".pdf", ".zip"). Extensions are normalized
	// to a leading dot and matched case-insensitively.
	ExtraFileTypes []string

	// Delay is the pause each worker takes between tasks.
	Delay time.Duration

	// Workers is the number of concurrent crawl workers per session.
	Workers int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// PageTimeout is the per-request timeout for page fetches.
	PageTimeout time.Duration

	// ResourceTimeout is the per-request timeout for resource downloads.
	ResourceTimeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64

	// BatchSize is the number of seed URLs mirrored concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .webmirror in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable
	// text. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable text. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the session report.
	// When empty the report is written to stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite manifest database.
	// When empty, sessions are not persisted.
	DBDir string

	// SaveToDB indicates whether finished sessions are recorded in the
	// manifest database.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, worker
// counts, resource toggles). This also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:       DefaultOutputDir,
		MaxDepth:        DefaultMaxDepth,
		DownloadImages:  true,
		DownloadCSS:     true,
		DownloadJS:      true,
		Delay:           DefaultDelay,
		Workers:         DefaultWorkers,
		PageTimeout:     DefaultPageTimeout,
		ResourceTimeout: DefaultResourceTimeout,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		BatchSize:       DefaultBatchSize,
	}
}

// NormalizeFileTypes rewrites ExtraFileTypes so every entry starts with a
// dot and is lowercase. Empty entries are dropped. Calling it twice is
// harmless.
func (c *Config) NormalizeFileTypes() {
	normalized := make([]string, 0, len(c.ExtraFileTypes))
	for _, ext := range c.ExtraFileTypes {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.ExtraFileTypes = normalized
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any workers spawn; a
// configuration error is the only fatal condition in webmirror.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.MaxDepth < MinDepth || c.MaxDepth > MaxDepth {
		return ErrInvalidDepth
	}

	if c.Delay < MinDelay || c.Delay > MaxDelay {
		return ErrInvalidDelay
	}

	if c.Workers < MinWorkers || c.Workers > MaxWorkers {
		return ErrInvalidWorkers
	}

	if c.PageTimeout <= 0 || c.ResourceTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// XDGDataDir returns the XDG data directory for webmirror.
// On Linux: ~/.local/share/webmirror
// On macOS: ~/Library/Application Support/webmirror
// On Windows: %LOCALAPPDATA%\webmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webmirror.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
