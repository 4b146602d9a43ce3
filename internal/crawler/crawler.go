package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/model"
)

// dequeueWait bounds how long an idle worker blocks on the frontier
// before re-checking the session context for cancellation.
const dequeueWait = time.Second

// Session errors.
var (
	// ErrInvalidSeed is returned when the seed URL cannot be parsed or
	// has no host. This is the only fatal condition: it is surfaced to
	// the caller before any worker spawns.
	ErrInvalidSeed = fmt.Errorf("invalid seed URL")
)

// Mirror owns all state for one mirror session: configuration, frontier,
// statistics, and the report under construction. A Mirror is used for a
// single Run; create a fresh one per session.
type Mirror struct {
	cfg     *config.Config
	seed    string
	seedURL *url.URL

	// maxDepth and delay are the effective limits, after any per-site
	// override from the config file.
	maxDepth int
	delay    time.Duration

	classifier *Classifier
	fetcher    *Fetcher
	downloader *Downloader
	processor  *Processor
	frontier   *Frontier
	stats      *Stats
	report     *model.MirrorReport

	logger *slog.Logger
	cancel context.CancelFunc
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithLogger sets a custom logger for the session.
func WithLogger(logger *slog.Logger) MirrorOption {
	return func(m *Mirror) {
		m.logger = logger
	}
}

// WithProgress registers the progress callback invoked after every
// completed task. See ProgressFunc for the threading contract.
func WithProgress(fn ProgressFunc) MirrorOption {
	return func(m *Mirror) {
		m.stats.OnProgress(fn)
	}
}

// WithFetcher replaces the session fetcher. Used by tests to inject a
// client pointed at a test server.
func WithFetcher(f *Fetcher) MirrorOption {
	return func(m *Mirror) {
		m.fetcher = f
	}
}

// NewMirror creates a session for mirroring seed under cfg.OutputDir.
// The seed is validated here so a malformed URL fails before any worker
// spawns. Per-site overrides (cookie, headers, depth, delay) from the config
// file are applied based on the seed's host.
func NewMirror(cfg *config.Config, seed string, opts ...MirrorOption) (*Mirror, error) {
	seedURL, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSeed, seed, err)
	}
	if seedURL.Scheme == "" {
		seedURL.Scheme = "http"
	}
	if seedURL.Scheme != "http" && seedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidSeed, seed)
	}
	if seedURL.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidSeed, seed)
	}
	if seedURL.Path == "" {
		seedURL.Path = "/"
	}
	// Canonicalize the way Normalize canonicalizes discovered links, so a
	// seed typed with an uppercase host dedups against in-page self-links.
	seedURL.Scheme = strings.ToLower(seedURL.Scheme)
	seedURL.Host = strings.ToLower(seedURL.Host)

	m := &Mirror{
		cfg:      cfg,
		seed:     seedURL.String(),
		seedURL:  seedURL,
		maxDepth: cfg.MaxDepth,
		delay:    cfg.Delay,
		frontier: NewFrontier(),
		stats:    NewStats(),
		report:   model.NewMirrorReport(seedURL.String(), cfg.OutputDir),
		logger:   slog.Default(),
	}

	// Per-site overrides apply to the seed's host.
	var site config.SiteConfig
	if cfg.SiteConfigs != nil {
		site = cfg.SiteConfigs.GetSiteConfig(seedURL.Hostname())
		if site.Depth != 0 {
			m.maxDepth = site.Depth
		}
		if site.Delay != 0 {
			m.delay = time.Duration(site.Delay)
		}
	}

	m.classifier = NewClassifier(seedURL, cfg.FollowExternal)
	m.fetcher = NewFetcher(
		WithUserAgent(cfg.UserAgent),
		WithMaxBodySize(cfg.MaxBodySize),
		WithPageTimeout(cfg.PageTimeout),
		WithResourceTimeout(cfg.ResourceTimeout),
		WithHeaders(site.Headers),
		WithCookie(site.Cookie),
	)

	for _, opt := range opts {
		opt(m)
	}

	m.downloader = NewDownloader(m.fetcher, m.logger, m.report.AddAsset)
	m.processor = NewProcessor(cfg, m.classifier, m.downloader, m.logger)

	return m, nil
}

// Run executes the session: it admits the seed, spawns the worker pool,
// and blocks until the frontier drains or the context is cancelled.
// Workers are always joined before Run returns, so no goroutine outlives
// the session. The returned report is complete in either case; a
// cancelled session is marked Cancelled, not failed.
func (m *Mirror) Run(ctx context.Context) (*model.MirrorReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	defer cancel()

	m.logger.Info("starting mirror session",
		"seed", m.seed,
		"output_dir", m.cfg.OutputDir,
		"max_depth", m.maxDepth,
		"workers", m.cfg.Workers,
		"delay", m.delay,
	)

	m.admit(m.seed, 0)

	g := new(errgroup.Group)
	for i := 0; i < m.cfg.Workers; i++ {
		g.Go(func() error {
			m.worker(ctx)
			return nil
		})
	}

	select {
	case <-m.frontier.Drained():
		m.logger.Info("frontier drained", "visited", m.frontier.VisitedCount())
	case <-ctx.Done():
		m.logger.Info("mirror session cancelled", "reason", ctx.Err())
		m.report.Cancelled = true
	}

	// Workers observe the cancelled context at their next dequeue or
	// delay wait; in-flight requests finish under their own timeouts.
	cancel()
	_ = g.Wait() //nolint:errcheck // Workers never return errors; failures are per-task.

	m.report.Stats = m.stats.Snapshot()
	m.report.Elapsed = time.Since(m.report.StartedAt)

	m.logger.Info("mirror session finished",
		"seed", m.seed,
		"total", m.report.Stats.Total,
		"downloaded", m.report.Stats.Downloaded,
		"failed", m.report.Stats.Failed,
		"elapsed", m.report.Elapsed,
	)

	return m.report, nil
}

// Stop requests cooperative cancellation of a running session. In-flight
// fetches are not aborted beyond their own per-request timeouts.
func (m *Mirror) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Stats returns a consistent snapshot of the session counters.
func (m *Mirror) Stats() model.StatsSnapshot {
	return m.stats.Snapshot()
}

// admit offers a URL to the frontier; the total counter moves only when
// the frontier actually accepted it.
func (m *Mirror) admit(link string, depth int) {
	if m.frontier.TryAdmit(link, depth) {
		m.stats.RecordAdmit()
	}
}

// worker is the long-lived loop of one pool member:
// dequeue, fetch+process, record the outcome, then pause for politeness.
// Cancellation is observed at the dequeue wait and the delay wait, the
// two points where the worker holds no task.
func (m *Mirror) worker(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(m.delay), 1)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok := m.frontier.Dequeue(dequeueWait)
		if !ok {
			continue
		}

		// Exactly one outcome per dequeued task, before Done moves the
		// in-flight count; any error is confined to this task.
		err := m.handle(ctx, task)
		if err != nil {
			m.logger.Warn("task failed", "url", task.URL, "depth", task.Depth, "error", err)
		}
		m.stats.RecordOutcome(err == nil)
		m.frontier.Done()

		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}
}

// handle fetches one task and routes it: HTML pages go through the
// processor and may admit new links; anything else is saved verbatim at
// its mapped path.
func (m *Mirror) handle(ctx context.Context, task model.Task) error {
	m.logger.Debug("downloading", "url", task.URL, "depth", task.Depth)

	resp, err := m.fetcher.Page(ctx, task.URL)
	if err != nil {
		m.report.AddAsset(model.Asset{
			URL: task.URL, Kind: model.KindPage, FetchedAt: time.Now(), Error: err.Error(),
		})
		return err
	}

	if resp.StatusCode != http.StatusOK {
		m.report.AddAsset(model.Asset{
			URL: task.URL, Kind: model.KindPage, FetchedAt: time.Now(),
			StatusCode: resp.StatusCode, ContentType: resp.ContentType,
			Error: fmt.Sprintf("HTTP %d", resp.StatusCode),
		})
		return fmt.Errorf("fetch %s: HTTP %d", task.URL, resp.StatusCode)
	}

	if resp.IsHTML() {
		links, asset, err := m.processor.Process(ctx, resp.Body, task.URL)
		if err != nil {
			asset.Error = err.Error()
			asset.StatusCode = resp.StatusCode
			asset.ContentType = resp.ContentType
			m.report.AddAsset(asset)
			return err
		}
		asset.StatusCode = resp.StatusCode
		asset.ContentType = resp.ContentType
		m.report.AddAsset(asset)

		// Depth-d pages admit depth-d+1 links; at maxDepth the page is
		// stored but its links are not followed.
		if task.Depth < m.maxDepth {
			for _, link := range links {
				m.admit(link, task.Depth+1)
			}
		}
		return nil
	}

	return m.saveRaw(task.URL, resp)
}

// saveRaw stores a non-HTML document reached through the frontier.
func (m *Mirror) saveRaw(rawURL string, resp *Response) error {
	asset := model.Asset{
		URL: rawURL, Kind: model.KindRaw, FetchedAt: time.Now(),
		StatusCode: resp.StatusCode, ContentType: resp.ContentType,
	}

	localPath, err := LocalPath(rawURL, m.cfg.OutputDir)
	if err != nil {
		asset.Error = err.Error()
		m.report.AddAsset(asset)
		return fmt.Errorf("map %s: %w", rawURL, err)
	}

	if err := EnsureDir(localPath); err != nil {
		asset.Error = err.Error()
		m.report.AddAsset(asset)
		return fmt.Errorf("create directories for %s: %w", localPath, err)
	}
	if err := os.WriteFile(localPath, resp.Body, 0600); err != nil {
		asset.Error = err.Error()
		m.report.AddAsset(asset)
		return fmt.Errorf("save %s: %w", localPath, err)
	}

	asset.LocalPath = localPath
	asset.ComputeSHA256(resp.Body)
	m.report.AddAsset(asset)
	return nil
}
