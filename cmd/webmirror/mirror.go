package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/crawler"
	"github.com/nao1215/webmirror/internal/database"
	wlog "github.com/nao1215/webmirror/internal/log"
	"github.com/nao1215/webmirror/internal/model"
	"github.com/nao1215/webmirror/internal/pipeline"
	"github.com/nao1215/webmirror/internal/report"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <url> [<url>...]",
		Short: "Mirror one or more websites into a local directory",
		Long: `Mirror crawls each given URL breadth-first up to the configured depth,
stores the pages under <output-dir>/<host>/, downloads embedded images,
stylesheets, and scripts, and rewrites their references to relative local
paths so the result is browsable offline.

The crawl stays on each seed's domain unless --follow-external is set.
Links to other pages are followed; links to binaries (.exe, .bin) never are.

Examples:
  # Mirror a site with defaults (depth 3, 5 workers)
  webmirror mirror https://example.com

  # Mirror two sites concurrently
  webmirror mirror https://a.example https://b.example

  # Deeper crawl, also fetch linked PDF and ZIP files
  webmirror mirror --depth 5 --file-types pdf,zip https://example.com

  # Markdown report written to a file
  webmirror mirror --markdown -o report.md https://example.com

Configuration file (.webmirror) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 5`,
		Args: cobra.ArbitraryArgs,
		RunE: runMirrorCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth in link hops from the seed")
	cmd.Flags().String("output-dir", config.DefaultOutputDir,
		"Directory the mirrored sites are written under")
	cmd.Flags().Bool("follow-external", false,
		"Follow links leaving the seed's domain")
	cmd.Flags().DurationP("delay", "D", config.DefaultDelay,
		"Pause each worker takes between requests")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent crawl workers per site")

	// Resource download flags
	cmd.Flags().Bool("images", true, "Download images referenced by pages")
	cmd.Flags().Bool("css", true, "Download stylesheets referenced by pages")
	cmd.Flags().Bool("js", true, "Download scripts referenced by pages")
	cmd.Flags().StringSliceP("file-types", "t", nil,
		"Additional linked file extensions to download (e.g. pdf,zip)")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites mirrored concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webmirror in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Persistence flags
	cmd.Flags().Bool("no-db", false,
		"Do not record the session in the manifest database")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// The first interrupt cancels the sessions; in-flight requests finish
	// under their own timeouts and partial reports are still produced.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runMirror(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.FollowExternal, err = cmd.Flags().GetBool("follow-external")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.DownloadImages, err = cmd.Flags().GetBool("images")
	if err != nil {
		return nil, err
	}

	cfg.DownloadCSS, err = cmd.Flags().GetBool("css")
	if err != nil {
		return nil, err
	}

	cfg.DownloadJS, err = cmd.Flags().GetBool("js")
	if err != nil {
		return nil, err
	}

	cfg.ExtraFileTypes, err = cmd.Flags().GetStringSlice("file-types")
	if err != nil {
		return nil, err
	}
	cfg.NormalizeFileTypes()

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from the config file.
	// If the user explicitly specified a config file path, error if not
	// found. If no path was specified, silently use an empty config.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments are the seed URLs
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Sensitive attributes (cookies, auth headers) are masked.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return wlog.NewLogger(os.Stderr, level)
}

// runMirror executes the mirror sessions.
func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting mirror",
		"targets", cfg.Targets,
		"outputDir", cfg.OutputDir,
		"maxDepth", cfg.MaxDepth,
		"workers", cfg.Workers,
		"saveToDB", cfg.SaveToDB,
	)

	// Open the manifest database if persistence is enabled
	var db *database.ManifestDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck
		logger.Info("manifest database opened", "dir", cfg.DBDir)
	}

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchMirror(ctx, cfg, db, logger)
	}
	return runSequentialMirror(ctx, cfg, db, logger)
}

// runSequentialMirror mirrors targets one at a time, with a live
// progress line on stderr.
func runSequentialMirror(ctx context.Context, cfg *config.Config, db *database.ManifestDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Mirroring %s...\n", target)
		startTime := time.Now()

		p := newMirrorPipeline(cfg, db, logger, progressPrinter())

		job := pipeline.NewJob(target)
		if err := p.Execute(ctx, job); err != nil {
			fmt.Fprint(os.Stderr, "\n")
			logger.Error("mirror failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Mirror error for %s: %v\n", target, err)
			continue
		}
		fmt.Fprint(os.Stderr, "\n")

		elapsed := time.Since(startTime)
		fmt.Printf("Mirror completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, job.Report); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchMirror mirrors multiple targets concurrently using
// BatchProcessor. Reports are printed in input order once the whole
// batch finished, so concurrent sessions never interleave output.
func runBatchMirror(ctx context.Context, cfg *config.Config, db *database.ManifestDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch mirror of %d sites (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return newMirrorPipeline(cfg, db, logger, nil)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	jobs, err := bp.ProcessBatch(ctx, cfg.Targets)

	for i, job := range jobs {
		if job == nil || job.Report == nil {
			continue
		}
		fmt.Printf("[%d/%d] %s\n", i+1, len(jobs), job.Seed)
		if reportErr := outputReport(cfg, job.Report); reportErr != nil {
			logger.Error("report failed", "target", job.Seed, "error", reportErr)
		}
	}

	fmt.Printf("\nBatch mirror completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return err
}

// newMirrorPipeline assembles the per-seed pipeline: crawl, then
// persist the manifest when a database is open. continueOnError keeps a
// manifest failure from suppressing the report the user asked for.
func newMirrorPipeline(cfg *config.Config, db *database.ManifestDB, logger *slog.Logger, progress crawler.ProgressFunc) *pipeline.Pipeline {
	mirrorOpts := []crawler.MirrorOption{crawler.WithLogger(logger)}
	if progress != nil {
		mirrorOpts = append(mirrorOpts, crawler.WithProgress(progress))
	}

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddStep(pipeline.NewCrawlStep(cfg, mirrorOpts...))
	if db != nil {
		p.AddStep(pipeline.NewManifestStep(db))
	}
	return p
}

// progressPrinter returns a progress callback rewriting one stderr line
// per completed task.
func progressPrinter() crawler.ProgressFunc {
	return func(s model.StatsSnapshot) {
		fmt.Fprintf(os.Stderr, "\r%d queued, %d downloaded, %d failed",
			s.Total, s.Downloaded, s.Failed)
	}
}

// outputReport outputs the session report in the requested format.
func outputReport(cfg *config.Config, rep *model.MirrorReport) error {
	if rep == nil {
		return nil
	}

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Append so a multi-seed run collects all reports in one file.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output)
	}

	_, err := w.Write(rep)
	return err
}
