package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/crawler"
	"github.com/nao1215/webmirror/internal/database"
	"github.com/nao1215/webmirror/internal/report"
)

// CrawlStep runs the mirror session for the job's seed and attaches the
// resulting report to the job.
type CrawlStep struct {
	cfg  *config.Config
	opts []crawler.MirrorOption
}

// NewCrawlStep creates a crawl step. The mirror options are applied to
// every session the step creates (logger, progress callback, fetcher).
func NewCrawlStep(cfg *config.Config, opts ...crawler.MirrorOption) *CrawlStep {
	return &CrawlStep{cfg: cfg, opts: opts}
}

// Name returns the step's name for logging purposes.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do mirrors the seed. A cancelled session is not an error: the partial
// report is attached and the pipeline continues.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	m, err := crawler.NewMirror(s.cfg, job.Seed, s.opts...)
	if err != nil {
		return fmt.Errorf("create mirror session: %w", err)
	}

	rep, err := m.Run(ctx)
	job.Report = rep
	if err != nil {
		return fmt.Errorf("mirror %s: %w", job.Seed, err)
	}
	return nil
}

// ManifestStep persists the session report to the manifest database.
type ManifestStep struct {
	db *database.ManifestDB
}

// NewManifestStep creates a manifest step writing to db.
func NewManifestStep(db *database.ManifestDB) *ManifestStep {
	return &ManifestStep{db: db}
}

// Name returns the step's name for logging purposes.
func (s *ManifestStep) Name() string {
	return "manifest"
}

// Do stores the report. A job without a report (crawl step skipped or
// failed under continueOnError) is left alone.
func (s *ManifestStep) Do(ctx context.Context, job *Job) error {
	if job.Report == nil {
		return nil
	}

	id, err := s.db.SaveReport(ctx, job.Report)
	if err != nil {
		return fmt.Errorf("save session manifest: %w", err)
	}
	job.SessionID = id
	return nil
}

// ReportStep renders the session report through a report.Writer.
type ReportStep struct {
	writer report.Writer
}

// NewReportStep creates a report step rendering through w.
func NewReportStep(w report.Writer) *ReportStep {
	return &ReportStep{writer: w}
}

// Name returns the step's name for logging purposes.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes the report. Skipped when the job has no report yet.
func (s *ReportStep) Do(_ context.Context, job *Job) error {
	if job.Report == nil {
		return nil
	}

	if _, err := s.writer.Write(job.Report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
