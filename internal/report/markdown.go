package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/webmirror/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.MirrorReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeAssets(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and session information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.MirrorReport) {
	md.H1("Mirror Report")
	md.PlainText("")

	status := "completed"
	if report.Cancelled {
		status = "cancelled"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", report.Seed},
			{"Output Directory", report.OutputDir},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05")},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Status", status},
		},
	})
	md.PlainText("")
}

// writeSummary writes the progress counters and per-kind totals.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total URLs", strconv.Itoa(report.Stats.Total)},
			{"Downloaded", strconv.Itoa(report.Stats.Downloaded)},
			{"Failed", strconv.Itoa(report.Stats.Failed)},
			{"Bytes Written", strconv.FormatInt(report.BytesWritten(), 10)},
		},
	})
	md.PlainText("")

	counts := report.CountByKind()
	if len(counts) == 0 {
		return
	}

	items := make([]string, 0, len(counts))
	for _, kind := range assetKindOrder {
		if n, ok := counts[kind]; ok {
			items = append(items, fmt.Sprintf("%s: %d", kind, n))
		}
	}
	md.H2("Stored Assets by Kind")
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

// writeAssets writes the manifest of successfully stored assets.
func (w *MarkdownWriter) writeAssets(md *markdown.Markdown, report *model.MirrorReport) {
	rows := make([][]string, 0, len(report.Assets))
	for _, a := range report.Assets {
		if !a.OK() {
			continue
		}
		rows = append(rows, []string{
			a.URL,
			string(a.Kind),
			a.LocalPath,
			strconv.FormatInt(a.Size, 10),
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Assets")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Local Path", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the list of failed downloads, if any.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.MirrorReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	rows := make([][]string, 0, len(failures))
	for _, a := range failures {
		rows = append(rows, []string{a.URL, string(a.Kind), a.Error})
	}

	md.H2("Failures")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
