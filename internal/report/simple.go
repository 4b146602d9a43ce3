package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/webmirror/internal/model"
)

// SimpleWriter outputs a compact text summary of a mirror session.
// This is the default terminal output format.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the session summary in plain text.
func (w *SimpleWriter) Write(report *model.MirrorReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("Mirror Session Summary\n")
	sb.WriteString("======================\n")
	fmt.Fprintf(&sb, "Seed:       %s\n", report.Seed)
	fmt.Fprintf(&sb, "Output:     %s\n", report.OutputDir)
	fmt.Fprintf(&sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Elapsed:    %s\n", report.Elapsed.Round(timeRounding))
	fmt.Fprintf(&sb, "Pages:      %d total, %d downloaded, %d failed\n",
		report.Stats.Total, report.Stats.Downloaded, report.Stats.Failed)
	fmt.Fprintf(&sb, "Bytes:      %d\n", report.BytesWritten())

	if report.Cancelled {
		sb.WriteString("Status:     cancelled\n")
	} else {
		sb.WriteString("Status:     completed\n")
	}
	if report.ErrorMessage != "" {
		fmt.Fprintf(&sb, "Error:      %s\n", report.ErrorMessage)
	}

	counts := report.CountByKind()
	if len(counts) > 0 {
		sb.WriteString("\nStored assets by kind:\n")
		for _, kind := range assetKindOrder {
			if n, ok := counts[kind]; ok {
				fmt.Fprintf(&sb, "  %-11s %d\n", string(kind)+":", n)
			}
		}
	}

	failures := report.Failures()
	if len(failures) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, a := range failures {
			fmt.Fprintf(&sb, "  %s: %s\n", a.URL, a.Error)
		}
	}

	return w.output.Write([]byte(sb.String()))
}
