package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/webmirror/internal/model"
)

// timeRounding is the precision used when printing elapsed durations.
const timeRounding = time.Millisecond

// assetKindOrder fixes the presentation order of asset kinds in
// human-readable formats.
var assetKindOrder = []model.AssetKind{
	model.KindPage,
	model.KindRaw,
	model.KindImage,
	model.KindStylesheet,
	model.KindScript,
	model.KindFile,
}

// JSONWriter outputs reports in JSON format.
// This format is designed for machine consumption and integration
// with other tools.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printing with indentation.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(indent bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		indent:     true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report as JSON.
func (w *JSONWriter) Write(report *model.MirrorReport) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
