package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/model"
)

// newTestProcessor wires a Processor against server, collecting every
// asset the downloader emits.
func newTestProcessor(t *testing.T, cfg *config.Config, server *httptest.Server, assets *[]model.Asset) *Processor {
	t.Helper()

	base, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	classifier := NewClassifier(base, false)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	downloader := NewDownloader(NewFetcher(), logger, func(a model.Asset) {
		*assets = append(*assets, a)
	})
	return NewProcessor(cfg, classifier, downloader, logger)
}

// TestProcessorProcess tests link discovery, resource rewriting, and
// page persistence.
func TestProcessorProcess(t *testing.T) {
	t.Parallel()

	t.Run("rewrites image reference to local relative path", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/logo.png", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png-bytes")) //nolint:errcheck
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		cfg := config.NewConfig()
		cfg.OutputDir = t.TempDir()

		var assets []model.Asset
		p := newTestProcessor(t, cfg, server, &assets)

		body := `<html><body><img src="/logo.png"></body></html>`
		_, asset, err := p.Process(context.Background(), []byte(body), server.URL+"/")
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		rendered, err := os.ReadFile(asset.LocalPath)
		if err != nil {
			t.Fatalf("read saved page: %v", err)
		}
		if !strings.Contains(string(rendered), `src="logo.png"`) {
			t.Errorf("img src should be rewritten to relative path, got:\n%s", rendered)
		}

		host := strings.ReplaceAll(strings.TrimPrefix(server.URL, "http://"), ":", "_")
		imgPath := filepath.Join(cfg.OutputDir, host, "logo.png")
		data, err := os.ReadFile(imgPath)
		if err != nil {
			t.Fatalf("image should be stored at %s: %v", imgPath, err)
		}
		if string(data) != "png-bytes" {
			t.Errorf("image content mismatch: got %q", data)
		}

		if len(assets) != 1 || assets[0].Kind != model.KindImage {
			t.Errorf("expected one image asset record, got %+v", assets)
		}
	})

	t.Run("failed resource download leaves attribute untouched", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		cfg := config.NewConfig()
		cfg.OutputDir = t.TempDir()

		var assets []model.Asset
		p := newTestProcessor(t, cfg, server, &assets)

		body := `<html><body><img src="/missing.png"></body></html>`
		_, asset, err := p.Process(context.Background(), []byte(body), server.URL+"/")
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		rendered, err := os.ReadFile(asset.LocalPath)
		if err != nil {
			t.Fatalf("read saved page: %v", err)
		}
		if !strings.Contains(string(rendered), `src="/missing.png"`) {
			t.Errorf("failed download must keep the original reference, got:\n%s", rendered)
		}
	})

	t.Run("discovers only schedulable links", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		cfg := config.NewConfig()
		cfg.OutputDir = t.TempDir()
		cfg.DownloadImages = false
		cfg.DownloadCSS = false
		cfg.DownloadJS = false

		var assets []model.Asset
		p := newTestProcessor(t, cfg, server, &assets)

		body := `<html><body>
			<a href="/about">about</a>
			<a href="https://other.test/page">external</a>
			<a href="mailto:x@y.test">mail</a>
			<a href="/tool.exe">binary</a>
			<a href="/about#team">fragment</a>
		</body></html>`
		links, _, err := p.Process(context.Background(), []byte(body), server.URL+"/")
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		want := server.URL + "/about"
		if len(links) != 2 {
			t.Fatalf("expected 2 links (duplicate after fragment strip), got %v", links)
		}
		for _, link := range links {
			if link != want {
				t.Errorf("unexpected link %q, want %q", link, want)
			}
		}
	})

	t.Run("downloads matching linked files without rewriting href", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/manual.pdf", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-fake")) //nolint:errcheck
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		cfg := config.NewConfig()
		cfg.OutputDir = t.TempDir()
		cfg.ExtraFileTypes = []string{".pdf"}

		var assets []model.Asset
		p := newTestProcessor(t, cfg, server, &assets)

		body := `<html><body><a href="/manual.pdf">manual</a></body></html>`
		_, asset, err := p.Process(context.Background(), []byte(body), server.URL+"/")
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		host := strings.ReplaceAll(strings.TrimPrefix(server.URL, "http://"), ":", "_")
		pdfPath := filepath.Join(cfg.OutputDir, host, "manual.pdf")
		if _, err := os.Stat(pdfPath); err != nil {
			t.Errorf("linked file should be stored at %s: %v", pdfPath, err)
		}

		rendered, err := os.ReadFile(asset.LocalPath)
		if err != nil {
			t.Fatalf("read saved page: %v", err)
		}
		if !strings.Contains(string(rendered), `href="/manual.pdf"`) {
			t.Errorf("linked file href must not be rewritten, got:\n%s", rendered)
		}
	})

	t.Run("page asset carries hash of the rewritten document", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		cfg := config.NewConfig()
		cfg.OutputDir = t.TempDir()

		var assets []model.Asset
		p := newTestProcessor(t, cfg, server, &assets)

		_, asset, err := p.Process(context.Background(), []byte("<html><body>hi</body></html>"), server.URL+"/")
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		stored, err := os.ReadFile(asset.LocalPath)
		if err != nil {
			t.Fatalf("read saved page: %v", err)
		}
		want := model.Asset{}
		want.ComputeSHA256(stored)
		if asset.SHA256 != want.SHA256 {
			t.Errorf("asset hash %s does not match stored bytes hash %s", asset.SHA256, want.SHA256)
		}
	})
}
