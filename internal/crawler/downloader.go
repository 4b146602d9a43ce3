package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nao1215/webmirror/internal/model"
)

// Downloader fetches a single non-HTML resource and writes it to its
// mapped local path. It is stateless: the same resource referenced from
// several pages is fetched again each time, landing on the same file.
//
// Every failure is swallowed here and reported as a boolean so a broken
// image can never abort the page processing that triggered it.
type Downloader struct {
	fetcher *Fetcher
	logger  *slog.Logger

	// onAsset, when set, receives a record for every attempted download.
	// It must be safe to call from any worker goroutine.
	onAsset func(model.Asset)
}

// NewDownloader creates a Downloader. onAsset may be nil.
func NewDownloader(fetcher *Fetcher, logger *slog.Logger, onAsset func(model.Asset)) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{fetcher: fetcher, logger: logger, onAsset: onAsset}
}

// Download fetches rawURL and writes the body to localPath, creating
// parent directories as needed. It returns true only when the resource
// was stored completely.
func (d *Downloader) Download(ctx context.Context, rawURL, localPath string, kind model.AssetKind) bool {
	asset := model.Asset{URL: rawURL, Kind: kind, FetchedAt: time.Now()}

	resp, err := d.fetcher.Resource(ctx, rawURL)
	if err != nil {
		asset.Error = err.Error()
		d.emit(asset)
		d.logger.Debug("resource fetch failed", "url", rawURL, "error", err)
		return false
	}

	asset.StatusCode = resp.StatusCode
	asset.ContentType = resp.ContentType

	if resp.StatusCode != http.StatusOK {
		asset.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		d.emit(asset)
		d.logger.Debug("resource fetch failed", "url", rawURL, "status", resp.StatusCode)
		return false
	}

	if err := EnsureDir(localPath); err != nil {
		asset.Error = err.Error()
		d.emit(asset)
		d.logger.Debug("resource save failed", "url", rawURL, "path", localPath, "error", err)
		return false
	}

	if err := os.WriteFile(localPath, resp.Body, 0600); err != nil {
		asset.Error = err.Error()
		d.emit(asset)
		d.logger.Debug("resource save failed", "url", rawURL, "path", localPath, "error", err)
		return false
	}

	asset.LocalPath = localPath
	asset.ComputeSHA256(resp.Body)
	d.emit(asset)
	return true
}

func (d *Downloader) emit(asset model.Asset) {
	if d.onAsset != nil {
		d.onAsset(asset)
	}
}
