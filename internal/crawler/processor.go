package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/model"
)

// Processor turns a fetched HTML page into its mirrored form: it extracts
// candidate links for the frontier, downloads embedded resources, rewrites
// their references to paths relative to the page's own local directory,
// and writes the rewritten document to the page's mapped path.
//
// Design decision: We parse with goquery rather than walking the
// x/net/html tree by hand because the rewrite pipeline is selection
// heavy (img[src], link[rel=stylesheet], script[src]) and goquery mutates
// attributes and re-serializes the same underlying tree.
type Processor struct {
	cfg        *config.Config
	classifier *Classifier
	downloader *Downloader
	logger     *slog.Logger
}

// NewProcessor creates a Processor for one session.
func NewProcessor(cfg *config.Config, classifier *Classifier, downloader *Downloader, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:        cfg,
		classifier: classifier,
		downloader: downloader,
		logger:     logger,
	}
}

// Process handles one fetched HTML page. It returns the schedulable links
// discovered in the page and an Asset describing the saved page file.
// The caller admits the links to the frontier; admission and depth
// accounting are not the processor's concern.
func (p *Processor) Process(ctx context.Context, body []byte, pageURL string) ([]string, model.Asset, error) {
	asset := model.Asset{URL: pageURL, Kind: model.KindPage, FetchedAt: time.Now()}

	page, err := url.Parse(pageURL)
	if err != nil {
		return nil, asset, fmt.Errorf("parse page URL %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, asset, fmt.Errorf("parse HTML of %s: %w", pageURL, err)
	}

	pagePath, err := LocalPath(pageURL, p.cfg.OutputDir)
	if err != nil {
		return nil, asset, fmt.Errorf("map %s: %w", pageURL, err)
	}
	pageDir := filepath.Dir(pagePath)

	links := p.discoverLinks(doc, page)

	if p.cfg.DownloadImages {
		p.rewriteResources(ctx, doc.Find("img[src]"), "src", page, pageDir, model.KindImage)
	}
	if p.cfg.DownloadCSS {
		p.rewriteResources(ctx, doc.Find(`link[rel="stylesheet"][href]`), "href", page, pageDir, model.KindStylesheet)
	}
	if p.cfg.DownloadJS {
		p.rewriteResources(ctx, doc.Find("script[src]"), "src", page, pageDir, model.KindScript)
	}
	if len(p.cfg.ExtraFileTypes) > 0 {
		p.downloadLinkedFiles(ctx, doc, page)
	}

	rendered, err := doc.Html()
	if err != nil {
		return nil, asset, fmt.Errorf("serialize %s: %w", pageURL, err)
	}

	if err := EnsureDir(pagePath); err != nil {
		return nil, asset, fmt.Errorf("create directories for %s: %w", pagePath, err)
	}
	if err := os.WriteFile(pagePath, []byte(rendered), 0600); err != nil {
		return nil, asset, fmt.Errorf("save %s: %w", pagePath, err)
	}

	asset.LocalPath = pagePath
	asset.ComputeSHA256([]byte(rendered))
	return links, asset, nil
}

// discoverLinks collects every anchor target that survives normalization
// and the schedulability rules. Duplicates within a page are fine; the
// frontier dedups at admission.
func (p *Processor) discoverLinks(doc *goquery.Document, page *url.URL) []string {
	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := p.classifier.Normalize(href, page)
		if !ok {
			return
		}
		if p.classifier.Schedulable(link) {
			links = append(links, link)
		}
	})
	return links
}

// rewriteResources downloads each selected resource and, on success,
// points the attribute at the local copy via a path relative to the
// page's own directory. Failed downloads leave the attribute untouched,
// still referencing the origin.
func (p *Processor) rewriteResources(ctx context.Context, sel *goquery.Selection, attr string, page *url.URL, pageDir string, kind model.AssetKind) {
	sel.Each(func(_ int, s *goquery.Selection) {
		raw, _ := s.Attr(attr)
		resURL, ok := p.classifier.Normalize(raw, page)
		if !ok {
			return
		}

		localPath, err := LocalPath(resURL, p.cfg.OutputDir)
		if err != nil {
			return
		}

		if !p.downloader.Download(ctx, resURL, localPath, kind) {
			return
		}

		rel, err := filepath.Rel(pageDir, localPath)
		if err != nil {
			p.logger.Debug("cannot relativize resource path",
				"resource", localPath, "page_dir", pageDir, "error", err)
			return
		}
		s.SetAttr(attr, filepath.ToSlash(rel))
	})
}

// downloadLinkedFiles fetches anchor targets whose extension matches the
// configured extra file types. The anchor's href is deliberately left
// pointing at the remote URL: only embedded resources are rewritten, and
// callers wanting offline-browsable document links must treat this as a
// known limitation.
func (p *Processor) downloadLinkedFiles(ctx context.Context, doc *goquery.Document, page *url.URL) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		fileURL, ok := p.classifier.Normalize(href, page)
		if !ok {
			return
		}
		if !MatchesExtraType(fileURL, p.cfg.ExtraFileTypes) {
			return
		}

		localPath, err := LocalPath(fileURL, p.cfg.OutputDir)
		if err != nil {
			return
		}
		p.downloader.Download(ctx, fileURL, localPath, model.KindFile)
	})
}
