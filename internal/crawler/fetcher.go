package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Response is the outcome of a successful HTTP exchange. A non-200 status
// is not an error at this layer; callers decide how to treat it.
type Response struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body holds the response body, capped at the configured maximum
	// size. HTML bodies are decoded to UTF-8.
	Body []byte
}

// IsHTML reports whether the response carries an HTML document.
func (r *Response) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html")
}

// Fetcher performs HTTP GETs with a persistent client and a fixed
// browser-like header set shared by every request in a session.
//
// Design decision: We use a struct holding the http.Client rather than
// passing a client on each call because:
//  1. Header configuration (User-Agent, per-site cookies) should be
//     consistent across the session
//  2. Connection pooling works better with a shared client
//  3. Easier to test with a custom client
type Fetcher struct {
	// client is the shared HTTP client. Timeouts are applied per request
	// via context so page and resource fetches can differ.
	client *http.Client

	// userAgent identifies a common desktop browser.
	userAgent string

	// headers are extra request headers, typically per-site overrides
	// from the configuration file.
	headers map[string]string

	// cookie is an optional Cookie header value for authenticated sites.
	cookie string

	// maxBodySize caps how many response bytes are read.
	maxBodySize int64

	// pageTimeout bounds page fetches; resourceTimeout bounds resource
	// downloads, which should give up sooner.
	pageTimeout     time.Duration
	resourceTimeout time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every request.
func WithCookie(cookie string) FetcherOption {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithPageTimeout sets the per-request timeout for page fetches.
func WithPageTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.pageTimeout = d
	}
}

// WithResourceTimeout sets the per-request timeout for resource fetches.
func WithResourceTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.resourceTimeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a Fetcher with a fresh persistent client.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:          &http.Client{},
		userAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		maxBodySize:     20 * 1024 * 1024,
		pageTimeout:     15 * time.Second,
		resourceTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Page fetches an HTML page with the page timeout. HTML bodies declared
// in a non-UTF-8 charset are transparently decoded to UTF-8 so the
// processor can parse and re-serialize them safely.
func (f *Fetcher) Page(ctx context.Context, rawURL string) (*Response, error) {
	return f.get(ctx, rawURL, f.pageTimeout, true)
}

// Resource fetches a non-HTML resource with the shorter resource timeout.
// The body is returned verbatim.
func (f *Fetcher) Resource(ctx context.Context, rawURL string) (*Response, error) {
	return f.get(ctx, rawURL, f.resourceTimeout, false)
}

func (f *Fetcher) get(ctx context.Context, rawURL string, timeout time.Duration, decodeHTML bool) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	var reader io.Reader = io.LimitReader(resp.Body, f.maxBodySize)
	if decodeHTML && strings.Contains(strings.ToLower(contentType), "text/html") {
		// charset.NewReader sniffs the declared or meta charset and
		// returns a UTF-8 stream. On failure we fall back to raw bytes.
		if decoded, err := charset.NewReader(reader, contentType); err == nil {
			reader = decoded
		}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}
