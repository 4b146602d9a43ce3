package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// TestFetcherPage tests page fetching and header behavior.
func TestFetcherPage(t *testing.T) {
	t.Parallel()

	t.Run("sends browser-like headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotCookie, gotCustom string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCookie = r.Header.Get("Cookie")
			gotCustom = r.Header.Get("X-Custom")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><body>ok</body></html>")) //nolint:errcheck
		}))
		defer server.Close()

		f := NewFetcher(
			WithUserAgent("test-agent"),
			WithCookie("session=abc"),
			WithHeaders(map[string]string{"X-Custom": "yes"}),
		)

		resp, err := f.Page(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if !resp.IsHTML() {
			t.Error("response should be HTML")
		}
		if gotUA != "test-agent" {
			t.Errorf("expected custom User-Agent, got %q", gotUA)
		}
		if gotCookie != "session=abc" {
			t.Errorf("expected cookie header, got %q", gotCookie)
		}
		if gotCustom != "yes" {
			t.Errorf("expected custom header, got %q", gotCustom)
		}
	})

	t.Run("non-200 status is not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		resp, err := NewFetcher().Page(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("status 500 must not be a transport error: %v", err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})

	t.Run("decodes non-UTF-8 pages", func(t *testing.T) {
		t.Parallel()

		// "café" encoded as ISO-8859-1.
		latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("<html><body>café</body></html>"))
		if err != nil {
			t.Fatalf("encoding failed: %v", err)
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			w.Write(latin1) //nolint:errcheck
		}))
		defer server.Close()

		resp, err := NewFetcher().Page(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if !strings.Contains(string(resp.Body), "café") {
			t.Errorf("body should be decoded to UTF-8, got %q", string(resp.Body))
		}
	})

	t.Run("caps body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(make([]byte, 4096)) //nolint:errcheck
		}))
		defer server.Close()

		resp, err := NewFetcher(WithMaxBodySize(1024)).Resource(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(resp.Body) != 1024 {
			t.Errorf("expected body capped at 1024 bytes, got %d", len(resp.Body))
		}
	})

	t.Run("times out slow servers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer server.Close()

		f := NewFetcher(WithResourceTimeout(50 * time.Millisecond))
		if _, err := f.Resource(context.Background(), server.URL); err == nil {
			t.Error("expected timeout error")
		}
	})
}
