package crawler

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLocalPath tests the URL to filesystem mapping rules.
func TestLocalPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"root with slash", "http://a.test/", filepath.Join("out", "a.test", "index.html")},
		{"html file", "http://a.test/docs/page.html", filepath.Join("out", "a.test", "docs", "page.html")},
		{"trailing slash dir", "http://a.test/docs/", filepath.Join("out", "a.test", "docs", "index.html")},
		{"extensionless segment", "http://a.test/docs", filepath.Join("out", "a.test", "docs", "index.html")},
		{"port colon replaced", "http://a.test:8080/x.css", filepath.Join("out", "a.test_8080", "x.css")},
		{"resource file", "http://a.test/logo.png", filepath.Join("out", "a.test", "logo.png")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LocalPath(tt.url, "out")
			if err != nil {
				t.Fatalf("LocalPath(%q) returned error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("LocalPath(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

// TestLocalPathDeterministic tests that mapping is pure: repeated calls
// agree and never error.
func TestLocalPathDeterministic(t *testing.T) {
	t.Parallel()

	first, err := LocalPath("http://a.test/docs/page.html", "out")
	if err != nil {
		t.Fatalf("first call errored: %v", err)
	}
	second, err := LocalPath("http://a.test/docs/page.html", "out")
	if err != nil {
		t.Fatalf("second call errored: %v", err)
	}
	if first != second {
		t.Errorf("mapping is not deterministic: %q != %q", first, second)
	}
}

// TestEnsureDir tests idempotent directory creation.
func TestEnsureDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "a.test", "docs", "page.html")

	if err := EnsureDir(target); err != nil {
		t.Fatalf("first EnsureDir failed: %v", err)
	}
	if err := EnsureDir(target); err != nil {
		t.Fatalf("second EnsureDir failed: %v", err)
	}

	info, err := os.Stat(filepath.Dir(target))
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}
