package crawler

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, rawURL string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", rawURL, err)
	}
	return u
}

// TestClassifierNormalize tests href canonicalization.
func TestClassifierNormalize(t *testing.T) {
	t.Parallel()

	c := NewClassifier(mustParse(t, "http://a.test/"), false)
	parent := mustParse(t, "http://a.test/docs/page.html")

	tests := []struct {
		name   string
		href   string
		want   string
		wantOK bool
	}{
		{"relative path", "other.html", "http://a.test/docs/other.html", true},
		{"root relative", "/logo.png", "http://a.test/logo.png", true},
		{"absolute same host", "http://a.test/b.html", "http://a.test/b.html", true},
		{"absolute other host", "http://other.test/c.html", "http://other.test/c.html", true},
		{"fragment stripped", "/b.html#section", "http://a.test/b.html", true},
		{"fragment only", "#top", "", false},
		{"empty", "", "", false},
		{"whitespace", "   ", "", false},
		{"javascript", "javascript:void(0)", "", false},
		{"mailto", "mailto:someone@a.test", "", false},
		{"tel", "tel:+15551234", "", false},
		{"data", "data:text/plain;base64,aGk=", "", false},
		{"ftp rejected", "ftp://a.test/file.txt", "", false},
		{"host only gets slash", "http://a.test", "http://a.test/", true},
		{"upper host lowered", "HTTP://A.TEST/B.html", "http://a.test/B.html", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := c.Normalize(tt.href, parent)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.href, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

// TestClassifierSchedulable tests the frontier admission rules.
func TestClassifierSchedulable(t *testing.T) {
	t.Parallel()

	t.Run("same host accepted", func(t *testing.T) {
		t.Parallel()

		c := NewClassifier(mustParse(t, "http://a.test/"), false)
		if !c.Schedulable("http://a.test/b.html") {
			t.Error("same-host URL should be schedulable")
		}
	})

	t.Run("external host rejected by default", func(t *testing.T) {
		t.Parallel()

		c := NewClassifier(mustParse(t, "http://a.test/"), false)
		if c.Schedulable("http://other.test/c.html") {
			t.Error("external URL should not be schedulable with followExternal=false")
		}
	})

	t.Run("external host accepted when following", func(t *testing.T) {
		t.Parallel()

		c := NewClassifier(mustParse(t, "http://a.test/"), true)
		if !c.Schedulable("http://other.test/c.html") {
			t.Error("external URL should be schedulable with followExternal=true")
		}
	})

	t.Run("blocked extensions always rejected", func(t *testing.T) {
		t.Parallel()

		c := NewClassifier(mustParse(t, "http://a.test/"), true)
		for _, u := range []string{
			"http://a.test/setup.exe",
			"http://a.test/firmware.bin",
			"http://a.test/SETUP.EXE",
		} {
			if c.Schedulable(u) {
				t.Errorf("%s should never be schedulable", u)
			}
		}
	})

	t.Run("non-http scheme rejected", func(t *testing.T) {
		t.Parallel()

		c := NewClassifier(mustParse(t, "http://a.test/"), true)
		if c.Schedulable("ftp://a.test/file.txt") {
			t.Error("ftp URL should not be schedulable")
		}
	})

	t.Run("host comparison is case-insensitive", func(t *testing.T) {
		t.Parallel()

		c := NewClassifier(mustParse(t, "http://A.Test/"), false)
		if !c.Schedulable("http://a.test/page") {
			t.Error("host match should ignore case")
		}
	})
}

// TestMatchesExtraType tests extension matching for downloadable files.
func TestMatchesExtraType(t *testing.T) {
	t.Parallel()

	exts := []string{".pdf", ".zip"}

	tests := []struct {
		url  string
		want bool
	}{
		{"http://a.test/manual.pdf", true},
		{"http://a.test/Manual.PDF", true},
		{"http://a.test/archive.zip", true},
		{"http://a.test/page.html", false},
		{"http://a.test/pdf", false},
	}

	for _, tt := range tests {
		if got := MatchesExtraType(tt.url, exts); got != tt.want {
			t.Errorf("MatchesExtraType(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
