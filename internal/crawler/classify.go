package crawler

import (
	"net/url"
	"strings"
)

// blockedExtensions are never scheduled, regardless of any other setting.
// The block takes precedence over the extra file type allowlist.
var blockedExtensions = []string{".exe", ".bin"}

// skippedSchemes are href prefixes that can never become fetchable URLs.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Classifier decides whether discovered links belong in the crawl and
// canonicalizes them to absolute URLs. One Classifier serves one session;
// it carries the seed's host for the same-host check.
type Classifier struct {
	// base is the parsed seed URL. Its host is the crawl boundary when
	// followExternal is false.
	base *url.URL

	// followExternal allows scheduling URLs on hosts other than the seed's.
	followExternal bool
}

// NewClassifier creates a Classifier scoped to the given seed URL.
func NewClassifier(seed *url.URL, followExternal bool) *Classifier {
	return &Classifier{base: seed, followExternal: followExternal}
}

// Normalize canonicalizes a raw href to an absolute URL.
// It strips any fragment, resolves relative references against the parent
// page URL, and lowercases the scheme and host so the same page always
// produces the same string for deduplication. Returns false for hrefs
// that cannot become fetchable URLs (empty, fragment-only, javascript:,
// mailto:, and similar).
//
// An empty path is normalized to "/" so http://example.com and
// http://example.com/ dedup to the same URL and map to the same file.
func (c *Classifier) Normalize(rawHref string, parent *url.URL) (string, bool) {
	href := strings.TrimSpace(rawHref)
	if href == "" || href == "#" {
		return "", false
	}

	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(href, scheme) {
			return "", false
		}
	}

	// Remove the fragment before parsing; #anchor never changes content.
	if i := strings.Index(href, "#"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", false
		}
	} else {
		if parent == nil {
			return "", false
		}
		u = parent.ResolveReference(u)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	normalized := u.String()
	if normalized == "" {
		return "", false
	}
	return normalized, true
}

// Schedulable reports whether a normalized URL should be admitted to the
// frontier:
//  1. The scheme must be http or https.
//  2. Unless followExternal is set, the host must match the seed's host.
//  3. URLs whose path ends with a blocked extension are rejected
//     unconditionally.
//
// Anything not rejected is accepted; membership in the extra file type
// list neither admits nor blocks a URL here.
func (c *Classifier) Schedulable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if !c.followExternal && !strings.EqualFold(u.Host, c.base.Host) {
		return false
	}

	p := strings.ToLower(u.Path)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(p, ext) {
			return false
		}
	}

	return true
}

// MatchesExtraType reports whether the URL's path ends with one of the
// configured extra file extensions. Matching is case-insensitive.
// Extensions are expected in normalized form (leading dot, lowercase),
// see config.Config.NormalizeFileTypes.
func MatchesExtraType(rawURL string, extensions []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	p := strings.ToLower(u.Path)
	for _, ext := range extensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
