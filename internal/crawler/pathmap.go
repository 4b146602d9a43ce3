package crawler

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// LocalPath maps a URL to the filesystem path its content is stored at,
// mirroring host+path under outputDir. The function is pure: the same URL
// always maps to the same path.
//
// Mapping rules:
//   - host and path are concatenated (http://a.test/docs/x.html ->
//     a.test/docs/x.html)
//   - every ':' becomes '_' so ports survive on filesystems that reject
//     colons in names
//   - a path ending in '/' gets index.html appended
//   - a final segment without an extension is treated as a directory
//     index and gets /index.html appended
//   - the result is NFC-normalized so the same URL maps to one file even
//     when hrefs carry differently composed Unicode
func LocalPath(rawURL, outputDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	p := u.Host + u.Path
	p = strings.ReplaceAll(p, ":", "_")

	switch {
	case strings.HasSuffix(p, "/"):
		p += "index.html"
	case !strings.Contains(path.Base(p), "."):
		p += "/index.html"
	}

	p = norm.NFC.String(p)

	return filepath.Join(outputDir, filepath.FromSlash(p)), nil
}

// EnsureDir creates every directory leading up to filePath.
// It is idempotent and safe to call repeatedly for the same path.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0750)
}
