package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// AssetKind classifies what a downloaded asset is, based on how it was
// discovered rather than on its content type.
type AssetKind string

// Asset kinds recorded in mirror reports and the manifest database.
const (
	// KindPage is an HTML page fetched from the frontier.
	KindPage AssetKind = "page"

	// KindRaw is a non-HTML document fetched from the frontier
	// (e.g. a PDF reached through a plain link).
	KindRaw AssetKind = "raw"

	// KindImage is an image referenced by an img tag.
	KindImage AssetKind = "image"

	// KindStylesheet is a CSS file referenced by a link tag.
	KindStylesheet AssetKind = "stylesheet"

	// KindScript is a JavaScript file referenced by a script tag.
	KindScript AssetKind = "script"

	// KindFile is a document matched by the configured extra file types.
	KindFile AssetKind = "file"
)

// Asset records one downloaded page or resource and where it was saved.
// Failed downloads are recorded too, with Error set and LocalPath empty
// or pointing at a partially determined destination.
type Asset struct {
	// URL is the remote URL the asset was fetched from.
	URL string `json:"url"`

	// LocalPath is the filesystem path the asset was written to.
	LocalPath string `json:"localPath,omitempty"`

	// Kind classifies the asset (page, image, stylesheet, ...).
	Kind AssetKind `json:"kind"`

	// StatusCode is the HTTP status of the fetch, or 0 when the request
	// never produced a response (network error).
	StatusCode int `json:"statusCode,omitempty"`

	// ContentType is the Content-Type header of the response.
	ContentType string `json:"contentType,omitempty"`

	// Size is the number of body bytes written to disk.
	Size int64 `json:"size"`

	// SHA256 is the hex-encoded hash of the stored bytes.
	SHA256 string `json:"sha256,omitempty"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetchedAt"`

	// Error holds a short description of why the download failed.
	// Empty for successful downloads.
	Error string `json:"error,omitempty"`
}

// OK reports whether the asset was downloaded and saved successfully.
func (a *Asset) OK() bool {
	return a.Error == ""
}

// ComputeSHA256 sets Size and SHA256 from the given body bytes.
func (a *Asset) ComputeSHA256(body []byte) {
	sum := sha256.Sum256(body)
	a.SHA256 = hex.EncodeToString(sum[:])
	a.Size = int64(len(body))
}
