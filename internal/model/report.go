package model

import (
	"sync"
	"time"
)

// MirrorReport is the complete result of one mirror session: the seed,
// the final progress counters, and every asset that was written (or
// attempted) under the output directory.
//
// Design decision: The report collects assets itself behind a mutex
// rather than leaving synchronization to the crawler because every
// producer of assets (page workers, the resource downloader) runs on a
// worker goroutine, and a single synchronized sink keeps the append
// discipline in one place.
type MirrorReport struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// OutputDir is the directory the site was mirrored into.
	OutputDir string `json:"outputDir"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"startedAt"`

	// Elapsed is the total wall-clock duration of the session.
	Elapsed time.Duration `json:"elapsed"`

	// Stats holds the final progress counters.
	Stats StatsSnapshot `json:"stats"`

	// Assets lists every downloaded page and resource, including failures.
	Assets []Asset `json:"assets"`

	// Cancelled is true when the session was stopped before the frontier
	// drained, either by Stop or by context cancellation.
	Cancelled bool `json:"cancelled,omitempty"`

	// Error holds the fatal session error, if any. Recoverable per-task
	// errors are recorded on the individual assets instead.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"errorMessage,omitempty"`

	mu sync.Mutex
}

// NewMirrorReport creates a report for a session starting now.
func NewMirrorReport(seed, outputDir string) *MirrorReport {
	return &MirrorReport{
		Seed:      seed,
		OutputDir: outputDir,
		StartedAt: time.Now(),
		Assets:    make([]Asset, 0),
	}
}

// AddAsset appends an asset record. Safe for concurrent use.
func (r *MirrorReport) AddAsset(a Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Assets = append(r.Assets, a)
}

// SetError records a fatal session error.
func (r *MirrorReport) SetError(err error) {
	if err == nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}

// Failures returns the assets whose download did not succeed.
func (r *MirrorReport) Failures() []Asset {
	r.mu.Lock()
	defer r.mu.Unlock()

	failed := make([]Asset, 0)
	for _, a := range r.Assets {
		if !a.OK() {
			failed = append(failed, a)
		}
	}
	return failed
}

// BytesWritten returns the total size of all successfully stored assets.
func (r *MirrorReport) BytesWritten() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, a := range r.Assets {
		if a.OK() {
			total += a.Size
		}
	}
	return total
}

// CountByKind returns how many successfully stored assets exist per kind.
func (r *MirrorReport) CountByKind() map[AssetKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[AssetKind]int)
	for _, a := range r.Assets {
		if a.OK() {
			counts[a.Kind]++
		}
	}
	return counts
}
