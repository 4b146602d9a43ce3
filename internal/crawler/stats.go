package crawler

import (
	"sync"

	"github.com/nao1215/webmirror/internal/model"
)

// ProgressFunc receives a stats snapshot after every completed task.
// It is invoked synchronously on the worker that finished the task, so
// it must return quickly and be safe to call from any goroutine; a UI
// consumer should marshal the snapshot to its own thread.
type ProgressFunc func(model.StatsSnapshot)

// Stats holds the session progress counters behind a single mutex.
// Counters are monotonically non-decreasing and always satisfy
// downloaded + failed <= total.
type Stats struct {
	mu       sync.Mutex
	snapshot model.StatsSnapshot
	callback ProgressFunc
}

// NewStats creates zeroed counters for one session.
func NewStats() *Stats {
	return &Stats{}
}

// OnProgress registers the progress callback. Must be called before the
// session starts; it is not synchronized against RecordOutcome.
func (s *Stats) OnProgress(fn ProgressFunc) {
	s.callback = fn
}

// RecordAdmit counts one URL admitted to the frontier.
func (s *Stats) RecordAdmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Total++
}

// RecordOutcome counts one resolved task and delivers a snapshot to the
// progress callback. The callback runs outside the lock so a slow
// consumer cannot stall other workers' outcome recording.
func (s *Stats) RecordOutcome(success bool) {
	s.mu.Lock()
	if success {
		s.snapshot.Downloaded++
	} else {
		s.snapshot.Failed++
	}
	snap := s.snapshot
	cb := s.callback
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// Snapshot returns a consistent copy of the current counters.
func (s *Stats) Snapshot() model.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}
