package crawler

import (
	"sync"
	"testing"

	"github.com/nao1215/webmirror/internal/model"
)

// TestStats tests counter accounting and the progress callback contract.
func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("counts admissions and outcomes", func(t *testing.T) {
		t.Parallel()

		s := NewStats()
		s.RecordAdmit()
		s.RecordAdmit()
		s.RecordAdmit()
		s.RecordOutcome(true)
		s.RecordOutcome(false)

		snap := s.Snapshot()
		if snap.Total != 3 || snap.Downloaded != 1 || snap.Failed != 1 {
			t.Errorf("unexpected snapshot: %+v", snap)
		}
		if snap.Pending() != 1 {
			t.Errorf("expected 1 pending, got %d", snap.Pending())
		}
	})

	t.Run("callback sees every outcome", func(t *testing.T) {
		t.Parallel()

		s := NewStats()
		var mu sync.Mutex
		calls := make([]model.StatsSnapshot, 0)
		s.OnProgress(func(snap model.StatsSnapshot) {
			mu.Lock()
			calls = append(calls, snap)
			mu.Unlock()
		})

		s.RecordAdmit()
		s.RecordAdmit()
		s.RecordOutcome(true)
		s.RecordOutcome(false)

		mu.Lock()
		defer mu.Unlock()
		if len(calls) != 2 {
			t.Fatalf("expected 2 callbacks, got %d", len(calls))
		}
		last := calls[len(calls)-1]
		if last.Downloaded != 1 || last.Failed != 1 {
			t.Errorf("unexpected final snapshot: %+v", last)
		}
	})

	t.Run("invariant holds under concurrency", func(t *testing.T) {
		t.Parallel()

		s := NewStats()
		s.OnProgress(func(snap model.StatsSnapshot) {
			if snap.Downloaded+snap.Failed > snap.Total {
				t.Errorf("invariant violated: %+v", snap)
			}
		})

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				s.RecordAdmit()
				s.RecordOutcome(n%2 == 0)
			}(i)
		}
		wg.Wait()

		snap := s.Snapshot()
		if snap.Total != 20 || snap.Downloaded+snap.Failed != 20 {
			t.Errorf("unexpected totals: %+v", snap)
		}
	})
}
