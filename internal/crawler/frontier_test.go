package crawler

import (
	"sync"
	"testing"
	"time"
)

// TestFrontierAdmission tests the atomic dedup boundary.
func TestFrontierAdmission(t *testing.T) {
	t.Parallel()

	t.Run("admits a URL exactly once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if !f.TryAdmit("http://a.test/", 0) {
			t.Fatal("first admission should succeed")
		}
		if f.TryAdmit("http://a.test/", 0) {
			t.Error("second admission of the same URL should fail")
		}
		if f.VisitedCount() != 1 {
			t.Errorf("expected 1 visited URL, got %d", f.VisitedCount())
		}
	})

	t.Run("concurrent admissions admit once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		admitted := 0
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if f.TryAdmit("http://a.test/race", 1) {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if admitted != 1 {
			t.Errorf("expected exactly 1 successful admission, got %d", admitted)
		}
	})
}

// TestFrontierDequeue tests FIFO delivery and the bounded wait.
func TestFrontierDequeue(t *testing.T) {
	t.Parallel()

	t.Run("delivers in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.TryAdmit("http://a.test/1", 0)
		f.TryAdmit("http://a.test/2", 1)

		first, ok := f.Dequeue(time.Second)
		if !ok || first.URL != "http://a.test/1" || first.Depth != 0 {
			t.Errorf("unexpected first task: %+v ok=%v", first, ok)
		}
		second, ok := f.Dequeue(time.Second)
		if !ok || second.URL != "http://a.test/2" || second.Depth != 1 {
			t.Errorf("unexpected second task: %+v ok=%v", second, ok)
		}
	})

	t.Run("empty frontier times out", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		start := time.Now()
		_, ok := f.Dequeue(50 * time.Millisecond)
		if ok {
			t.Error("expected timeout on empty frontier")
		}
		if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
			t.Errorf("dequeue returned too early: %v", elapsed)
		}
	})

	t.Run("wakes a parked waiter on admission", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		got := make(chan bool, 1)
		go func() {
			_, ok := f.Dequeue(2 * time.Second)
			got <- ok
		}()

		time.Sleep(20 * time.Millisecond)
		f.TryAdmit("http://a.test/", 0)

		select {
		case ok := <-got:
			if !ok {
				t.Error("waiter should have received the task")
			}
		case <-time.After(time.Second):
			t.Error("waiter did not wake up")
		}
	})
}

// TestFrontierCompletion tests the drained signal semantics.
func TestFrontierCompletion(t *testing.T) {
	t.Parallel()

	t.Run("drains when last in-flight task resolves", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.TryAdmit("http://a.test/", 0)

		select {
		case <-f.Drained():
			t.Fatal("must not drain while a task is pending")
		default:
		}

		task, ok := f.Dequeue(time.Second)
		if !ok {
			t.Fatal("dequeue failed")
		}
		if f.Idle() {
			t.Error("in-flight task must keep the frontier non-idle")
		}

		// The in-flight task spawns a child before resolving.
		f.TryAdmit(task.URL+"child", task.Depth+1)
		f.Done()

		select {
		case <-f.Drained():
			t.Fatal("must not drain while the child is queued")
		default:
		}

		if _, ok := f.Dequeue(time.Second); !ok {
			t.Fatal("child dequeue failed")
		}
		f.Done()

		select {
		case <-f.Drained():
		case <-time.After(time.Second):
			t.Error("frontier should drain once everything resolved")
		}
		if !f.Idle() {
			t.Error("drained frontier should be idle")
		}
	})
}
