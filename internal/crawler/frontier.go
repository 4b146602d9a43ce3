package crawler

import (
	"sync"
	"time"

	"github.com/nao1215/webmirror/internal/model"
)

// Frontier is the synchronized FIFO of pending crawl tasks combined with
// the session's visited set. Combining the two behind one mutex is the
// point: admission is a single atomic membership-check-and-enqueue, so a
// URL can never be scheduled twice even when several workers discover it
// simultaneously.
//
// The frontier also tracks tasks in flight (dequeued but not yet marked
// Done) so completion can be observed as one consistent snapshot:
// queue empty AND in-flight zero. Checking those as two independent
// reads would race with a worker mid-dequeue.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	// queue holds pending tasks in FIFO order.
	queue []model.Task

	// visited holds every URL ever admitted this session.
	visited map[string]bool

	// inFlight counts dequeued tasks whose outcome is not yet recorded.
	inFlight int

	// drained is closed exactly once, when the queue is empty and no
	// task is in flight after at least one task was processed.
	drained chan struct{}
	closed  bool
}

// NewFrontier creates an empty frontier for one session.
func NewFrontier() *Frontier {
	f := &Frontier{
		visited: make(map[string]bool),
		drained: make(chan struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// TryAdmit atomically checks the visited set and, if the URL was never
// admitted, marks it visited and enqueues a task at the given depth.
// Returns true when the task was admitted. This is the only dedup
// boundary in the session.
func (f *Frontier) TryAdmit(url string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited[url] {
		return false
	}
	f.visited[url] = true
	f.queue = append(f.queue, model.Task{URL: url, Depth: depth})
	f.cond.Signal()
	return true
}

// Dequeue removes the oldest pending task, waiting up to wait for one to
// arrive. The in-flight count is incremented before the lock is released,
// so the task is visible to completion detection the moment it leaves
// the queue. Returns false when the wait elapsed with nothing pending.
func (f *Frontier) Dequeue(wait time.Duration) (model.Task, bool) {
	deadline := time.Now().Add(wait)

	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.queue) == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return model.Task{}, false
		}
		// sync.Cond has no timed wait; a timer broadcast bounds it.
		timer := time.AfterFunc(remaining, f.cond.Broadcast)
		f.cond.Wait()
		timer.Stop()
	}

	task := f.queue[0]
	f.queue = f.queue[1:]
	f.inFlight++
	return task, true
}

// Done marks one dequeued task as resolved. When the last in-flight task
// resolves against an empty queue, the drained channel is closed. New
// admissions only originate from in-flight tasks, so once the system is
// empty it stays empty.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inFlight--
	if f.inFlight == 0 && len(f.queue) == 0 && !f.closed {
		f.closed = true
		close(f.drained)
	}
}

// Drained returns a channel closed when the frontier is empty and no
// task is in flight.
func (f *Frontier) Drained() <-chan struct{} {
	return f.drained
}

// Idle reports, as a single consistent observation, whether the frontier
// is empty with nothing in flight.
func (f *Frontier) Idle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0 && f.inFlight == 0
}

// VisitedCount returns the number of distinct URLs ever admitted.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
