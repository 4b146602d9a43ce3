// Package crawler implements the webmirror crawl engine.
//
// # Architecture
//
// The package is designed around the Mirror type, which owns all state for
// one mirror session: the frontier of pending tasks, the visited set, the
// progress statistics, and a fixed pool of workers. Everything else is a
// collaborator the Mirror wires together:
//
//   - Classifier: decides whether a discovered link is schedulable and
//     canonicalizes it to an absolute URL
//   - LocalPath: a pure function mapping URLs to filesystem paths that
//     mirror host+path under the output directory
//   - Fetcher: a persistent HTTP client with browser-like headers and
//     per-request timeouts
//   - Processor: parses HTML, downloads embedded resources, rewrites
//     their references to local relative paths, and saves the page
//   - Downloader: fetches a single non-HTML resource to disk
//   - Frontier: the synchronized FIFO of pending tasks plus the visited
//     set; admission is a single atomic check-and-enqueue
//   - Stats: synchronized progress counters with a callback hook
//
// # Completion and cancellation
//
// The frontier tracks tasks in the system (queued plus in flight) under
// one mutex, so "frontier empty and nothing in flight" is observed as a
// single consistent snapshot. A session finishes when that count reaches
// zero; polling two independent conditions would race with a worker that
// has dequeued a task but not yet recorded its outcome.
//
// Cancellation is cooperative: workers observe the session context at
// the dequeue wait and the politeness delay. In-flight requests are
// bounded only by their own per-request timeout.
//
// # Politeness
//
// Each worker pauses between tasks using a rate limiter, so the aggregate
// request rate stays near workers/delay. The delay wait honors context
// cancellation, so stopping a session is never delayed by sleeping workers.
package crawler
