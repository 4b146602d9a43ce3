package model

// Task is a single unit of crawl work: a normalized URL and its BFS
// distance from the seed. The seed itself has Depth 0.
//
// Tasks are immutable once created. The frontier guarantees that at most
// one Task ever exists for a given URL within a session.
type Task struct {
	// URL is the absolute, normalized URL to fetch.
	URL string

	// Depth is the number of link hops from the seed URL.
	Depth int
}

// StatsSnapshot is a consistent view of the session progress counters.
// It is delivered to progress callbacks after every completed task.
//
// Invariant: Downloaded + Failed <= Total. Total equals the number of
// distinct URLs admitted to the frontier.
type StatsSnapshot struct {
	// Total is the number of distinct URLs admitted for this session.
	Total int `json:"total"`

	// Downloaded is the number of tasks that completed successfully.
	Downloaded int `json:"downloaded"`

	// Failed is the number of tasks that ended in an error or a
	// non-200 HTTP status.
	Failed int `json:"failed"`
}

// Pending returns the number of admitted tasks that have not yet been
// resolved to an outcome.
func (s StatsSnapshot) Pending() int {
	return s.Total - s.Downloaded - s.Failed
}
