// Package model defines the core data structures used throughout webmirror.
//
// This package contains the following main types:
//   - Task: A pending crawl unit (URL plus BFS depth from the seed)
//   - StatsSnapshot: A consistent view of crawl progress counters
//   - Asset: A single downloaded page or resource with its local path
//   - MirrorReport: The complete result of one mirror session
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, database, report, pipeline) need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
