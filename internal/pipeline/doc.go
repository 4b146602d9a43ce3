// Package pipeline orchestrates the stages of mirroring one or more
// seeds: crawling the site, persisting the session manifest, and
// rendering reports. Steps run in sequence per seed; the batch
// processor runs several seeds concurrently under one limit.
package pipeline
