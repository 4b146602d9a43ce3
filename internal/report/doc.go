// Package report renders mirror session results in multiple formats:
// a human-readable text summary, JSON for machine consumption, and
// Markdown for documentation and sharing.
package report
