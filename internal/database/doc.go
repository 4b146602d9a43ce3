// Package database provides SQLite-based persistence for mirror sessions.
// Every completed session is recorded as one row plus the per-asset
// manifest, so later runs can answer "what did I mirror, when, and did
// the content change" without rescanning the output directory.
package database
