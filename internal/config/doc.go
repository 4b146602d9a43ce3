// Package config provides configuration structures and utilities for
// webmirror. It defines the mirror session options (depth, workers, delay,
// resource toggles), per-site overrides loaded from a YAML file, and the
// XDG directory helpers used for the manifest database.
package config
