// Package log provides logging helpers built on log/slog.
// Its redacting handler masks cookies, authorization headers, and other
// credentials that per-site configurations can inject into requests, so
// debug logging never leaks session material.
package log
