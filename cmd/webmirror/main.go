// Package main provides the entry point for the webmirror CLI.
//
// webmirror downloads a website into a local directory tree: it crawls
// pages up to a configurable depth, saves embedded resources, and
// rewrites references so the mirror is browsable offline.
//
// Usage:
//
//	webmirror mirror <url> [<url>...]
//	webmirror history
//
// See --help for all available options.
package main

// main is the entry point for webmirror.
func main() {
	Execute()
}
