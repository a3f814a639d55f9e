// Package watch re-runs work when files change, coalescing bursts of
// filesystem events with a Debouncer.
package watch
