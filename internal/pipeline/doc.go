// Package pipeline runs the discover, download and combine stages in order.
//
// Everything is sequential. A yearly page that fails to load is reported and
// skipped; a failed download stops the run. The local data directory is never
// cleared, so files from earlier runs are combined again on every run.
package pipeline
