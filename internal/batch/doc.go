// Package batch drives a confirmed working set of volumes through a
// processor with per-volume fault isolation.
//
// The Runner dispatches volumes to a bounded worker pool (one worker by
// default, preserving strict sequential order) and funnels every result
// through a single collector so the succeeded/attempted accounting stays
// exact under concurrency. A processor error or panic affects only its own
// volume; cancellation stops dispatch and counts the untouched remainder as
// skipped. The confirmation gate and the end-of-run summary live here too,
// next to the accounting they guard.
package batch
