// Package preflight provides readiness checks for the filesystem paths and
// the inference service a batch run depends on.
//
// The run command calls RunAll after the working set is confirmed; a failed
// check aborts the run before any volume is touched, instead of letting the
// batch die mid-flight on the first page. The CLI "mokuro status" command
// uses the individual check functions to display service health.
package preflight
