// Package volume resolves the set of manga volume directories a batch run
// operates on.
//
// Explicit paths are accepted as given: tilde-expanded, absolutized, and kept
// even when nothing exists at that location yet, so failures surface during
// processing where they are attributed to the volume. A parent directory
// scan picks up immediate child directories, skipping OCR sidecar
// directories and anything already present. The resulting working set is
// deduplicated and naturally sorted, so vol2 precedes vol10.
package volume
