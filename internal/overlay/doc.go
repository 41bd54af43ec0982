// Package overlay turns a volume directory of page images into a mokuro
// overlay artifact.
//
// The Generator enumerates a volume's pages in natural reading order, fills
// the per-page OCR sidecars under the volume's _ocr directory (calling the
// inference service only for pages without a cached result), and assembles
// the volume-level .mokuro document with stable title and volume identifiers.
// All file writes go through atomic temp-and-rename helpers so an interrupted
// run never leaves a half-written sidecar or artifact behind.
//
// A Generator is constructed once per run with the run's fixed options and is
// safe to share across concurrently processed volumes.
package overlay
