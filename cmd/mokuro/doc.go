// Package main hosts the mokuro CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into batch runs
// over manga volume directories, run-history queries against the ledger,
// readiness checks, and configuration scaffolding. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
