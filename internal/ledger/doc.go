// Package ledger persists run history in SQLite so past batches can be
// inspected after the process exits.
//
// The Store manages the database connection, schema initialization, and the
// run/volume records the batch runner emits: one row per run with its final
// tallies, one row per attempted volume with status, page count, duration,
// and the failure message when there was one.
//
// The database is an append-only history rather than coordination state.
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package ledger
