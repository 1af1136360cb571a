// Package data provides pipeline steps backed by a SQL database.
//
// Steps are built with small fluent builders: Read for SELECTs, Write for
// inserts, updates and upserts, Delete, and Custom for anything else. All
// queries are written with '?' placeholders and rebound for the target
// dialect, so the same pipeline runs against SQLite (modernc.org/sqlite)
// and PostgreSQL (pgx).
//
// RegisterSteps exposes the same steps to YAML pipeline definitions through
// a config.Registry.
package data
