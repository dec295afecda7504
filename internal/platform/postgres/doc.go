// Package postgres provides the optional grant event audit store: a
// lifecycle event listener that appends every event to a PostgreSQL table.
// The audit log is append-only and is never read back to restore coordinator
// state.
package postgres
