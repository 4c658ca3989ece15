// Package requestlog provides types and interfaces for the request journal:
// a record of every request the stub server received, which stub (if any)
// answered it, and what was sent back.
//
// It is distinct from operational logging, which uses log/slog.
//
// # Core Types
//
// Entry is a captured request/response pair. Store defines the journal
// contract used by the dispatcher (Log) and the admin API (List, Get,
// Clear, Count).
//
// # Package Design
//
// This is a leaf package with no internal dependencies, allowing it to be
// imported by any package without creating import cycles.
package requestlog
