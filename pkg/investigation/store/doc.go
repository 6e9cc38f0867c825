// Package store implements the append-only investigation log: an NDJSON
// segment on disk fronted by an in-memory index. Appends serialize through a
// single writer; queries and exports read the index concurrently without
// touching the file.
//
// The store is bounded three ways. A record count cap evicts the oldest
// entries first, a retention window lazily expires old records on write and
// on scheduled sweeps, and a byte threshold rotates the active segment into a
// timestamped archive that is never deleted. Archived segments are recorded
// in an optional SQLite catalog for operator tooling.
package store
