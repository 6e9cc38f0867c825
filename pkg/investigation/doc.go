// Package investigation defines the record model for Ganymede's investigation
// store: the schema-versioned investigation and evidence value types, their
// validation rules, the query/filter parameters, and the error taxonomy shared
// by the store engine and its callers.
//
// # Records
//
// An investigation record is a single persisted unit of work produced by an
// external agent or orchestrator. Every record is owned by a tenant and may
// carry an ordered list of evidence entries. Evidence payloads are opaque to
// the store: they are validated structurally (kind tag plus raw JSON payload)
// but never interpreted.
//
// # Schema versioning
//
// Each record carries an integer schema_version tag. The store accepts only
// versions registered in this package's decoder registry and stamps newly
// appended records with CurrentSchemaVersion. On-disk records are never
// silently upgraded; adding a version means adding a decoder.
//
// # Ordering
//
// CreatedAt is wall-clock based and clamped to be non-decreasing within one
// store instance, but ordering guarantees come from an internal append
// sequence, never from timestamp comparison.
//
// The store engine lives in the store subpackage; JSON/CSV serialization in
// export; filter validation and tenant scoping in query.
package investigation
