// Package export serializes investigation records to interchange formats.
// JSON is lossless: an exported record re-imports byte-equal in meaning. CSV
// flattens scalar fields to columns and carries the evidence list as one JSON
// blob column for spreadsheet tooling.
//
// Both exporters offer a slice form and a streaming form; the streaming form
// pairs with the store's QueryStream so exports never hold the full result
// set in memory.
package export
