// Ganymede is a tenant-aware persistence service for investigation records.
//
// It keeps an append-only NDJSON log with bounded memory and disk use:
// count-based FIFO eviction, age-based retention, and size-triggered segment
// rotation with timestamped archives. Records are served back through
// cursor-paginated queries and streaming JSON/CSV export, over HTTP or
// directly from the command line.
//
// Usage:
//
//	# Start the HTTP API
//	ganymede serve --config /etc/ganymede/config.yaml
//
//	# Append a record from the command line
//	ganymede append --tenant acme --status open --component api
//
//	# Query records
//	ganymede query --tenant acme --limit 20
//
//	# Export to CSV
//	ganymede export --tenant acme --format csv --output records.csv
//
//	# Show store state
//	ganymede status
package main

func main() {
	Execute()
}
