// Package health aggregates component health checks behind liveness and
// readiness endpoints. The investigation store registers a snapshot source
// whose fields are embedded verbatim in the readiness payload; checks read
// cached in-memory state only, so probes never block on storage I/O.
package health
