package investigation

import (
	"context"
	"encoding/json"
	"time"
)

// Well-known status values. The store requires a non-empty status but does not
// enforce transition legality; collaborators may use values outside this set.
const (
	StatusOpen              = "open"
	StatusEvidenceCollected = "evidence-collected"
	StatusDocFiled          = "doc-filed"
	StatusClosed            = "closed"
)

// Record is a single investigation tracked by the store. Records are created
// exactly once via append and never mutated in place; they leave the active
// store only through retention expiry, count-based eviction, or rotation into
// an archive segment.
type Record struct {
	// ID is assigned by the store at append time and is immutable.
	ID string `json:"id"`

	// TenantID is the scoping key. It is never empty and is a mandatory
	// filter dimension on every non-administrative read.
	TenantID string `json:"tenant_id"`

	// ComponentID and ProjectID are free-form classification fields used
	// for filtering.
	ComponentID string `json:"component_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`

	// CreatedAt is assigned at append time when absent. It is non-decreasing
	// across appends within a single store instance.
	CreatedAt time.Time `json:"created_at"`

	// Status is a collaborator-supplied state tag ("open", "doc-filed", ...).
	// The store only requires that a value is present.
	Status string `json:"status"`

	// Evidence is the ordered list of evidence entries. May be empty.
	Evidence []Evidence `json:"evidence,omitempty"`

	// SchemaVersion identifies the record's shape. The store stamps new
	// records with CurrentSchemaVersion and refuses versions it cannot read.
	SchemaVersion int `json:"schema_version"`
}

// Evidence is one opaque supporting entry attached to an investigation.
// The store validates its structure but never interprets the payload.
type Evidence struct {
	// ID is assigned at append time when absent so the doc-issue contract
	// can reference individual evidence entries.
	ID string `json:"id"`

	// Kind tags the payload shape for downstream consumers.
	Kind string `json:"kind"`

	// Payload is the opaque structured body.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Query defines filter parameters for reading investigation records.
type Query struct {
	// TenantID scopes the read. Required unless AdminScope is set.
	TenantID string `json:"tenant_id,omitempty"`

	// ComponentID and ProjectID filter by classification when non-empty.
	ComponentID string `json:"component_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`

	// Since and Until bound CreatedAt (inclusive) when non-nil.
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`

	// Limit bounds the page size. Zero means the layer default.
	Limit int `json:"limit,omitempty"`

	// Cursor resumes a paginated query: results are strictly older (by
	// append sequence) than the record the cursor was taken from. Zero
	// starts from the newest record.
	Cursor uint64 `json:"cursor,omitempty"`

	// AdminScope marks a tenant-unscoped administrative read.
	AdminScope bool `json:"-"`
}

// Snapshot is a point-in-time view of store state, derived entirely from
// in-memory counters so health checks never block on storage I/O.
type Snapshot struct {
	Enabled        bool       `json:"enabled"`
	FeatureEnabled bool       `json:"feature_enabled"`
	Path           string     `json:"path"`
	MaxEntries     int        `json:"max_entries"`
	RetentionDays  int        `json:"retention_days"`
	MaxFileBytes   int64      `json:"max_file_bytes"`
	SchemaVersion  int        `json:"schema_version"`
	EntryCount     int        `json:"entry_count"`
	ByteSize       int64      `json:"byte_size"`
	LastWriteAt    *time.Time `json:"last_write_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

// Store is the contract the store engine exposes to the query/export layer,
// the HTTP API, and the doc-issue builder. Implementations must be safe for
// concurrent use: appends are serialized internally, reads may proceed
// concurrently with each other and with appends.
type Store interface {
	// Append validates and persists one record, assigning ID, CreatedAt and
	// evidence IDs when absent. It returns the assigned ID, or an empty ID
	// with nil error when the feature gate is disabled.
	Append(ctx context.Context, record *Record) (string, error)

	// Query returns a newest-first page of records matching q, plus the
	// cursor for the next page (zero when exhausted). Retention filtering
	// is applied before results are returned.
	Query(ctx context.Context, q *Query) ([]*Record, uint64, error)

	// QueryStream returns a channel feed of all records matching q,
	// newest first and unbounded by Limit, for memory-efficient export.
	// Both channels are closed when the stream completes or errors; the
	// error channel carries at most one error.
	QueryStream(ctx context.Context, q *Query) (<-chan *Record, <-chan error, error)

	// Lookup fetches a single live record by ID.
	Lookup(id string) (*Record, bool)

	// Snapshot reports current store state from in-memory counters only.
	Snapshot() Snapshot

	// Close flushes and closes the active segment. The store instance has
	// process-wide lifetime; Close is called once at shutdown.
	Close() error
}
