package investigation

import (
	"encoding/json"
	"fmt"
)

// CurrentSchemaVersion is the version stamped onto newly appended records.
const CurrentSchemaVersion = 1

// decodeFunc decodes one serialized record of a specific schema version.
type decodeFunc func(data []byte) (*Record, error)

// decoders maps schema_version to its decoder. On-disk records are never
// auto-upgraded; supporting a new version means registering a decoder here.
var decoders = map[int]decodeFunc{
	1: decodeV1,
}

// KnownSchemaVersion reports whether the store can read records of version v.
func KnownSchemaVersion(v int) bool {
	_, ok := decoders[v]
	return ok
}

// versionEnvelope peeks only the schema version out of a serialized record.
type versionEnvelope struct {
	SchemaVersion int `json:"schema_version"`
}

// Decode deserializes one NDJSON line into a Record, dispatching on the
// embedded schema_version tag.
func Decode(data []byte) (*Record, error) {
	var env versionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode record envelope: %w", err)
	}

	decode, ok := decoders[env.SchemaVersion]
	if !ok {
		return nil, NewValidationError("schema_version",
			fmt.Sprintf("unrecognized version %d", env.SchemaVersion))
	}

	return decode(data)
}

// decodeV1 decodes a version-1 record, which is the struct's native JSON shape.
func decodeV1(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode v1 record: %w", err)
	}
	return &r, nil
}

// Validate checks a record's structural invariants. It is pure: no defaults
// are applied and no business rules on status values or evidence content are
// enforced (those belong to the collaborator).
//
// A zero SchemaVersion is accepted and means "stamp with CurrentSchemaVersion
// at append time"; any other unrecognized version is rejected.
func Validate(r *Record) error {
	if r == nil {
		return NewValidationError("record", "record is nil")
	}
	if r.TenantID == "" {
		return NewValidationError("tenant_id", "must not be empty")
	}
	if r.Status == "" {
		return NewValidationError("status", "must not be empty")
	}
	if r.SchemaVersion != 0 && !KnownSchemaVersion(r.SchemaVersion) {
		return NewValidationError("schema_version",
			fmt.Sprintf("unrecognized version %d", r.SchemaVersion))
	}
	for i, ev := range r.Evidence {
		if ev.Kind == "" {
			return NewValidationError("evidence",
				fmt.Sprintf("entry %d: kind must not be empty", i))
		}
	}
	return nil
}
