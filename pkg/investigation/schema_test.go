package investigation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestValidate_RequiredFields tests that validation rejects records missing
// mandatory fields and accepts minimal complete records.
func TestValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		record    *Record
		wantErr   bool
		wantField string
	}{
		{
			name:      "nil record",
			record:    nil,
			wantErr:   true,
			wantField: "record",
		},
		{
			name:      "missing tenant",
			record:    &Record{Status: StatusOpen},
			wantErr:   true,
			wantField: "tenant_id",
		},
		{
			name:      "missing status",
			record:    &Record{TenantID: "t1"},
			wantErr:   true,
			wantField: "status",
		},
		{
			name:    "minimal valid record",
			record:  &Record{TenantID: "t1", Status: StatusOpen},
			wantErr: false,
		},
		{
			name: "unknown schema version",
			record: &Record{
				TenantID:      "t1",
				Status:        StatusOpen,
				SchemaVersion: 99,
			},
			wantErr:   true,
			wantField: "schema_version",
		},
		{
			name: "zero schema version accepted for stamping",
			record: &Record{
				TenantID:      "t1",
				Status:        StatusOpen,
				SchemaVersion: 0,
			},
			wantErr: false,
		},
		{
			name: "evidence without kind",
			record: &Record{
				TenantID: "t1",
				Status:   StatusOpen,
				Evidence: []Evidence{{Payload: json.RawMessage(`{"a":1}`)}},
			},
			wantErr:   true,
			wantField: "evidence",
		},
		{
			name: "evidence with kind and payload",
			record: &Record{
				TenantID: "t1",
				Status:   StatusEvidenceCollected,
				Evidence: []Evidence{{Kind: "log-excerpt", Payload: json.RawMessage(`{"a":1}`)}},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.record)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error, got nil")
				}
				if !IsValidation(err) {
					t.Fatalf("Validate() error = %v, want ValidationError", err)
				}
				if tt.wantField != "" && !strings.Contains(err.Error(), tt.wantField) {
					t.Errorf("Validate() error = %v, want mention of field %q", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

// TestDecode_DispatchesOnVersion tests that Decode accepts registered schema
// versions and rejects unknown ones.
func TestDecode_DispatchesOnVersion(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	original := &Record{
		ID:            "inv-1",
		TenantID:      "t1",
		ComponentID:   "ingest",
		CreatedAt:     now,
		Status:        StatusOpen,
		SchemaVersion: 1,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if decoded.ID != original.ID || decoded.TenantID != original.TenantID {
		t.Errorf("Decode() = %+v, want %+v", decoded, original)
	}
	if !decoded.CreatedAt.Equal(now) {
		t.Errorf("Decode() CreatedAt = %v, want %v", decoded.CreatedAt, now)
	}
}

// TestDecode_UnknownVersion tests that unrecognized on-disk versions fail
// instead of being silently upgraded.
func TestDecode_UnknownVersion(t *testing.T) {
	line := []byte(`{"id":"inv-2","tenant_id":"t1","status":"open","schema_version":7}`)

	if _, err := Decode(line); err == nil {
		t.Fatal("Decode() expected error for unknown schema version, got nil")
	} else if !IsValidation(err) {
		t.Errorf("Decode() error = %v, want ValidationError", err)
	}
}

// TestDecode_MalformedLine tests that garbage input fails cleanly.
func TestDecode_MalformedLine(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("Decode() expected error for malformed input, got nil")
	}
}

// TestKnownSchemaVersion verifies the registry contents.
func TestKnownSchemaVersion(t *testing.T) {
	if !KnownSchemaVersion(CurrentSchemaVersion) {
		t.Errorf("KnownSchemaVersion(%d) = false, want true", CurrentSchemaVersion)
	}
	if KnownSchemaVersion(0) {
		t.Error("KnownSchemaVersion(0) = true, want false")
	}
	if KnownSchemaVersion(99) {
		t.Error("KnownSchemaVersion(99) = true, want false")
	}
}

// TestEvidencePayload_Opaque tests that evidence payloads round-trip without
// interpretation.
func TestEvidencePayload_Opaque(t *testing.T) {
	payload := json.RawMessage(`{"nested":{"deep":[1,2,3]},"free":"form"}`)
	record := &Record{
		ID:            "inv-3",
		TenantID:      "t1",
		Status:        StatusOpen,
		SchemaVersion: 1,
		Evidence:      []Evidence{{ID: "ev-1", Kind: "slack-thread", Payload: payload}},
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(decoded.Evidence) != 1 {
		t.Fatalf("expected 1 evidence entry, got %d", len(decoded.Evidence))
	}
	if string(decoded.Evidence[0].Payload) != string(payload) {
		t.Errorf("payload = %s, want %s", decoded.Evidence[0].Payload, payload)
	}
}
