package docissue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/investigation"
)

// fakeStore serves Lookup from a fixed record set.
type fakeStore struct {
	records map[string]*investigation.Record
}

func (f *fakeStore) Append(ctx context.Context, rec *investigation.Record) (string, error) {
	return "", nil
}

func (f *fakeStore) Query(ctx context.Context, q *investigation.Query) ([]*investigation.Record, uint64, error) {
	return nil, 0, nil
}

func (f *fakeStore) QueryStream(ctx context.Context, q *investigation.Query) (<-chan *investigation.Record, <-chan error, error) {
	return nil, nil, nil
}

func (f *fakeStore) Lookup(id string) (*investigation.Record, bool) {
	rec, ok := f.records[id]
	return rec, ok
}

func (f *fakeStore) Snapshot() investigation.Snapshot { return investigation.Snapshot{} }
func (f *fakeStore) Close() error                     { return nil }

func testRecord() *investigation.Record {
	return &investigation.Record{
		ID:          "inv-1",
		TenantID:    "tenant-a",
		ComponentID: "api",
		CreatedAt:   time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Status:      investigation.StatusEvidenceCollected,
		Evidence: []investigation.Evidence{
			{ID: "ev-1", Kind: "log-excerpt"},
			{ID: "ev-2", Kind: "trace"},
			{ID: "ev-3", Kind: "config-diff"},
		},
		SchemaVersion: 1,
	}
}

// TestBuild_ResolvesSelection tests a draft from a subset of evidence,
// preserving request order.
func TestBuild_ResolvesSelection(t *testing.T) {
	b := NewBuilder(&fakeStore{records: map[string]*investigation.Record{"inv-1": testRecord()}})

	draft, err := b.Build("inv-1", []string{"ev-3", "ev-1"})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if draft.InvestigationID != "inv-1" || draft.TenantID != "tenant-a" {
		t.Errorf("draft references = (%s, %s), want (inv-1, tenant-a)", draft.InvestigationID, draft.TenantID)
	}
	if len(draft.Evidence) != 2 || draft.Evidence[0].ID != "ev-3" || draft.Evidence[1].ID != "ev-1" {
		t.Errorf("evidence selection = %+v, want [ev-3 ev-1]", draft.Evidence)
	}
	if !strings.Contains(draft.Title, "inv-1") {
		t.Errorf("title %q missing investigation ID", draft.Title)
	}
	if !strings.Contains(draft.Body, "ev-3") || strings.Contains(draft.Body, "ev-2") {
		t.Errorf("body carries wrong evidence:\n%s", draft.Body)
	}
}

// TestBuild_AllEvidenceByDefault tests that an empty selection includes
// everything.
func TestBuild_AllEvidenceByDefault(t *testing.T) {
	b := NewBuilder(&fakeStore{records: map[string]*investigation.Record{"inv-1": testRecord()}})

	draft, err := b.Build("inv-1", nil)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(draft.Evidence) != 3 {
		t.Errorf("draft carries %d evidence entries, want 3", len(draft.Evidence))
	}
}

// TestBuild_UnresolvableIDs tests the all-or-nothing contract.
func TestBuild_UnresolvableIDs(t *testing.T) {
	b := NewBuilder(&fakeStore{records: map[string]*investigation.Record{"inv-1": testRecord()}})

	tests := []struct {
		name            string
		investigationID string
		evidenceIDs     []string
	}{
		{"unknown investigation", "inv-404", nil},
		{"unknown evidence", "inv-1", []string{"ev-1", "ev-404"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.investigationID, tt.evidenceIDs)
			if !errors.Is(err, investigation.ErrNotFound) {
				t.Errorf("Build() error = %v, want ErrNotFound", err)
			}
		})
	}
}

// TestBuild_EmptyID tests input validation.
func TestBuild_EmptyID(t *testing.T) {
	b := NewBuilder(&fakeStore{})

	_, err := b.Build("", nil)
	if !investigation.IsValidation(err) {
		t.Errorf("Build(\"\") error = %v, want ValidationError", err)
	}
}
