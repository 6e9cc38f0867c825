package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mercator-hq/ganymede/pkg/docissue"
	"mercator-hq/ganymede/pkg/featuregate"
	"mercator-hq/ganymede/pkg/investigation"
	"mercator-hq/ganymede/pkg/investigation/store"
	"mercator-hq/ganymede/pkg/telemetry/health"
)

func newTestRouter(t *testing.T, enabled bool) (http.Handler, *store.LogStore) {
	t.Helper()

	s, err := store.Open(&store.Config{
		Path: filepath.Join(t.TempDir(), "investigations.ndjson"),
	}, featuregate.New(enabled), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	checker := health.New(0)
	checker.SetSnapshotSource(func() any { return s.Snapshot() })

	router := NewRouter(Deps{
		Store:   s,
		Builder: docissue.NewBuilder(s),
		Health:  checker,
	})
	return router, s
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestIngestAndQuery tests the write-then-read path over HTTP.
func TestIngestAndQuery(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := postJSON(t, router, "/v1/investigations", investigation.Record{
		TenantID:    "tenant-a",
		ComponentID: "api",
		Status:      investigation.StatusOpen,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created appendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("ingest reply does not parse: %v", err)
	}
	if created.ID == "" {
		t.Fatal("ingest reply missing id")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/investigations?tenant_id=tenant-a", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d, want 200", rec.Code)
	}

	var page queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("query reply does not parse: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0].ID != created.ID {
		t.Errorf("query returned %+v, want the ingested record", page.Records)
	}
}

// TestIngest_ValidationStatus tests 400 for rejected records.
func TestIngest_ValidationStatus(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := postJSON(t, router, "/v1/investigations", investigation.Record{Status: "open"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/investigations", bytes.NewReader([]byte("{broken")))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", resp.Code)
	}
}

// TestQuery_TenantScopeEnforced tests 403 without tenant scope and the admin
// header escape hatch.
func TestQuery_TenantScopeEnforced(t *testing.T) {
	router, _ := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/investigations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("unscoped status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/investigations", nil)
	req.Header.Set(AdminScopeHeader, "true")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}

// TestQuery_Pagination tests cursor chaining through the HTTP surface.
func TestQuery_Pagination(t *testing.T) {
	router, _ := newTestRouter(t, true)

	for i := 0; i < 5; i++ {
		if rec := postJSON(t, router, "/v1/investigations", investigation.Record{
			TenantID: "tenant-a",
			Status:   "open",
		}); rec.Code != http.StatusCreated {
			t.Fatalf("ingest %d failed: %d", i, rec.Code)
		}
	}

	seen := 0
	cursor := uint64(0)
	for {
		url := fmt.Sprintf("/v1/investigations?tenant_id=tenant-a&limit=2&cursor=%d", cursor)
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("page status = %d", rec.Code)
		}

		var page queryResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("page does not parse: %v", err)
		}
		seen += len(page.Records)
		if page.NextCursor == 0 || len(page.Records) == 0 {
			break
		}
		cursor = page.NextCursor
	}

	if seen != 5 {
		t.Errorf("pagination yielded %d records, want 5", seen)
	}
}

// TestExport_Formats tests JSON and CSV streaming plus unsupported-format
// rejection.
func TestExport_Formats(t *testing.T) {
	router, _ := newTestRouter(t, true)

	for i := 0; i < 3; i++ {
		postJSON(t, router, "/v1/investigations", investigation.Record{
			TenantID: "tenant-a",
			Status:   "open",
			Evidence: []investigation.Evidence{{Kind: "note"}},
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/investigations/export?tenant_id=tenant-a&format=json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("json export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("json export Content-Type = %q", ct)
	}
	var records []*investigation.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("json export does not parse: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("json export carried %d records, want 3", len(records))
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/investigations/export?tenant_id=tenant-a&format=csv", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv export status = %d", rec.Code)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("csv export does not parse: %v", err)
	}
	if len(rows) != 4 { // header + 3
		t.Errorf("csv export has %d rows, want 4", len(rows))
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/investigations/export?tenant_id=tenant-a&format=xml", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported format status = %d, want 400", rec.Code)
	}
}

// TestDocIssue_Endpoint tests drafting over HTTP, including 404 for
// unresolvable IDs.
func TestDocIssue_Endpoint(t *testing.T) {
	router, s := newTestRouter(t, true)

	rec := postJSON(t, router, "/v1/investigations", investigation.Record{
		TenantID: "tenant-a",
		Status:   investigation.StatusEvidenceCollected,
		Evidence: []investigation.Evidence{{Kind: "log-excerpt"}},
	})
	var created appendResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	stored, ok := s.Lookup(created.ID)
	if !ok {
		t.Fatal("record not stored")
	}

	resp := postJSON(t, router, "/v1/doc-issues", docIssueRequest{
		InvestigationID: created.ID,
		EvidenceIDs:     []string{stored.Evidence[0].ID},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("doc-issue status = %d: %s", resp.Code, resp.Body.String())
	}

	var draft docissue.IssueDraft
	if err := json.Unmarshal(resp.Body.Bytes(), &draft); err != nil {
		t.Fatalf("draft does not parse: %v", err)
	}
	if draft.InvestigationID != created.ID || len(draft.Evidence) != 1 {
		t.Errorf("draft = %+v", draft)
	}

	resp = postJSON(t, router, "/v1/doc-issues", docIssueRequest{InvestigationID: "inv-404"})
	if resp.Code != http.StatusNotFound {
		t.Errorf("unresolvable doc-issue status = %d, want 404", resp.Code)
	}
}

// TestDisabledStore_HTTPBehavior tests the gate's surface contract: appends
// succeed with empty ID, queries return empty pages.
func TestDisabledStore_HTTPBehavior(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rec := postJSON(t, router, "/v1/investigations", investigation.Record{
		TenantID: "tenant-a",
		Status:   "open",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("disabled ingest status = %d, want 201", rec.Code)
	}
	var created appendResponse
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID != "" {
		t.Errorf("disabled ingest minted id %q", created.ID)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/investigations?tenant_id=tenant-a", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("disabled query status = %d, want 200", resp.Code)
	}
	var page queryResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
		t.Fatalf("disabled query does not parse: %v", err)
	}
	if len(page.Records) != 0 {
		t.Errorf("disabled query returned %d records", len(page.Records))
	}
}

// TestReadiness_EmbedsSnapshot tests that /ready carries the store snapshot.
func TestReadiness_EmbedsSnapshot(t *testing.T) {
	router, _ := newTestRouter(t, true)

	postJSON(t, router, "/v1/investigations", investigation.Record{TenantID: "t", Status: "open"})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}

	var payload struct {
		Status string                 `json:"status"`
		Store  investigation.Snapshot `json:"store"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("ready body does not parse: %v", err)
	}
	if payload.Store.EntryCount != 1 {
		t.Errorf("snapshot EntryCount = %d, want 1", payload.Store.EntryCount)
	}
}

// TestLookup_Endpoint tests single-record fetch: tenant scope is mandatory,
// a foreign tenant sees 404 rather than a hint the ID exists, and the admin
// header reads across tenants.
func TestLookup_Endpoint(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := postJSON(t, router, "/v1/investigations", investigation.Record{TenantID: "tenant-a", Status: "open"})
	var created appendResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	tests := []struct {
		name   string
		path   string
		admin  bool
		status int
	}{
		{"owning tenant", "/v1/investigations/" + created.ID + "?tenant_id=tenant-a", false, http.StatusOK},
		{"no scope", "/v1/investigations/" + created.ID, false, http.StatusForbidden},
		{"foreign tenant", "/v1/investigations/" + created.ID + "?tenant_id=tenant-b", false, http.StatusNotFound},
		{"admin unscoped", "/v1/investigations/" + created.ID, true, http.StatusOK},
		{"missing id", "/v1/investigations/nope?tenant_id=tenant-a", false, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.admin {
				req.Header.Set(AdminScopeHeader, "true")
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tt.status {
				t.Errorf("lookup status = %d, want %d", resp.Code, tt.status)
			}
		})
	}
}
