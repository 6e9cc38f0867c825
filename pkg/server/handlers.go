package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mercator-hq/ganymede/pkg/investigation"
	"mercator-hq/ganymede/pkg/investigation/export"
	"mercator-hq/ganymede/pkg/investigation/query"
)

// appendResponse is the ingest reply. ID is empty when persistence is
// disabled by the feature gate; the request still succeeds.
type appendResponse struct {
	ID string `json:"id"`
}

// queryResponse is one page of records plus the cursor for the next page.
type queryResponse struct {
	Records    []*investigation.Record `json:"records"`
	NextCursor uint64                  `json:"next_cursor,omitempty"`
}

// docIssueRequest selects an investigation and optionally a subset of its
// evidence for drafting.
type docIssueRequest struct {
	InvestigationID string   `json:"investigation_id"`
	EvidenceIDs     []string `json:"evidence_ids,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func handleAppend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAppendBodySize)

		var rec investigation.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeError(w, investigation.NewValidationError("body", "malformed JSON: "+err.Error()))
			return
		}

		id, err := deps.Store.Append(r.Context(), &rec)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appendResponse{ID: id})
	}
}

func handleQuery(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := queryFromRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}

		records, next, err := query.Execute(r.Context(), deps.Store, q)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, queryResponse{Records: records, NextCursor: next})
	}
}

func handleLookup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin := strings.EqualFold(r.Header.Get(AdminScopeHeader), "true")
		tenant := r.URL.Query().Get("tenant_id")
		if !admin && tenant == "" {
			writeError(w, investigation.ErrMissingTenantScope)
			return
		}

		rec, ok := deps.Store.Lookup(chi.URLParam(r, "id"))
		// A tenant mismatch reads as not found so IDs leak nothing across
		// tenants.
		if !ok || (!admin && rec.TenantID != tenant) {
			writeError(w, investigation.ErrNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")

		// Format and scope are both rejected before any store access.
		exporter, err := export.New(format)
		if err != nil {
			deps.Metrics.RecordExport(format, false)
			writeError(w, err)
			return
		}

		q, err := queryFromRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}

		records, errChan, err := query.ExecuteStream(r.Context(), deps.Store, q)
		if err != nil {
			deps.Metrics.RecordExport(format, false)
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", exporter.ContentType())

		if err := exporter.ExportStream(r.Context(), records, w); err != nil {
			// Headers are gone; the truncated body is the failure signal.
			deps.Metrics.RecordExport(format, false)
			slog.Default().With("component", "server").Error("export stream aborted", "error", err)
			return
		}
		if err := <-errChan; err != nil {
			deps.Metrics.RecordExport(format, false)
			return
		}

		deps.Metrics.RecordExport(format, true)
	}
}

func handleDocIssue(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req docIssueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, investigation.NewValidationError("body", "malformed JSON: "+err.Error()))
			return
		}

		draft, err := deps.Builder.Build(req.InvestigationID, req.EvidenceIDs)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, draft)
	}
}

// queryFromRequest parses filter parameters. Administrative scope comes from
// the X-Admin-Scope header.
func queryFromRequest(r *http.Request) (*investigation.Query, error) {
	params := r.URL.Query()

	q := &investigation.Query{
		TenantID:    params.Get("tenant_id"),
		ComponentID: params.Get("component_id"),
		ProjectID:   params.Get("project_id"),
		AdminScope:  strings.EqualFold(r.Header.Get(AdminScopeHeader), "true"),
	}

	if val := params.Get("since"); val != "" {
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return nil, investigation.NewValidationError("since", "must be RFC 3339")
		}
		q.Since = &t
	}
	if val := params.Get("until"); val != "" {
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return nil, investigation.NewValidationError("until", "must be RFC 3339")
		}
		q.Until = &t
	}
	if val := params.Get("limit"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, investigation.NewValidationError("limit", "must be an integer")
		}
		q.Limit = n
	}
	if val := params.Get("cursor"); val != "" {
		c, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return nil, investigation.NewValidationError("cursor", "must be an unsigned integer")
		}
		q.Cursor = c
	}

	return q, nil
}

// writeError maps the error taxonomy onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var writeErr *investigation.StorageWriteError
	var readErr *investigation.StorageReadError

	switch {
	case investigation.IsValidation(err), investigation.IsUnsupportedFormat(err):
		status = http.StatusBadRequest
	case errors.Is(err, investigation.ErrMissingTenantScope):
		status = http.StatusForbidden
	case errors.Is(err, investigation.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &writeErr):
		status = http.StatusInsufficientStorage
	case errors.As(err, &readErr):
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
