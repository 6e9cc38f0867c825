package docissue

import (
	"fmt"
	"time"

	"mercator-hq/ganymede/pkg/investigation"
)

// IssueDraft is a tracker-agnostic issue skeleton assembled from one
// investigation and its referenced evidence.
type IssueDraft struct {
	// Title summarizes the investigation.
	Title string `json:"title"`

	// Body is a markdown skeleton listing the referenced evidence.
	Body string `json:"body"`

	// InvestigationID is the resolved source record.
	InvestigationID string `json:"investigation_id"`

	// TenantID carries the record's scope so filing stays tenant-aware.
	TenantID string `json:"tenant_id"`

	// Evidence holds the resolved entries, in the order requested.
	Evidence []investigation.Evidence `json:"evidence,omitempty"`

	// CreatedAt is when the draft was assembled.
	CreatedAt time.Time `json:"created_at"`
}

// Builder resolves doc-issue requests against the investigation store.
type Builder struct {
	store investigation.Store
	now   func() time.Time
}

// NewBuilder creates a Builder backed by the given store.
func NewBuilder(store investigation.Store) *Builder {
	return &Builder{store: store, now: time.Now}
}

// Build resolves investigationID and every requested evidence ID, then
// assembles a draft. Any unresolvable ID fails the whole build with
// ErrNotFound: a draft never silently references missing material.
//
// An empty evidenceIDs selection includes all of the record's evidence.
func (b *Builder) Build(investigationID string, evidenceIDs []string) (*IssueDraft, error) {
	if investigationID == "" {
		return nil, investigation.NewValidationError("investigation_id", "must not be empty")
	}

	rec, ok := b.store.Lookup(investigationID)
	if !ok {
		return nil, fmt.Errorf("investigation %s: %w", investigationID, investigation.ErrNotFound)
	}

	var selected []investigation.Evidence
	if len(evidenceIDs) == 0 {
		selected = rec.Evidence
	} else {
		byID := make(map[string]investigation.Evidence, len(rec.Evidence))
		for _, ev := range rec.Evidence {
			byID[ev.ID] = ev
		}
		selected = make([]investigation.Evidence, 0, len(evidenceIDs))
		for _, id := range evidenceIDs {
			ev, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("evidence %s: %w", id, investigation.ErrNotFound)
			}
			selected = append(selected, ev)
		}
	}

	return &IssueDraft{
		Title:           draftTitle(rec),
		Body:            draftBody(rec, selected),
		InvestigationID: rec.ID,
		TenantID:        rec.TenantID,
		Evidence:        selected,
		CreatedAt:       b.now(),
	}, nil
}

func draftTitle(rec *investigation.Record) string {
	subject := rec.ComponentID
	if subject == "" {
		subject = rec.TenantID
	}
	return fmt.Sprintf("Investigation %s: %s (%s)", rec.ID, subject, rec.Status)
}

func draftBody(rec *investigation.Record, evidence []investigation.Evidence) string {
	body := fmt.Sprintf(
		"## Investigation\n\n- ID: %s\n- Tenant: %s\n- Status: %s\n- Opened: %s\n",
		rec.ID, rec.TenantID, rec.Status, rec.CreatedAt.Format(time.RFC3339),
	)
	if rec.ComponentID != "" {
		body += fmt.Sprintf("- Component: %s\n", rec.ComponentID)
	}
	if rec.ProjectID != "" {
		body += fmt.Sprintf("- Project: %s\n", rec.ProjectID)
	}

	if len(evidence) > 0 {
		body += "\n## Evidence\n\n"
		for _, ev := range evidence {
			body += fmt.Sprintf("- %s (%s)\n", ev.ID, ev.Kind)
		}
	}
	return body
}
