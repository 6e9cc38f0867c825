package store

import (
	"context"
	"time"

	"mercator-hq/ganymede/pkg/investigation"
)

// DefaultQueryLimit is the page size applied when a query carries no limit.
const DefaultQueryLimit = 100

// streamBuffer is the channel depth for QueryStream consumers.
const streamBuffer = 100

// Query returns a newest-first page of records matching q and the cursor for
// the next page. The cursor is the append sequence of the last returned
// record; a subsequent query with it yields strictly older records. When the
// feature gate is off the result is empty with a nil error.
func (s *LogStore) Query(ctx context.Context, q *investigation.Query) ([]*investigation.Record, uint64, error) {
	if !s.gate.Enabled() {
		return []*investigation.Record{}, 0, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if q == nil {
		q = &investigation.Query{}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*investigation.Record, 0, limit)
	var nextCursor uint64

	s.scanLocked(q, func(e *entry) bool {
		rc := *e.rec
		results = append(results, &rc)
		if len(results) == limit {
			nextCursor = e.seq
			return false
		}
		return true
	})

	return results, nextCursor, nil
}

// QueryStream returns every record matching q, newest first and unbounded by
// q.Limit. The matching set is captured under the read lock, then streamed
// without holding it, so a slow consumer never blocks appends. Both channels
// close when the stream completes; the error channel carries at most one
// error (context cancellation).
func (s *LogStore) QueryStream(ctx context.Context, q *investigation.Query) (<-chan *investigation.Record, <-chan error, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if q == nil {
		q = &investigation.Query{}
	}

	var matched []*investigation.Record
	if s.gate.Enabled() {
		s.mu.RLock()
		s.scanLocked(q, func(e *entry) bool {
			rc := *e.rec
			matched = append(matched, &rc)
			return true
		})
		s.mu.RUnlock()
	}

	recordChan := make(chan *investigation.Record, streamBuffer)
	errChan := make(chan error, 1)

	go func() {
		defer close(recordChan)
		defer close(errChan)

		for _, rec := range matched {
			select {
			case recordChan <- rec:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return recordChan, errChan, nil
}

// scanLocked walks candidates for q newest-first, invoking fn for each match
// until fn returns false. Caller holds at least the read lock.
func (s *LogStore) scanLocked(q *investigation.Query, fn func(*entry) bool) {
	list := s.candidatesLocked(q)

	var cutoff time.Time
	if s.cfg.RetentionDays > 0 {
		cutoff = s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	}

	for i := len(list) - 1; i >= 0; i-- {
		e := list[i]
		if q.Cursor != 0 && e.seq >= q.Cursor {
			continue
		}
		// CreatedAt is ordered with seq: everything before the first
		// expired entry is expired too.
		if !cutoff.IsZero() && e.rec.CreatedAt.Before(cutoff) {
			return
		}
		if !matches(e.rec, q) {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// candidatesLocked picks the narrowest index slice for q. All slices share
// the global append order, so any of them scans correctly.
func (s *LogStore) candidatesLocked(q *investigation.Query) []*entry {
	switch {
	case q.TenantID != "":
		return s.byTenant[q.TenantID]
	case q.ComponentID != "":
		return s.byComponent[q.ComponentID]
	case q.ProjectID != "":
		return s.byProject[q.ProjectID]
	default:
		return s.entries
	}
}

// matches reports whether rec satisfies every filter in q.
func matches(rec *investigation.Record, q *investigation.Query) bool {
	if q.TenantID != "" && rec.TenantID != q.TenantID {
		return false
	}
	if q.ComponentID != "" && rec.ComponentID != q.ComponentID {
		return false
	}
	if q.ProjectID != "" && rec.ProjectID != q.ProjectID {
		return false
	}
	if q.Since != nil && rec.CreatedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && rec.CreatedAt.After(*q.Until) {
		return false
	}
	return true
}

// Lookup fetches a single live record by ID. Records past retention and
// lookups against a disabled store report not found.
func (s *LogStore) Lookup(id string) (*investigation.Record, bool) {
	if !s.gate.Enabled() {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	if s.cfg.RetentionDays > 0 {
		cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
		if e.rec.CreatedAt.Before(cutoff) {
			return nil, false
		}
	}

	rc := *e.rec
	return &rc, true
}

// Snapshot reports store state from in-memory counters only. EntryCount
// excludes records already past retention even if a sweep has not removed
// them yet, so the snapshot agrees with what queries would return.
func (s *LogStore) Snapshot() investigation.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := investigation.Snapshot{
		Enabled:        s.gate.ConfigEnabled(),
		FeatureEnabled: s.gate.Enabled(),
		Path:           s.cfg.Path,
		MaxEntries:     s.cfg.MaxEntries,
		RetentionDays:  s.cfg.RetentionDays,
		MaxFileBytes:   s.cfg.MaxFileBytes,
		SchemaVersion:  investigation.CurrentSchemaVersion,
		EntryCount:     len(s.entries) - s.expiredPrefixLocked(s.now()),
		ByteSize:       s.fileSize,
	}
	if !s.lastWrite.IsZero() {
		t := s.lastWrite
		snap.LastWriteAt = &t
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}
