package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/featuregate"
	"mercator-hq/ganymede/pkg/investigation"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Config contains configuration for the investigation log store.
type Config struct {
	// Path is the active NDJSON segment. Archives are written as siblings
	// with a timestamp suffix. Default: "data/investigations.ndjson"
	Path string

	// MaxEntries caps the live in-memory index; the oldest records are
	// evicted first when the cap is reached. Zero or negative disables the
	// cap. Default: 10000
	MaxEntries int

	// RetentionDays is the age bound on returned records. Expired records
	// are filtered from every read and physically removed from the index
	// lazily on append and on scheduled sweeps. Zero or negative disables
	// retention. Default: 30
	RetentionDays int

	// MaxFileBytes rotates the active segment when appending would push it
	// past this size. Zero or negative disables rotation.
	// Default: 5000000
	MaxFileBytes int64

	// CatalogPath is the SQLite database recording archived segments.
	// Empty disables the catalog; rotation still archives the file.
	CatalogPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Path:          "data/investigations.ndjson",
		MaxEntries:    10000,
		RetentionDays: 30,
		MaxFileBytes:  5_000_000,
	}
}

// entry is one indexed record. Entries are ordered by seq in the main slice
// and in every secondary index; CreatedAt is non-decreasing with seq, so both
// eviction and retention always remove a prefix.
type entry struct {
	seq  uint64
	rec  *investigation.Record
	size int64
}

// LogStore is the file-backed implementation of investigation.Store.
type LogStore struct {
	cfg     Config
	gate    *featuregate.Gate
	metrics *metrics.StoreMetrics
	catalog *Catalog
	logger  *slog.Logger

	mu          sync.RWMutex
	entries     []*entry
	byID        map[string]*entry
	byTenant    map[string][]*entry
	byComponent map[string][]*entry
	byProject   map[string][]*entry

	file     *os.File
	fileSize int64
	nextSeq  uint64

	// active segment stats, reported to the catalog at rotation
	segCount  int
	segOldest time.Time
	segNewest time.Time

	lastStamp time.Time
	lastWrite time.Time
	lastErr   error

	now func() time.Time
}

var _ investigation.Store = (*LogStore)(nil)

// Open creates a LogStore, replaying any existing active segment into the
// index. The feature gate is consulted per operation, not at open time, so a
// store opened disabled becomes fully functional when the gate flips on.
func Open(cfg *Config, gate *featuregate.Gate, m *metrics.StoreMetrics) (*LogStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if gate == nil {
		gate = featuregate.New(true)
	}

	s := &LogStore{
		cfg:         *cfg,
		gate:        gate,
		metrics:     m,
		logger:      slog.Default().With("component", "store"),
		byID:        make(map[string]*entry),
		byTenant:    make(map[string][]*entry),
		byComponent: make(map[string][]*entry),
		byProject:   make(map[string][]*entry),
		nextSeq:     1,
		now:         time.Now,
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, investigation.NewStorageWriteError("open", cfg.Path, err)
	}

	if err := s.replay(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, investigation.NewStorageWriteError("open", cfg.Path, err)
	}
	s.file = f

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, investigation.NewStorageWriteError("open", cfg.Path, err)
	}
	s.fileSize = fi.Size()

	if cfg.CatalogPath != "" {
		cat, err := OpenCatalog(cfg.CatalogPath)
		if err != nil {
			f.Close()
			return nil, err
		}
		s.catalog = cat
	}

	s.metrics.SetEntryCount(len(s.entries))
	s.metrics.SetByteSize(s.fileSize)

	s.logger.Info("store opened",
		"path", cfg.Path,
		"entries", len(s.entries),
		"bytes", s.fileSize,
		"enabled", gate.Enabled(),
	)
	return s, nil
}

// replay rebuilds the index from the active segment. Undecodable lines are
// skipped with a warning so one corrupt line never blocks startup; they stay
// in the file and age out through rotation.
func (s *LogStore) replay() error {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return investigation.NewStorageReadError("replay", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var skipped int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, err := investigation.Decode(line)
		if err != nil {
			skipped++
			s.logger.Warn("skipping undecodable line during replay",
				"line", s.segCount+skipped,
				"error", err,
			)
			continue
		}

		s.segCount++
		if s.segOldest.IsZero() || rec.CreatedAt.Before(s.segOldest) {
			s.segOldest = rec.CreatedAt
		}
		if rec.CreatedAt.After(s.segNewest) {
			s.segNewest = rec.CreatedAt
		}
		if rec.CreatedAt.After(s.lastStamp) {
			s.lastStamp = rec.CreatedAt
		}

		e := &entry{seq: s.nextSeq, rec: rec, size: int64(len(line)) + 1}
		s.nextSeq++
		s.indexLocked(e)
	}
	if err := scanner.Err(); err != nil {
		return investigation.NewStorageReadError("replay", err)
	}

	// Apply bounds to the replayed index. The file keeps the dropped lines;
	// only the live view shrinks.
	if cut := s.expiredPrefixLocked(s.now()); cut > 0 {
		s.removeOldestLocked(cut, metrics.ReasonRetention)
	}
	if s.cfg.MaxEntries > 0 && len(s.entries) > s.cfg.MaxEntries {
		s.removeOldestLocked(len(s.entries)-s.cfg.MaxEntries, metrics.ReasonCapacity)
	}

	if skipped > 0 {
		s.logger.Warn("replay finished with skipped lines",
			"indexed", len(s.entries),
			"skipped", skipped,
		)
	}
	return nil
}

// Append validates and persists one record. When the feature gate is off it
// returns an empty ID and nil error without touching storage.
func (s *LogStore) Append(ctx context.Context, rec *investigation.Record) (string, error) {
	if !s.gate.Enabled() {
		return "", nil
	}
	if err := investigation.Validate(rec); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Lazy retention: expired records are dropped on the write path so the
	// index shrinks even without a scheduled sweep.
	if cut := s.expiredPrefixLocked(start); cut > 0 {
		s.removeOldestLocked(cut, metrics.ReasonRetention)
	}

	r := *rec
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.SchemaVersion == 0 {
		r.SchemaVersion = investigation.CurrentSchemaVersion
	}

	// CreatedAt is clamped non-decreasing so index order always matches
	// append order and removals stay prefix-only.
	stamp := r.CreatedAt
	if stamp.IsZero() {
		stamp = start
	}
	if stamp.Before(s.lastStamp) {
		stamp = s.lastStamp
	}
	r.CreatedAt = stamp

	if len(r.Evidence) > 0 {
		evidence := make([]investigation.Evidence, len(r.Evidence))
		copy(evidence, r.Evidence)
		for i := range evidence {
			if evidence[i].ID == "" {
				evidence[i].ID = uuid.New().String()
			}
		}
		r.Evidence = evidence
	}

	line, err := json.Marshal(&r)
	if err != nil {
		werr := investigation.NewStorageWriteError("encode", s.cfg.Path, err)
		s.failAppendLocked(werr, start)
		return "", werr
	}
	line = append(line, '\n')

	if s.cfg.MaxFileBytes > 0 && s.fileSize > 0 && s.fileSize+int64(len(line)) > s.cfg.MaxFileBytes {
		err = s.rotateLocked(line)
	} else {
		err = s.writeLineLocked(line)
	}
	if err != nil {
		s.failAppendLocked(err, start)
		return "", err
	}

	// Evict only after the write landed, so a failed append never costs an
	// existing record its slot.
	if s.cfg.MaxEntries > 0 && len(s.entries) >= s.cfg.MaxEntries {
		s.removeOldestLocked(len(s.entries)-s.cfg.MaxEntries+1, metrics.ReasonCapacity)
	}

	e := &entry{seq: s.nextSeq, rec: &r, size: int64(len(line))}
	s.nextSeq++
	s.indexLocked(e)

	s.lastStamp = stamp
	s.lastWrite = s.now()
	s.segCount++
	if s.segOldest.IsZero() {
		s.segOldest = stamp
	}
	s.segNewest = stamp

	s.metrics.RecordAppend(true, s.now().Sub(start))
	s.metrics.SetEntryCount(len(s.entries))
	s.metrics.SetByteSize(s.fileSize)

	return r.ID, nil
}

// failAppendLocked latches a write failure into last_error. The latch is
// sticky: a later successful append does not clear it, operators reset it by
// restarting the process.
func (s *LogStore) failAppendLocked(err error, start time.Time) {
	s.lastErr = err
	s.metrics.RecordAppend(false, s.now().Sub(start))
	s.logger.Error("append failed", "error", err)
}

// writeLineLocked appends one encoded line to the active segment. On a failed
// or short write the file is truncated back so a torn line never becomes a
// permanent decode error on replay.
func (s *LogStore) writeLineLocked(line []byte) error {
	n, err := s.file.Write(line)
	if err != nil || n != len(line) {
		if terr := s.file.Truncate(s.fileSize); terr != nil {
			s.logger.Error("truncate after failed write", "error", terr)
		}
		if err == nil {
			err = fmt.Errorf("short write: %d of %d bytes", n, len(line))
		}
		return investigation.NewStorageWriteError("append", s.cfg.Path, err)
	}
	s.fileSize += int64(n)
	return nil
}

// rotateLocked writes line as the first record of a fresh segment, then swaps
// it in: the old segment is renamed to a timestamped archive and the new one
// takes its place. The pending record is durable in the new segment before
// the old file is touched, so a crash mid-rotation loses nothing.
func (s *LogStore) rotateLocked(line []byte) error {
	nextPath := s.cfg.Path + ".next"

	next, err := os.OpenFile(nextPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_APPEND, 0o644)
	if err != nil {
		return investigation.NewStorageWriteError("rotate", nextPath, err)
	}
	if n, err := next.Write(line); err != nil || n != len(line) {
		next.Close()
		os.Remove(nextPath)
		if err == nil {
			err = fmt.Errorf("short write: %d of %d bytes", n, len(line))
		}
		return investigation.NewStorageWriteError("rotate", nextPath, err)
	}
	if err := next.Sync(); err != nil {
		next.Close()
		os.Remove(nextPath)
		return investigation.NewStorageWriteError("rotate", nextPath, err)
	}

	archive := archivePath(s.cfg.Path, s.now())
	if err := s.file.Close(); err != nil {
		s.logger.Warn("closing active segment before rotation", "error", err)
	}
	if err := os.Rename(s.cfg.Path, archive); err != nil {
		next.Close()
		os.Remove(nextPath)
		// Reopen the old segment so later appends still work.
		if f, oerr := os.OpenFile(s.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); oerr == nil {
			s.file = f
		}
		return investigation.NewStorageWriteError("rotate", s.cfg.Path, err)
	}
	if err := os.Rename(nextPath, s.cfg.Path); err != nil {
		// The record is durable and the handle stays valid; keep writing to
		// it and surface the misplaced file through last_error.
		s.lastErr = investigation.NewStorageWriteError("rotate", nextPath, err)
		s.logger.Error("renaming new segment into place", "error", err)
	}

	s.file = next

	archived := s.segCount
	if s.catalog != nil {
		// Catalog inserts are short and never tied to the appending
		// request's deadline.
		if err := s.catalog.RecordSegment(context.Background(), &Segment{
			FileName:        filepath.Base(archive),
			RecordCount:     archived,
			OldestCreatedAt: s.segOldest,
			NewestCreatedAt: s.segNewest,
			ArchivedAt:      s.now(),
		}); err != nil {
			// The catalog is advisory; a failed insert never fails the append.
			s.logger.Error("recording archived segment", "file", archive, "error", err)
		}
	}

	s.fileSize = int64(len(line))
	s.segCount = 0
	s.segOldest = time.Time{}
	s.segNewest = time.Time{}

	s.metrics.RecordRotation()
	s.logger.Info("rotated active segment",
		"archive", archive,
		"records", archived,
	)
	return nil
}

// archivePath derives the archive name for the active segment:
// investigations.ndjson becomes investigations-20260823T141530.000Z.ndjson.
func archivePath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stamp := now.UTC().Format("20060102T150405.000Z")

	candidate := fmt.Sprintf("%s-%s%s", base, stamp, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%s.%d%s", base, stamp, i, ext)
	}
}

// indexLocked adds e to the main slice and every applicable secondary index.
func (s *LogStore) indexLocked(e *entry) {
	s.entries = append(s.entries, e)
	s.byID[e.rec.ID] = e
	s.byTenant[e.rec.TenantID] = append(s.byTenant[e.rec.TenantID], e)
	if e.rec.ComponentID != "" {
		s.byComponent[e.rec.ComponentID] = append(s.byComponent[e.rec.ComponentID], e)
	}
	if e.rec.ProjectID != "" {
		s.byProject[e.rec.ProjectID] = append(s.byProject[e.rec.ProjectID], e)
	}
}

// removeOldestLocked drops the first n entries from the index. Because every
// index slice shares the global seq order, each removal pops from the front
// of its secondary slices.
func (s *LogStore) removeOldestLocked(n int, reason string) {
	if n <= 0 {
		return
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}

	for _, e := range s.entries[:n] {
		delete(s.byID, e.rec.ID)
		s.byTenant[e.rec.TenantID] = dropEntry(s.byTenant, e.rec.TenantID, e)
		if e.rec.ComponentID != "" {
			s.byComponent[e.rec.ComponentID] = dropEntry(s.byComponent, e.rec.ComponentID, e)
		}
		if e.rec.ProjectID != "" {
			s.byProject[e.rec.ProjectID] = dropEntry(s.byProject, e.rec.ProjectID, e)
		}
	}

	remaining := make([]*entry, len(s.entries)-n)
	copy(remaining, s.entries[n:])
	s.entries = remaining

	s.metrics.RecordEvictions(reason, n)
	s.metrics.SetEntryCount(len(s.entries))
}

// dropEntry removes e from the keyed slice, deleting the key when it empties.
// e sits at the front in practice; the scan is a guard, not a hot path.
func dropEntry(m map[string][]*entry, key string, e *entry) []*entry {
	list := m[key]
	for i, cand := range list {
		if cand == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(m, key)
		return nil
	}
	return list
}

// expiredPrefixLocked returns how many leading entries are older than the
// retention window at the given instant.
func (s *LogStore) expiredPrefixLocked(now time.Time) int {
	if s.cfg.RetentionDays <= 0 || len(s.entries) == 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -s.cfg.RetentionDays)

	// Entries are CreatedAt-ordered, so binary search finds the boundary.
	lo, hi := 0, len(s.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.entries[mid].rec.CreatedAt.Before(cutoff) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Sweep removes records past the retention window and reports how many were
// dropped. It is invoked by the scheduled retention sweeper; appends perform
// the same trimming lazily.
func (s *LogStore) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.expiredPrefixLocked(s.now())
	if n > 0 {
		s.removeOldestLocked(n, metrics.ReasonRetention)
		s.logger.Info("retention sweep removed records", "removed", n, "remaining", len(s.entries))
	}
	return n, nil
}

// Close flushes and closes the active segment and the catalog.
func (s *LogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.file != nil {
		if err := s.file.Sync(); err != nil && firstErr == nil {
			firstErr = investigation.NewStorageWriteError("close", s.cfg.Path, err)
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = investigation.NewStorageWriteError("close", s.cfg.Path, err)
		}
		s.file = nil
	}
	if s.catalog != nil {
		if err := s.catalog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
