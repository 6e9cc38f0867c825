package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mercator-hq/ganymede/pkg/investigation"
)

// Segment describes one archived log segment.
type Segment struct {
	// FileName is the archive's base name, relative to the active
	// segment's directory.
	FileName string `json:"file_name"`

	// RecordCount is how many records the segment holds.
	RecordCount int `json:"record_count"`

	// OldestCreatedAt and NewestCreatedAt bound the records' timestamps.
	OldestCreatedAt time.Time `json:"oldest_created_at"`
	NewestCreatedAt time.Time `json:"newest_created_at"`

	// ArchivedAt is when rotation moved the segment aside.
	ArchivedAt time.Time `json:"archived_at"`
}

// Catalog records archived segments in SQLite so operator tooling can locate
// historical data without scanning the filesystem. It is advisory: rotation
// proceeds even when a catalog insert fails, and the store runs without a
// catalog at all when no path is configured.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the segment catalog at path.
func OpenCatalog(path string) (*Catalog, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, investigation.NewStorageWriteError("catalog-open", path, err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	schema := `
	CREATE TABLE IF NOT EXISTS segments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_name TEXT NOT NULL UNIQUE,
		record_count INTEGER NOT NULL,
		oldest_created_at INTEGER NOT NULL,
		newest_created_at INTEGER NOT NULL,
		archived_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_segments_archived_at ON segments(archived_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, investigation.NewStorageWriteError("catalog-init", path, err)
	}

	return &Catalog{db: db}, nil
}

// RecordSegment inserts one archived segment row.
func (c *Catalog) RecordSegment(ctx context.Context, seg *Segment) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO segments (file_name, record_count, oldest_created_at, newest_created_at, archived_at)
		 VALUES (?, ?, ?, ?, ?)`,
		filepath.Base(seg.FileName),
		seg.RecordCount,
		seg.OldestCreatedAt.UnixNano(),
		seg.NewestCreatedAt.UnixNano(),
		seg.ArchivedAt.UnixNano(),
	)
	if err != nil {
		return investigation.NewStorageWriteError("catalog-insert", seg.FileName, err)
	}
	return nil
}

// Segments returns all archived segments, newest archive first.
func (c *Catalog) Segments(ctx context.Context) ([]*Segment, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT file_name, record_count, oldest_created_at, newest_created_at, archived_at
		 FROM segments ORDER BY archived_at DESC, id DESC`)
	if err != nil {
		return nil, investigation.NewStorageReadError("catalog-list", err)
	}
	defer rows.Close()

	var segments []*Segment
	for rows.Next() {
		var seg Segment
		var oldest, newest, archived int64
		if err := rows.Scan(&seg.FileName, &seg.RecordCount, &oldest, &newest, &archived); err != nil {
			return nil, investigation.NewStorageReadError("catalog-scan", err)
		}
		seg.OldestCreatedAt = time.Unix(0, oldest)
		seg.NewestCreatedAt = time.Unix(0, newest)
		seg.ArchivedAt = time.Unix(0, archived)
		segments = append(segments, &seg)
	}
	if err := rows.Err(); err != nil {
		return nil, investigation.NewStorageReadError("catalog-list", err)
	}
	return segments, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
