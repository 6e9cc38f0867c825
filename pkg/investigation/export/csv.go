package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"mercator-hq/ganymede/pkg/investigation"
)

// CSVExporter exports investigation records in CSV format. Scalar record
// fields map to columns; the evidence list is carried whole as a JSON blob
// column, since evidence payloads have no fixed shape to flatten.
type CSVExporter struct {
	// IncludeHeader emits a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// ContentType implements Exporter.
func (e *CSVExporter) ContentType() string {
	return "text/csv"
}

// Export writes records to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, records []*investigation.Record, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return investigation.NewStorageWriteError("export-csv", "", err)
		}
	}

	for _, rec := range records {
		row, err := recordToRow(rec)
		if err != nil {
			return investigation.NewStorageWriteError("export-csv", "", err)
		}
		if err := writer.Write(row); err != nil {
			return investigation.NewStorageWriteError("export-csv", "", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return investigation.NewStorageWriteError("export-csv", "", err)
	}
	return nil
}

// ExportStream writes records from the channel in CSV format, flushing every
// hundred rows so long exports show progress.
func (e *CSVExporter) ExportStream(ctx context.Context, records <-chan *investigation.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return investigation.NewStorageWriteError("export-csv", "", err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case rec, ok := <-records:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return investigation.NewStorageWriteError("export-csv", "", err)
				}
				return nil
			}

			row, err := recordToRow(rec)
			if err != nil {
				return investigation.NewStorageWriteError("export-csv", "", err)
			}
			if err := writer.Write(row); err != nil {
				return investigation.NewStorageWriteError("export-csv", "", err)
			}

			count++
			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return investigation.NewStorageWriteError("export-csv", "", err)
				}
			}
		}
	}
}

func headerRow() []string {
	return []string{
		"id", "tenant_id", "component_id", "project_id",
		"created_at", "status", "schema_version",
		"evidence_count", "evidence",
	}
}

func recordToRow(rec *investigation.Record) ([]string, error) {
	created := ""
	if !rec.CreatedAt.IsZero() {
		created = rec.CreatedAt.Format(time.RFC3339Nano)
	}

	evidence := ""
	if len(rec.Evidence) > 0 {
		data, err := json.Marshal(rec.Evidence)
		if err != nil {
			return nil, err
		}
		evidence = string(data)
	}

	return []string{
		rec.ID,
		rec.TenantID,
		rec.ComponentID,
		rec.ProjectID,
		created,
		rec.Status,
		fmt.Sprintf("%d", rec.SchemaVersion),
		fmt.Sprintf("%d", len(rec.Evidence)),
		evidence,
	}, nil
}
