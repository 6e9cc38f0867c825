package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/ganymede/pkg/investigation"
)

// JSONExporter exports investigation records as a JSON array.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// ContentType implements Exporter.
func (e *JSONExporter) ContentType() string {
	return "application/json"
}

// Export writes records to w as one JSON array. The empty result is the
// empty array, never null, so consumers can parse unconditionally.
func (e *JSONExporter) Export(ctx context.Context, records []*investigation.Record, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(records) == 0 {
		if _, err := w.Write([]byte("[]")); err != nil {
			return investigation.NewStorageWriteError("export-json", "", err)
		}
		return nil
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return investigation.NewStorageWriteError("export-json", "", err)
	}

	if _, err := w.Write(data); err != nil {
		return investigation.NewStorageWriteError("export-json", "", err)
	}
	return nil
}

// ExportStream writes records from the channel as an incrementally emitted
// JSON array, one element per arriving record.
func (e *JSONExporter) ExportStream(ctx context.Context, records <-chan *investigation.Record, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return investigation.NewStorageWriteError("export-json", "", err)
	}

	first := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case rec, ok := <-records:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return investigation.NewStorageWriteError("export-json", "", err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return investigation.NewStorageWriteError("export-json", "", err)
				}
			}
			first = false

			data, err := e.serialize(rec)
			if err != nil {
				return investigation.NewStorageWriteError("export-json", "", err)
			}
			if _, err := w.Write(data); err != nil {
				return investigation.NewStorageWriteError("export-json", "", err)
			}
		}
	}
}

func (e *JSONExporter) serialize(rec *investigation.Record) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(rec, "", "  ")
	}
	return json.Marshal(rec)
}
