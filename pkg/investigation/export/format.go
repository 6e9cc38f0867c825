package export

import (
	"context"
	"io"
	"strings"

	"mercator-hq/ganymede/pkg/investigation"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Exporter writes investigation records to an output stream in one format.
type Exporter interface {
	// Export writes a fully materialized record slice.
	Export(ctx context.Context, records []*investigation.Record, w io.Writer) error

	// ExportStream consumes records from a channel until it closes. Output
	// is written incrementally so large exports stay memory-bounded.
	ExportStream(ctx context.Context, records <-chan *investigation.Record, w io.Writer) error

	// ContentType is the MIME type for HTTP responses in this format.
	ContentType() string
}

// New returns the exporter for the named format. Matching is case-insensitive;
// unknown formats are rejected before any storage access with an
// UnsupportedFormatError.
func New(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		return NewJSONExporter(false), nil
	case FormatCSV:
		return NewCSVExporter(true), nil
	default:
		return nil, investigation.NewUnsupportedFormatError(format)
	}
}
