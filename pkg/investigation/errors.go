package investigation

import (
	"errors"
	"fmt"
)

// ErrMissingTenantScope is returned when a query or export arrives without a
// tenant_id and the caller is not administrative. It is raised before any
// storage access occurs.
var ErrMissingTenantScope = errors.New("tenant scope required: query is missing tenant_id")

// ErrNotFound is returned by lookups for IDs that do not resolve to a live
// record.
var ErrNotFound = errors.New("record not found")

// ValidationError describes a malformed or incomplete record. Records that
// fail validation are rejected and never persisted.
type ValidationError struct {
	Field  string // Record field that failed ("tenant_id", "schema_version", ...)
	Reason string // Human-readable reason
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: field %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UnsupportedFormatError is returned for export format values the store does
// not recognize. It is raised before any storage access occurs.
type UnsupportedFormatError struct {
	Format string // The rejected format value
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q (supported: json, csv)", e.Format)
}

// NewUnsupportedFormatError creates a new UnsupportedFormatError.
func NewUnsupportedFormatError(format string) *UnsupportedFormatError {
	return &UnsupportedFormatError{Format: format}
}

// StorageWriteError represents an I/O failure during append or rotation.
// The failing operation reports it to the caller and latches it into the
// store's last_error for operator visibility; the store remains readable.
type StorageWriteError struct {
	Op    string // Operation that failed ("append", "rotate", "open", ...)
	Path  string // File involved
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write error [op=%s, path=%s]: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageWriteError) Unwrap() error {
	return e.Cause
}

// NewStorageWriteError creates a new StorageWriteError.
func NewStorageWriteError(op, path string, cause error) *StorageWriteError {
	return &StorageWriteError{Op: op, Path: path, Cause: cause}
}

// StorageReadError represents an I/O failure during query or export. It is
// surfaced to the caller and does not corrupt store state.
type StorageReadError struct {
	Op    string // Operation that failed ("replay", "stream", ...)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *StorageReadError) Error() string {
	return fmt.Sprintf("storage read error [op=%s]: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageReadError) Unwrap() error {
	return e.Cause
}

// NewStorageReadError creates a new StorageReadError.
func NewStorageReadError(op string, cause error) *StorageReadError {
	return &StorageReadError{Op: op, Cause: cause}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnsupportedFormat reports whether err is an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}
