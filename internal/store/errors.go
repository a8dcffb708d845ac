package store

import "errors"

// Sentinel errors for catalog persistence.
var (
	// ErrRead indicates a persisted document was missing or corrupt. Loaders
	// fall back to an empty value and keep going.
	ErrRead = errors.New("store: read failed")
	// ErrWrite indicates a snapshot could not be written. In-memory state is
	// unaffected and the next successful save includes the lost delta.
	ErrWrite = errors.New("store: write failed")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("store: unknown backend")
)

// ReadError records which document could not be loaded.
type ReadError struct {
	Document string
	Err      error
}

// Error returns a human-readable string naming the document.
func (e *ReadError) Error() string {
	return "store: read " + e.Document + ": " + e.Err.Error()
}

// Unwrap returns both ErrRead and the cause for errors.Is/As.
func (e *ReadError) Unwrap() []error {
	return []error{ErrRead, e.Err}
}

// WriteError records a failed save.
type WriteError struct {
	Document string
	Err      error
}

// Error returns a human-readable string naming the document.
func (e *WriteError) Error() string {
	return "store: write " + e.Document + ": " + e.Err.Error()
}

// Unwrap returns both ErrWrite and the cause for errors.Is/As.
func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}
