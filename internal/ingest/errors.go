package ingest

import "errors"

var (
	// ErrDirectory indicates the journal directory could not be listed. The
	// pass is abandoned and retried on the next scheduled rescan.
	ErrDirectory = errors.New("ingest: journal directory unreadable")
	// ErrNotStreaming is returned by Service.Run when streaming is disabled.
	ErrNotStreaming = errors.New("ingest: streaming mode disabled")
)

// DirectoryError records which directory failed to list.
type DirectoryError struct {
	Dir string
	Err error
}

// Error returns a human-readable string naming the directory.
func (e *DirectoryError) Error() string {
	return "ingest: read journal dir " + e.Dir + ": " + e.Err.Error()
}

// Unwrap returns both ErrDirectory and the cause for errors.Is/As.
func (e *DirectoryError) Unwrap() []error {
	return []error{ErrDirectory, e.Err}
}
