package journal

import "errors"

// Sentinel errors for journal decoding.
var (
	// ErrEmptyLine indicates a blank line; callers skip it without logging.
	ErrEmptyLine = errors.New("empty journal line")
	// ErrDecode indicates a line that is not a valid journal record.
	ErrDecode = errors.New("malformed journal line")
	// ErrMissingEvent indicates a JSON object without an "event" field.
	ErrMissingEvent = errors.New("journal line has no event field")
)

// DecodeError records a line that could not be decoded, with enough context
// to log it without holding on to the whole file.
type DecodeError struct {
	Line string // truncated copy of the offending line
	Err  error
}

// Error returns a human-readable description of the failure.
func (e *DecodeError) Error() string {
	return "journal: decode " + e.Line + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so errors.Is(err, ErrDecode) works for
// both syntax failures and missing fields.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
