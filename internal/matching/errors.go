package matching

import "fmt"

// The matching package is dependency-free, so it carries its own error types
// instead of pkg/errors. Both support errors.As checks by callers.

// InvalidArgumentError indicates a caller passed an out-of-contract argument,
// e.g. a confidence threshold outside [0,100] or an unknown field name.
// We reject instead of clamping to avoid masking caller bugs.
type InvalidArgumentError struct {
	Op  string // package.Function
	Msg string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s: %s", e.Op, e.Msg)
}

// MalformedRecordError identifies a record whose birth date cannot be
// decomposed into year/month/day. Dates are expected to be validated before
// invocation; the engine fails fast rather than silently skipping the record.
type MalformedRecordError struct {
	Op       string
	Index    int   // position in the input slice
	RecordID int64 // identity of the offending record
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: %s: record id=%d at index %d has no decomposable birth date", e.Op, e.RecordID, e.Index)
}
