package eval

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the loader, the aggregator and the CLI.
//
// Use errors.Is to test for them; most are wrapped with the file path and
// line number of the offending input.
var (
	// ErrUsage is returned when the command line has the wrong shape.
	ErrUsage = errors.New("usage error")

	// ErrInputNotFound is returned when an input table cannot be opened.
	ErrInputNotFound = errors.New("input not found")

	// ErrMalformedRow is returned when a row lacks the required fields.
	ErrMalformedRow = errors.New("malformed row")

	// ErrUnrecognizedLabel is returned for annotation labels other than yes/no.
	// It is also a malformed row.
	ErrUnrecognizedLabel = fmt.Errorf("%w: unrecognized label", ErrMalformedRow)

	// ErrInvalidDepth is returned when max_at is less than 1.
	ErrInvalidDepth = errors.New("rank depth must be at least 1")
)

// RowError reports a bad row in one of the input tables.
type RowError struct {
	Path string // empty when reading from a stream
	Line int    // 1-based
	Err  error
}

func (e *RowError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
