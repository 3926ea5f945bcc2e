package heuristic

import (
	"errors"
	"fmt"
	"strings"
)

// Stage-level error classes. Every fatal error returned by the engine matches
// exactly one of them with errors.Is.
var (
	ErrFormat      = errors.New("format error")
	ErrMapping     = errors.New("mapping error")
	ErrEmptyResult = errors.New("empty result")
)

var (
	ErrEmptyInput       = fmt.Errorf("%w: input is empty", ErrFormat)
	ErrNoTable          = fmt.Errorf("%w: no suitable data table found", ErrFormat)
	ErrNoHeader         = fmt.Errorf("%w: could not find a valid header row", ErrFormat)
	ErrUnrecognizedJSON = fmt.Errorf("%w: unrecognized JSON trade export", ErrFormat)
	ErrNoValidRows      = fmt.Errorf("%w: zero valid rows extracted", ErrEmptyResult)
)

// MappingError names every required field that no header could be matched to.
type MappingError struct {
	Missing []CanonicalField
	Headers []string
}

func (e *MappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = f.String()
	}
	return fmt.Sprintf("could not map required columns: %s", strings.Join(names, ", "))
}

func (e *MappingError) Unwrap() error { return ErrMapping }

// RowError is scoped to a single data line. It is logged and the row skipped;
// it never reaches the caller.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
