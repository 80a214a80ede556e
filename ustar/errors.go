package ustar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidHeader is returned when a header cannot be decoded: a numeric field has a non-octal byte, or the
	// magic or type flag is not recognized.
	ErrInvalidHeader = errors.New("invalid tar header")

	// ErrUnsupportedEntry is returned for entries whose type flag maps to ActionError (symlink, GNU multi-volume,
	// GNU sparse).
	ErrUnsupportedEntry = errors.New("unsupported tar entry")

	// ErrIteratorExhausted is returned by Iterator.Next when there are no more files.
	ErrIteratorExhausted = errors.New("tar iterator exhausted")
)

// FieldError describes a header field whose raw bytes could not be decoded.
type FieldError struct {
	// Field is the name of the header field such as "size" or "mtime".
	Field string
	// Raw is a copy of the field's raw bytes.
	Raw []byte
	// Reason is optional.
	Reason string
}

func (e *FieldError) Error() string {
	var sb strings.Builder
	sb.WriteString("decode field ")
	sb.WriteString(e.Field)
	if e.Reason != "" {
		sb.WriteString(" (" + e.Reason + ")")
	}
	sb.WriteString(" error: raw (dec)")
	for i, b := range e.Raw {
		if i > 0 {
			sb.WriteByte(',')
		}
		_, _ = fmt.Fprintf(&sb, " %d", b)
	}

	return sb.String()
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidHeader
}

// UnsupportedEntryError is returned when a header's type flag is one that cannot be processed.
type UnsupportedEntryError struct {
	Name     string
	TypeFlag TypeFlag
}

func (e *UnsupportedEntryError) Error() string {
	return fmt.Sprintf(`unable to process entry "%s" with type flag %s`, e.Name, e.TypeFlag)
}

func (e *UnsupportedEntryError) Unwrap() error {
	return ErrUnsupportedEntry
}

// HeaderError adds the position of the offending header record to the underlying decode error.
type HeaderError struct {
	// Block and Record are the zero-based block index and record-within-block index of the header record.
	Block, Record int
	Err           error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("read header at block %d record %d error: %v", e.Block, e.Record, e.Err)
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}
