package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies codec failures. All of them are fatal for the file being processed.
type ErrorKind int

const (
	// UnrecognizedFormat: the signature is not one of the supported variants.
	UnrecognizedFormat ErrorKind = iota + 1
	// HeaderInconsistent: declared sizes or counts do not reconcile with each other or the stream.
	HeaderInconsistent
	// LayoutMismatch: the supplied field descriptors do not fit the header's record layout.
	LayoutMismatch
	// StringOffsetUnresolved: a cell references a string block offset with no decoded string.
	StringOffsetUnresolved
	// TruncatedStream: a block extends past the end of the input.
	TruncatedStream
	// InvalidValue: a cell value cannot be encoded into its column.
	InvalidValue
	// DuplicateKey: two rows share an id.
	DuplicateKey
)

func (k ErrorKind) String() string {
	switch k {
	case UnrecognizedFormat:
		return "unrecognized format"
	case HeaderInconsistent:
		return "header inconsistent"
	case LayoutMismatch:
		return "layout mismatch"
	case StringOffsetUnresolved:
		return "string offset unresolved"
	case TruncatedStream:
		return "truncated stream"
	case InvalidValue:
		return "invalid value"
	case DuplicateKey:
		return "duplicate key"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. A CodecError matches the sentinel of its kind.
var (
	ErrUnrecognizedFormat     = &CodecError{Kind: UnrecognizedFormat, Offset: -1}
	ErrHeaderInconsistent     = &CodecError{Kind: HeaderInconsistent, Offset: -1}
	ErrLayoutMismatch         = &CodecError{Kind: LayoutMismatch, Offset: -1}
	ErrStringOffsetUnresolved = &CodecError{Kind: StringOffsetUnresolved, Offset: -1}
	ErrTruncatedStream        = &CodecError{Kind: TruncatedStream, Offset: -1}
	ErrInvalidValue           = &CodecError{Kind: InvalidValue, Offset: -1}
	ErrDuplicateKey           = &CodecError{Kind: DuplicateKey, Offset: -1}
)

// CodecError describes a failure with enough context to locate it in the file:
// the offending field or block, its byte offset and, for size checks, the expected
// and actual values.
type CodecError struct {
	Kind     ErrorKind
	Field    string
	Offset   int64 // -1 when not tied to a stream position
	Expected int64
	Actual   int64
	HasSizes bool
	Msg      string
	wrapped  error
}

func NewCodecError(kind ErrorKind, field string, offset int64, format string, a ...interface{}) *CodecError {
	return &CodecError{
		Kind:   kind,
		Field:  field,
		Offset: offset,
		Msg:    fmt.Sprintf(format, a...),
	}
}

// WithSizes attaches the expected and actual values of a failed size check.
func (e *CodecError) WithSizes(expected, actual int64) *CodecError {
	e.Expected = expected
	e.Actual = actual
	e.HasSizes = true
	return e
}

// Wrap records an underlying error.
func (e *CodecError) Wrap(err error) *CodecError {
	e.wrapped = err
	return e
}

func (e *CodecError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, " (field %q", e.Field)
		if e.Offset >= 0 {
			fmt.Fprintf(&sb, " at offset %d", e.Offset)
		}
		sb.WriteString(")")
	} else if e.Offset >= 0 {
		fmt.Fprintf(&sb, " (at offset %d)", e.Offset)
	}
	if e.HasSizes {
		fmt.Fprintf(&sb, " [expected %d, actual %d]", e.Expected, e.Actual)
	}
	if e.wrapped != nil {
		fmt.Fprintf(&sb, ": %v", e.wrapped)
	}
	return sb.String()
}

func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	return ok && t.Kind == e.Kind
}

func (e *CodecError) Unwrap() error {
	return e.wrapped
}

// IsKind reports whether err is, or wraps, a CodecError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first CodecError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
