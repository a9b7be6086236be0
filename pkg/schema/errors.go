package schema

import (
	"errors"
	"strings"
)

// Error categories. Every *Error unwraps to exactly one of these.
var (
	ErrNotFieldMap      = errors.New("schema is not a field to descriptor map")
	ErrMalformedPos     = errors.New("malformed position")
	ErrOverlap          = errors.New("overlapping fields")
	ErrOutOfRange       = errors.New("field extends past total_bits")
	ErrEmptyEnum        = errors.New("enum has no values")
	ErrUnsupportedType  = errors.New("unsupported field type")
	ErrInvalidWidth     = errors.New("invalid field width")
	ErrInvalidCRC       = errors.New("invalid crc32c declaration")
	ErrInvalidByteOrder = errors.New("invalid endianness")
	ErrDuplicate        = errors.New("duplicate name or value")
)

// Error is a structural schema defect, naming the offending fields
type Error struct {
	Kind    error
	Fields  []string
	Message string
}

func newError(kind error, message string, fields ...string) *Error {
	return &Error{Kind: kind, Fields: fields, Message: message}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	b.WriteString(e.Kind.Error())
	if len(e.Fields) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}
