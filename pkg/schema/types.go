package schema

import (
	"fmt"
	"strconv"
)

// ByteOrder selects how multi-byte values and bits are laid out
type ByteOrder uint8

const (
	// LittleEndian stores the least significant byte first; bit 0 of a
	// record is the least significant bit of byte 0.
	LittleEndian ByteOrder = iota
	// BigEndian stores the most significant byte first; bit 0 of a record
	// is the most significant bit of byte 0.
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// ParseByteOrder accepts "little" or "big"; empty means little.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "", "little":
		return LittleEndian, nil
	case "big":
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q", s)
	}
}

// Kind is the storage class of a field
type Kind uint8

const (
	Unsigned Kind = iota
	Signed
	Float32
	Float64
	Bytes
	Enum
)

var kindNames = [...]string{"unsigned", "signed", "float32", "float64", "bytes", "enum"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Charset is the text encoding used by Bytes fields
type Charset string

const (
	ASCII  Charset = "ascii"
	UTF8   Charset = "utf-8"
	Latin1 Charset = "latin-1"
)

func parseCharset(s string) (Charset, bool) {
	switch s {
	case "", "ascii", "us-ascii":
		return ASCII, true
	case "utf-8", "utf8":
		return UTF8, true
	case "latin-1", "latin1", "iso-8859-1":
		return Latin1, true
	}
	return "", false
}

// EnumKind tells how enum values map to stored bits
type EnumKind uint8

const (
	// StringEnum stores the index of the value in the declared list.
	StringEnum EnumKind = iota
	// IntEnum stores the integer value itself.
	IntEnum
)

// EnumMap is the bidirectional value table of an enum field. It is built
// once at compile time.
type EnumMap struct {
	Kind    EnumKind
	Strings []string // StringEnum values in index order
	Ints    []int64  // IntEnum values in declaration order

	raw  map[string]uint64
	ints map[uint64]int64
}

// Cardinality returns the number of distinct values
func (m *EnumMap) Cardinality() int {
	if m.Kind == IntEnum {
		return len(m.Ints)
	}
	return len(m.Strings)
}

// Raw resolves a declared value (in string form) to its stored bits
func (m *EnumMap) Raw(value string) (uint64, bool) {
	raw, ok := m.raw[value]
	return raw, ok
}

// StringAt returns the StringEnum value stored as raw
func (m *EnumMap) StringAt(raw uint64) (string, bool) {
	if m.Kind != StringEnum || raw >= uint64(len(m.Strings)) {
		return "", false
	}
	return m.Strings[raw], true
}

// IntAt returns the IntEnum value stored as raw
func (m *EnumMap) IntAt(raw uint64) (int64, bool) {
	if m.Kind != IntEnum {
		return 0, false
	}
	v, ok := m.ints[raw]
	return v, ok
}

// Values returns every declared value in string form
func (m *EnumMap) Values() []string {
	if m.Kind == StringEnum {
		return m.Strings
	}
	out := make([]string, len(m.Ints))
	for i, v := range m.Ints {
		out[i] = strconv.FormatInt(v, 10)
	}
	return out
}

// Field describes one compiled field
type Field struct {
	Name        string
	Type        string // type as declared, e.g. "bool" or "time"
	Kind        Kind
	Start       int // first bit, inclusive
	End         int // last bit, inclusive
	Bits        int
	Description string
	Charset     Charset  // Bytes fields only
	Enum        *EnumMap // Enum fields only
}

// Aligned reports whether the field can use whole-byte access
func (f *Field) Aligned() bool {
	return f.Start%8 == 0 && f.Bits%8 == 0
}

// ByteLen is the length of a Bytes field in bytes
func (f *Field) ByteLen() int {
	return f.Bits / 8
}

// Mask keeps the low Bits bits of a value
func (f *Field) Mask() uint64 {
	if f.Bits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(f.Bits) - 1
}

// CRC declares a CRC32C field and the bit range it covers
type CRC struct {
	Field string
	Start int // first covered bit, inclusive
	End   int // last covered bit, inclusive
}

// Schema is a compiled, immutable record layout
type Schema struct {
	Name      string
	ByteOrder ByteOrder
	TotalBits int
	CRC       *CRC
	Fields    []Field // sorted by Start

	index map[string]int
}

// Size returns the encoded record length in bytes
func (s *Schema) Size() int {
	return (s.TotalBits + 7) / 8
}

// Field looks up a field by name
func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// Names returns field names in bit order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i := range s.Fields {
		names[i] = s.Fields[i].Name
	}
	return names
}
