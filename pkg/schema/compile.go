package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/bits"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// reserved top-level keys; everything else is a field
const (
	keyName       = "schema_name"
	keyEndianness = "endianness"
	keyTotalBits  = "total_bits"
	keyValidation = "validation"
	keyDesc       = "description"
	keyVersion    = "version"
)

type typeInfo struct {
	kind  Kind
	width int // 0 means derived from the descriptor
}

var fieldTypes = map[string]typeInfo{
	"uint":         {Unsigned, 32},
	"unsigned":     {Unsigned, 32},
	"unsigned_int": {Unsigned, 32},
	"uint8":        {Unsigned, 8},
	"uint16":       {Unsigned, 16},
	"uint32":       {Unsigned, 32},
	"uint64":       {Unsigned, 64},
	"int":          {Signed, 32},
	"signed":       {Signed, 32},
	"signed_int":   {Signed, 32},
	"int8":         {Signed, 8},
	"int16":        {Signed, 16},
	"int32":        {Signed, 32},
	"int64":        {Signed, 64},
	"time":         {Unsigned, 32},
	"timestamp":    {Unsigned, 32},
	"bool":         {Unsigned, 1},
	"boolean":      {Unsigned, 1},
	"float":        {Float32, 32},
	"float32":      {Float32, 32},
	"double":       {Float64, 64},
	"float64":      {Float64, 64},
	"string":       {Bytes, 0},
	"bytes":        {Bytes, 0},
	"char":         {Bytes, 0},
	"fixed_string": {Bytes, 0},
	"enum":         {Enum, 0},
}

type descriptor struct {
	Type      string        `json:"type"`
	Bits      *int          `json:"bits"`
	Pos       string        `json:"pos"`
	Desc      string        `json:"desc"`
	Values    []interface{} `json:"values"`
	MaxLength *int          `json:"max_length"`
	Charset   string        `json:"charset"`
}

type crcSpec struct {
	Field     string `json:"field"`
	RangeBits string `json:"range_bits"`
}

type validation struct {
	CRC32C *crcSpec `json:"crc32c"`
}

type rawField struct {
	name string
	body json.RawMessage
}

type document struct {
	name       string
	endianness string
	totalBits  int
	crc        *crcSpec
	fields     []rawField
}

// CompileFile reads and compiles a schema file
func CompileFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Compile(data)
}

// CompileMap compiles an already decoded schema. Fields without a "pos" are
// placed in name order, since map order is not preserved.
func CompileMap(raw map[string]interface{}) (*Schema, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, newError(ErrNotFieldMap, err.Error())
	}
	return Compile(data)
}

// MustCompile is like Compile but panics on error
func MustCompile(raw string) *Schema {
	s, err := Compile([]byte(raw))
	if err != nil {
		panic(err)
	}
	return s
}

// Compile builds an immutable Schema from its JSON (or JSONC) source
func Compile(raw []byte) (*Schema, error) {
	doc, err := parseDocument(jsonc.ToJSON(raw))
	if err != nil {
		return nil, err
	}

	order, err := ParseByteOrder(strings.ToLower(doc.endianness))
	if err != nil {
		return nil, newError(ErrInvalidByteOrder, err.Error())
	}

	s := &Schema{
		Name:      doc.name,
		ByteOrder: order,
		Fields:    make([]Field, 0, len(doc.fields)),
		index:     make(map[string]int, len(doc.fields)),
	}

	cursor := 0
	for _, rf := range doc.fields {
		f, err := compileField(rf, cursor)
		if err != nil {
			return nil, err
		}
		cursor = f.End + 1
		s.Fields = append(s.Fields, f)
	}

	sort.SliceStable(s.Fields, func(i, j int) bool {
		return s.Fields[i].Start < s.Fields[j].Start
	})
	for i := 0; i+1 < len(s.Fields); i++ {
		cur, next := &s.Fields[i], &s.Fields[i+1]
		if cur.End >= next.Start {
			return nil, newError(ErrOverlap,
				fmt.Sprintf("bits %d-%d intersect bits %d-%d", cur.Start, cur.End, next.Start, next.End),
				cur.Name, next.Name)
		}
	}

	s.TotalBits = doc.totalBits
	if s.TotalBits == 0 {
		if len(s.Fields) == 0 {
			return nil, newError(ErrNotFieldMap, "no fields and no total_bits")
		}
		s.TotalBits = s.Fields[len(s.Fields)-1].End + 1
	}
	if s.TotalBits < 0 {
		return nil, newError(ErrInvalidWidth, fmt.Sprintf("total_bits must be positive, got %d", s.TotalBits))
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.End+1 > s.TotalBits {
			return nil, newError(ErrOutOfRange,
				fmt.Sprintf("ends at bit %d, total_bits is %d", f.End, s.TotalBits), f.Name)
		}
		s.index[f.Name] = i
	}

	if doc.crc != nil {
		crc, err := compileCRC(s, doc.crc)
		if err != nil {
			return nil, err
		}
		s.CRC = crc
	}

	return s, nil
}

func parseDocument(data []byte) (*document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, newError(ErrNotFieldMap, err.Error())
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, newError(ErrNotFieldMap, "top level must be a JSON object")
	}

	doc := &document{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, newError(ErrNotFieldMap, err.Error())
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, newError(ErrNotFieldMap, err.Error(), key)
		}
		if seen[key] {
			return nil, newError(ErrDuplicate, "declared more than once", key)
		}
		seen[key] = true

		switch key {
		case keyName:
			if err := json.Unmarshal(value, &doc.name); err != nil {
				return nil, newError(ErrNotFieldMap, "schema_name must be a string")
			}
		case keyEndianness:
			if err := json.Unmarshal(value, &doc.endianness); err != nil {
				return nil, newError(ErrInvalidByteOrder, "endianness must be a string")
			}
		case keyTotalBits:
			if err := json.Unmarshal(value, &doc.totalBits); err != nil || doc.totalBits <= 0 {
				return nil, newError(ErrInvalidWidth, "total_bits must be a positive integer")
			}
		case keyValidation:
			var v validation
			if err := json.Unmarshal(value, &v); err != nil {
				return nil, newError(ErrInvalidCRC, err.Error())
			}
			doc.crc = v.CRC32C
		case keyDesc, keyVersion:
			// informational only
		default:
			doc.fields = append(doc.fields, rawField{name: key, body: value})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, newError(ErrNotFieldMap, err.Error())
	}
	return doc, nil
}

func compileField(rf rawField, cursor int) (Field, error) {
	body := bytes.TrimSpace(rf.body)
	if len(body) == 0 || body[0] != '{' {
		return Field{}, newError(ErrNotFieldMap, "descriptor must be an object", rf.name)
	}

	var d descriptor
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return Field{}, newError(ErrNotFieldMap, err.Error(), rf.name)
	}

	typeName := strings.ToLower(strings.TrimSpace(d.Type))
	info, ok := fieldTypes[typeName]
	if !ok {
		return Field{}, newError(ErrUnsupportedType, fmt.Sprintf("type %q", d.Type), rf.name)
	}

	f := Field{
		Name:        rf.name,
		Type:        typeName,
		Kind:        info.kind,
		Description: d.Desc,
	}

	derived := info.width
	switch info.kind {
	case Enum:
		enum, width, err := buildEnum(rf.name, d.Values)
		if err != nil {
			return Field{}, err
		}
		f.Enum = enum
		derived = width
	case Bytes:
		if d.MaxLength != nil {
			if *d.MaxLength <= 0 {
				return Field{}, newError(ErrInvalidWidth, "max_length must be positive", rf.name)
			}
			derived = 8 * *d.MaxLength
		}
		cs, ok := parseCharset(strings.ToLower(d.Charset))
		if !ok {
			return Field{}, newError(ErrUnsupportedType, fmt.Sprintf("charset %q", d.Charset), rf.name)
		}
		f.Charset = cs
	}

	width := derived
	if d.Bits != nil {
		if *d.Bits <= 0 {
			return Field{}, newError(ErrInvalidWidth, fmt.Sprintf("bits must be positive, got %d", *d.Bits), rf.name)
		}
		width = *d.Bits
	}

	start := cursor
	if info.kind == Bytes {
		start = (cursor + 7) &^ 7
	}
	if d.Pos != "" {
		s, e, err := parseRange(d.Pos)
		if err != nil {
			return Field{}, newError(ErrMalformedPos, err.Error(), rf.name)
		}
		posWidth := e - s + 1
		if d.Bits != nil && *d.Bits != posWidth {
			return Field{}, newError(ErrInvalidWidth,
				fmt.Sprintf("bits %d disagrees with pos %q (%d bits)", *d.Bits, d.Pos, posWidth), rf.name)
		}
		if info.kind == Bytes && d.MaxLength != nil && posWidth != derived {
			return Field{}, newError(ErrInvalidWidth,
				fmt.Sprintf("max_length %d needs %d bits, pos %q has %d", *d.MaxLength, derived, d.Pos, posWidth), rf.name)
		}
		start, width = s, posWidth
	}

	if width == 0 {
		return Field{}, newError(ErrInvalidWidth, "width cannot be derived; set pos, bits or max_length", rf.name)
	}
	if err := checkWidth(&f, width, derived); err != nil {
		return Field{}, err
	}
	if info.kind == Bytes && start%8 != 0 {
		return Field{}, newError(ErrMalformedPos, fmt.Sprintf("byte field must start on a byte boundary, starts at bit %d", start), rf.name)
	}

	f.Start = start
	f.Bits = width
	f.End = start + width - 1
	return f, nil
}

func checkWidth(f *Field, width, derived int) error {
	switch f.Kind {
	case Float32:
		if width != 32 {
			return newError(ErrInvalidWidth, fmt.Sprintf("float32 needs 32 bits, got %d", width), f.Name)
		}
	case Float64:
		if width != 64 {
			return newError(ErrInvalidWidth, fmt.Sprintf("float64 needs 64 bits, got %d", width), f.Name)
		}
	case Bytes:
		if width%8 != 0 {
			return newError(ErrInvalidWidth, fmt.Sprintf("byte field width %d is not a multiple of 8", width), f.Name)
		}
	case Enum:
		if width != derived {
			return newError(ErrInvalidWidth,
				fmt.Sprintf("enum with %d values needs %d bits, got %d", f.Enum.Cardinality(), derived, width), f.Name)
		}
	default:
		if width > 64 {
			return newError(ErrInvalidWidth, fmt.Sprintf("integer fields hold at most 64 bits, got %d", width), f.Name)
		}
	}
	return nil
}

func buildEnum(name string, values []interface{}) (*EnumMap, int, error) {
	if len(values) == 0 {
		return nil, 0, newError(ErrEmptyEnum, "", name)
	}

	ints := make([]int64, 0, len(values))
	strs := make([]string, 0, len(values))
	allInts := true
	for _, v := range values {
		switch tv := v.(type) {
		case json.Number:
			strs = append(strs, tv.String())
			if i, err := tv.Int64(); err == nil {
				ints = append(ints, i)
			} else {
				allInts = false
			}
		case string:
			strs = append(strs, tv)
			allInts = false
		default:
			strs = append(strs, fmt.Sprint(tv))
			allInts = false
		}
	}

	if allInts {
		m := &EnumMap{
			Kind: IntEnum,
			Ints: ints,
			raw:  make(map[string]uint64, len(ints)),
			ints: make(map[uint64]int64, len(ints)),
		}
		var maxValue uint64
		for _, v := range ints {
			if v < 0 {
				return nil, 0, newError(ErrInvalidWidth, fmt.Sprintf("integer enum value %d is negative", v), name)
			}
			key := strconv.FormatInt(v, 10)
			if _, dup := m.raw[key]; dup {
				return nil, 0, newError(ErrDuplicate, fmt.Sprintf("enum value %s", key), name)
			}
			m.raw[key] = uint64(v)
			m.ints[uint64(v)] = v
			if uint64(v) > maxValue {
				maxValue = uint64(v)
			}
		}
		return m, max(1, bits.Len64(maxValue)), nil
	}

	m := &EnumMap{
		Kind:    StringEnum,
		Strings: strs,
		raw:     make(map[string]uint64, len(strs)),
	}
	for i, s := range strs {
		if _, dup := m.raw[s]; dup {
			return nil, 0, newError(ErrDuplicate, fmt.Sprintf("enum value %q", s), name)
		}
		m.raw[s] = uint64(i)
	}
	return m, max(1, bits.Len(uint(len(strs)-1))), nil
}

func compileCRC(s *Schema, spec *crcSpec) (*CRC, error) {
	f, ok := s.Field(spec.Field)
	if !ok {
		return nil, newError(ErrInvalidCRC, fmt.Sprintf("crc field %q is not declared", spec.Field), spec.Field)
	}
	if (f.Kind != Unsigned && f.Kind != Signed) || f.Bits != 32 {
		return nil, newError(ErrInvalidCRC, "crc field must be a 32-bit integer", f.Name)
	}
	start, end, err := parseRange(spec.RangeBits)
	if err != nil {
		return nil, newError(ErrInvalidCRC, "range_bits: "+err.Error(), f.Name)
	}
	if end+1 > s.TotalBits {
		return nil, newError(ErrOutOfRange, fmt.Sprintf("crc range ends at bit %d, total_bits is %d", end, s.TotalBits), f.Name)
	}
	if f.Start <= end && start <= f.End {
		return nil, newError(ErrInvalidCRC,
			fmt.Sprintf("crc field bits %d-%d lie inside covered range %d-%d", f.Start, f.End, start, end), f.Name)
	}
	// the checksum zeroes the crc field's whole bytes, so they must not hold covered bits
	if f.Start/8 <= end/8 && start/8 <= f.End/8 {
		return nil, newError(ErrInvalidCRC,
			fmt.Sprintf("crc field bytes %d-%d share a byte with covered range %d-%d", f.Start/8, f.End/8, start, end), f.Name)
	}
	return &CRC{Field: f.Name, Start: start, End: end}, nil
}

// parseRange parses an inclusive "start-end" bit range. A single number is
// a one-bit range.
func parseRange(pos string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(pos), "-")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("position %q is not start-end", pos)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("position %q has an invalid start", pos)
	}
	end := start
	if len(parts) == 2 {
		end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || end < 0 {
			return 0, 0, fmt.Errorf("position %q has an invalid end", pos)
		}
	}
	if end < start {
		return 0, 0, fmt.Errorf("position %q ends before it starts", pos)
	}
	return start, end, nil
}
