package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind identifies which member of Value is set
type ValueKind uint8

const (
	NullValue ValueKind = iota
	IntValue
	UintValue
	FloatValue
	StringValue
	BytesValue
	BoolValue
)

var valueKindNames = [...]string{"null", "int", "uint", "float", "string", "bytes", "bool"}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single field value. The zero Value is null and encodes as 0.
type Value struct {
	kind ValueKind
	i    int64
	u    uint64
	f    float64
	s    string
	b    []byte
}

// Record maps field names to values. It lives for one encode or decode call.
type Record map[string]Value

func Int(v int64) Value     { return Value{kind: IntValue, i: v} }
func Uint(v uint64) Value   { return Value{kind: UintValue, u: v} }
func Float(v float64) Value { return Value{kind: FloatValue, f: v} }
func String(v string) Value { return Value{kind: StringValue, s: v} }
func Bytes(v []byte) Value  { return Value{kind: BytesValue, b: v} }

func Bool(v bool) Value {
	if v {
		return Value{kind: BoolValue, u: 1}
	}
	return Value{kind: BoolValue}
}

// FromAny wraps a plain Go value, as produced by encoding/json or a
// hand-written map literal.
func FromAny(v interface{}) Value {
	switch tv := v.(type) {
	case nil:
		return Value{}
	case Value:
		return tv
	case int:
		return Int(int64(tv))
	case int8:
		return Int(int64(tv))
	case int16:
		return Int(int64(tv))
	case int32:
		return Int(int64(tv))
	case int64:
		return Int(tv)
	case uint:
		return Uint(uint64(tv))
	case uint8:
		return Uint(uint64(tv))
	case uint16:
		return Uint(uint64(tv))
	case uint32:
		return Uint(uint64(tv))
	case uint64:
		return Uint(tv)
	case float32:
		return Float(float64(tv))
	case float64:
		return Float(tv)
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return Int(i)
		}
		if u, err := strconv.ParseUint(tv.String(), 10, 64); err == nil {
			return Uint(u)
		}
		if f, err := tv.Float64(); err == nil {
			return Float(f)
		}
		return String(tv.String())
	case string:
		return String(tv)
	case []byte:
		return Bytes(tv)
	case bool:
		return Bool(tv)
	default:
		return String(fmt.Sprint(tv))
	}
}

// RecordFromMap converts a generic map into a Record
func RecordFromMap(m map[string]interface{}) Record {
	rec := make(Record, len(m))
	for k, v := range m {
		rec[k] = FromAny(v)
	}
	return rec
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == NullValue }

// AsInt64 returns the value as a signed integer. Unsigned values are
// reinterpreted, not clamped.
func (v Value) AsInt64() int64 {
	switch v.kind {
	case IntValue:
		return v.i
	case UintValue, BoolValue:
		return int64(v.u)
	case FloatValue:
		return int64(v.f)
	case StringValue:
		i, _ := strconv.ParseInt(v.s, 0, 64)
		return i
	}
	return 0
}

func (v Value) AsUint64() uint64 {
	switch v.kind {
	case IntValue:
		return uint64(v.i)
	case UintValue, BoolValue:
		return v.u
	case FloatValue:
		return uint64(v.f)
	case StringValue:
		u, _ := strconv.ParseUint(v.s, 0, 64)
		return u
	}
	return 0
}

func (v Value) AsFloat64() float64 {
	f, _ := v.toFloat()
	return f
}

func (v Value) AsBool() bool {
	switch v.kind {
	case IntValue:
		return v.i != 0
	case UintValue, BoolValue:
		return v.u != 0
	case FloatValue:
		return v.f != 0
	case StringValue:
		b, _ := strconv.ParseBool(v.s)
		return b
	case BytesValue:
		return len(v.b) > 0
	}
	return false
}

// AsString formats the value as text; bytes are rendered as hex.
func (v Value) AsString() string {
	switch v.kind {
	case IntValue:
		return strconv.FormatInt(v.i, 10)
	case UintValue:
		return strconv.FormatUint(v.u, 10)
	case FloatValue:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case StringValue:
		return v.s
	case BytesValue:
		return hex.EncodeToString(v.b)
	case BoolValue:
		return strconv.FormatBool(v.u != 0)
	}
	return ""
}

func (v Value) AsBytes() []byte {
	if v.kind == BytesValue {
		return v.b
	}
	return []byte(v.AsString())
}

func (v Value) String() string {
	if v.kind == NullValue {
		return "<null>"
	}
	return v.AsString()
}

// Interface unwraps the value into a plain Go value
func (v Value) Interface() interface{} {
	switch v.kind {
	case IntValue:
		return v.i
	case UintValue:
		return v.u
	case FloatValue:
		return v.f
	case StringValue:
		return v.s
	case BytesValue:
		return v.b
	case BoolValue:
		return v.u != 0
	}
	return nil
}

// MarshalJSON writes non-finite floats as strings and bytes as hex
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case FloatValue:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
		return json.Marshal(v.f)
	case BytesValue:
		return json.Marshal(hex.EncodeToString(v.b))
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON keeps integers exact
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// toUint converts to the raw two's-complement bits of an integer field.
// ok is false when the input had to be defaulted or saturated.
func (v Value) toUint() (uint64, bool) {
	switch v.kind {
	case NullValue:
		return 0, true
	case IntValue:
		return uint64(v.i), true
	case UintValue, BoolValue:
		return v.u, true
	case FloatValue:
		return floatToUint(v.f)
	case StringValue:
		return parseInteger(v.s)
	case BytesValue:
		var u uint64
		b := v.b
		if len(b) > 8 {
			b = b[len(b)-8:]
		}
		for _, c := range b {
			u = u<<8 | uint64(c)
		}
		return u, len(v.b) <= 8
	}
	return 0, false
}

func (v Value) toFloat() (float64, bool) {
	switch v.kind {
	case NullValue:
		return 0, true
	case IntValue:
		return float64(v.i), true
	case UintValue, BoolValue:
		return float64(v.u), true
	case FloatValue:
		return v.f, true
	case StringValue:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

const (
	two63 = 9223372036854775808.0
	two64 = 18446744073709551616.0
)

// floatToUint truncates toward zero, saturating outside the int64/uint64
// range; NaN becomes 0.
func floatToUint(f float64) (uint64, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f >= two64:
		return math.MaxUint64, false
	case f >= two63:
		return uint64(f), true
	case f < -two63:
		return 1 << 63, false
	case f < 0:
		return uint64(int64(f)), true
	default:
		return uint64(f), true
	}
}

func parseInteger(s string) (uint64, bool) {
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return uint64(i), true
	}
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return u, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatToUint(f)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
