package codec

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		in   interface{}
		want Value
	}{
		{nil, Value{}},
		{int(-3), Int(-3)},
		{int8(-1), Int(-1)},
		{uint16(9), Uint(9)},
		{uint64(math.MaxUint64), Uint(math.MaxUint64)},
		{float32(0.5), Float(0.5)},
		{json.Number("12"), Int(12)},
		{json.Number("18446744073709551615"), Uint(math.MaxUint64)},
		{json.Number("1.25"), Float(1.25)},
		{"x", String("x")},
		{[]byte{1}, Bytes([]byte{1})},
		{true, Bool(true)},
		{Int(4), Int(4)},
		{struct{ A int }{1}, String("{1}")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromAny(tt.in), "%#v", tt.in)
	}
}

func TestValue_Accessors(t *testing.T) {
	assert.Equal(t, int64(-1), Uint(math.MaxUint64).AsInt64())
	assert.Equal(t, uint64(math.MaxUint64), Int(-1).AsUint64())
	assert.Equal(t, 2.0, Int(2).AsFloat64())
	assert.Equal(t, "0102", Bytes([]byte{1, 2}).AsString())
	assert.Equal(t, "true", Bool(true).AsString())
	assert.True(t, String("true").AsBool())
	assert.Equal(t, "<null>", Value{}.String())
	assert.True(t, Value{}.IsNull())
	assert.Equal(t, BoolValue, Bool(false).Kind())
	assert.Equal(t, "uint", UintValue.String())
}

func TestValue_JSON(t *testing.T) {
	rec := Record{
		"i":   Int(-7),
		"u":   Uint(math.MaxUint64),
		"f":   Float(math.NaN()),
		"inf": Float(math.Inf(-1)),
		"s":   String("ok"),
		"b":   Bytes([]byte{0xAB}),
		"t":   Bool(true),
		"n":   Value{},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"i":-7,"u":18446744073709551615,"f":"NaN","inf":"-Inf","s":"ok","b":"ab","t":true,"n":null}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal([]byte(`{"u":18446744073709551615,"i":-7,"f":1.5,"t":false}`), &back))
	assert.Equal(t, Uint(math.MaxUint64), back["u"])
	assert.Equal(t, Int(-7), back["i"])
	assert.Equal(t, Float(1.5), back["f"])
	assert.Equal(t, Bool(false), back["t"])
}

func TestFloatToUint(t *testing.T) {
	tests := []struct {
		in   float64
		want uint64
		ok   bool
	}{
		{math.NaN(), 0, false},
		{1e30, math.MaxUint64, false},
		{-1e30, 1 << 63, false},
		{-2.7, uint64(0xFFFFFFFFFFFFFFFE), true},
		{9.9, 9, true},
		{1 << 63, 1 << 63, true},
	}
	for _, tt := range tests {
		got, ok := floatToUint(tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
	}
}

func TestRecordFromMap(t *testing.T) {
	rec := RecordFromMap(map[string]interface{}{"a": 1, "b": "x"})
	assert.Equal(t, Record{"a": Int(1), "b": String("x")}, rec)
}
