package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

func compile(t testing.TB, src string) *schema.Schema {
	t.Helper()
	s, err := schema.Compile([]byte(src))
	require.NoError(t, err)
	return s
}

func quiet() Option {
	return WithLogger(logging.Discard())
}

const twoWordSchema = `{
	"schema_name": "pair",
	"endianness": "little",
	"total_bits": 64,
	"field1": {"type": "uint", "bits": 32, "pos": "0-31"},
	"field2": {"type": "uint", "bits": 32, "pos": "32-63"}
}`

func TestEncode_ConcreteScenario(t *testing.T) {
	s := compile(t, twoWordSchema)
	enc := NewEncoder(s, quiet())
	dec := NewDecoder(s, quiet())

	buf, err := enc.Encode(Record{"field1": Uint(0x12345678), "field2": Uint(0xABCD)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{0x78, 0x56, 0x34, 0x12, 0xCD, 0xAB, 0x00, 0x00}
	if !bytes.Equal(buf, want) {
		t.Fatalf("Encode = % X, want % X", buf, want)
	}

	rec, err := dec.Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := rec["field1"].AsUint64(); got != 0x12345678 {
		t.Errorf("field1 = %#x, want 0x12345678", got)
	}
	if got := rec["field2"].AsUint64(); got != 0xABCD {
		t.Errorf("field2 = %#x, want 0xabcd", got)
	}
}

func TestEncode_BitLayout(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		rec   Record
		bytes []byte
	}{
		{
			name: "little unaligned nibbles",
			src: `{"endianness": "little", "total_bits": 8,
				"a": {"type": "uint", "pos": "0-2"}, "b": {"type": "uint", "pos": "3-7"}}`,
			rec:   Record{"a": Uint(5), "b": Uint(0x13)},
			bytes: []byte{0x9D},
		},
		{
			name: "big unaligned nibbles",
			src: `{"endianness": "big", "total_bits": 8,
				"a": {"type": "uint", "pos": "0-2"}, "b": {"type": "uint", "pos": "3-7"}}`,
			rec:   Record{"a": Uint(5), "b": Uint(0x13)},
			bytes: []byte{0xB3},
		},
		{
			name:  "little straddling bytes",
			src:   `{"endianness": "little", "total_bits": 24, "v": {"type": "uint", "pos": "4-19"}}`,
			rec:   Record{"v": Uint(0xABCD)},
			bytes: []byte{0xD0, 0xBC, 0x0A},
		},
		{
			name:  "big straddling bytes",
			src:   `{"endianness": "big", "total_bits": 24, "v": {"type": "uint", "pos": "4-19"}}`,
			rec:   Record{"v": Uint(0xABCD)},
			bytes: []byte{0x0A, 0xBC, 0xD0},
		},
		{
			name:  "big aligned word",
			src:   `{"endianness": "big", "total_bits": 32, "v": {"type": "uint32", "pos": "0-31"}}`,
			rec:   Record{"v": Uint(0x12345678)},
			bytes: []byte{0x12, 0x34, 0x56, 0x78},
		},
		{
			name:  "negative signed in 12 bits",
			src:   `{"total_bits": 16, "v": {"type": "int", "pos": "0-11"}}`,
			rec:   Record{"v": Int(-1)},
			bytes: []byte{0xFF, 0x0F},
		},
		{
			name:  "bool",
			src:   `{"total_bits": 8, "flag": {"type": "bool", "pos": "7-7"}}`,
			rec:   Record{"flag": Bool(true)},
			bytes: []byte{0x80},
		},
		{
			name:  "float32 bit pattern",
			src:   `{"total_bits": 32, "f": {"type": "float", "pos": "0-31"}}`,
			rec:   Record{"f": Float(1.0)},
			bytes: []byte{0x00, 0x00, 0x80, 0x3F},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := compile(t, tt.src)
			buf, err := NewEncoder(s, quiet()).Encode(tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.bytes, buf)

			rec, err := NewDecoder(s, quiet()).Decode(buf)
			require.NoError(t, err)
			for name, v := range tt.rec {
				assert.Equal(t, v.AsString(), rec[name].AsString(), name)
			}
		})
	}
}

func TestEncode_AlignedMatchesBitwise(t *testing.T) {
	const v = uint64(0xC0FFEE)
	for _, order := range []schema.ByteOrder{schema.LittleEndian, schema.BigEndian} {
		f := &schema.Field{Name: "v", Kind: schema.Unsigned, Start: 8, End: 31, Bits: 24}
		aligned := make([]byte, 4)
		putBits(aligned, f, order, v)

		bitwise := make([]byte, 4)
		for k := 0; k < f.Bits; k++ {
			p, mask := bitPos(f, order, k)
			if v>>uint(k)&1 == 1 {
				bitwise[p/8] |= mask
			}
		}
		assert.Equal(t, aligned, bitwise, order.String())
		assert.Equal(t, v, getBits(bitwise, f, order))
	}
}

func TestEncode_Masking(t *testing.T) {
	s := compile(t, `{
		"total_bits": 32,
		"u": {"type": "uint", "pos": "0-7"},
		"i": {"type": "int", "pos": "8-19"},
		"j": {"type": "int", "pos": "20-31"}
	}`)
	enc := NewEncoder(s, quiet())
	dec := NewDecoder(s, quiet())

	buf, err := enc.Encode(Record{"u": Uint(300), "i": Int(2048), "j": Int(-2049)})
	require.NoError(t, err)
	rec, err := dec.Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, Uint(44), rec["u"])
	assert.Equal(t, Int(-2048), rec["i"])
	assert.Equal(t, Int(2047), rec["j"])
}

func TestEncode_Coercion(t *testing.T) {
	s := compile(t, `{
		"total_bits": 192,
		"a": {"type": "uint", "pos": "0-31"},
		"b": {"type": "int",  "pos": "32-63"},
		"c": {"type": "double", "pos": "64-127"},
		"d": {"type": "uint", "pos": "128-159"},
		"e": {"type": "uint", "pos": "160-191"}
	}`)
	enc := NewEncoder(s, quiet())
	dec := NewDecoder(s, quiet())

	buf, err := enc.Encode(Record{
		"a": String("0x10"),
		"b": Float(-3.9),
		"c": Int(7),
		"d": Float(math.NaN()),
		"e": String("not a number"),
	})
	require.NoError(t, err)
	rec, err := dec.Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, Uint(16), rec["a"])
	assert.Equal(t, Int(-3), rec["b"])
	assert.Equal(t, Float(7), rec["c"])
	assert.Equal(t, Uint(0), rec["d"])
	assert.Equal(t, Uint(0), rec["e"])
}

func TestEncode_FixedSize(t *testing.T) {
	s := compile(t, `{
		"total_bits": 45,
		"a": {"type": "uint", "pos": "0-4"},
		"s": {"type": "string", "pos": "8-39"}
	}`)
	enc := NewEncoder(s, quiet())

	records := []Record{
		nil,
		{},
		{"a": Uint(math.MaxUint64)},
		{"s": String("a string much longer than four bytes")},
		{"unknown": Int(1)},
	}
	for _, rec := range records {
		buf, err := enc.Encode(rec)
		require.NoError(t, err)
		assert.Len(t, buf, 6)
	}

	empty, err := enc.Encode(Record{})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 6), empty)
}

func TestEncode_Strings(t *testing.T) {
	s := compile(t, `{
		"ascii": {"type": "string", "max_length": 8},
		"short": {"type": "string", "max_length": 4},
		"utf":   {"type": "string", "max_length": 5, "charset": "utf-8"},
		"latin": {"type": "string", "max_length": 4, "charset": "latin-1"},
		"raw":   {"type": "bytes",  "max_length": 2}
	}`)
	enc := NewEncoder(s, quiet())
	dec := NewDecoder(s, quiet())

	buf, err := enc.Encode(Record{
		"ascii": String("héllo"),
		"short": String("toolong"),
		"utf":   String("añoñ"),
		"latin": String("café"),
		"raw":   Bytes([]byte{'o', 'k', '!'}),
	})
	require.NoError(t, err)
	assert.Len(t, buf, 23)

	latin, _ := s.Field("latin")
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, buf[latin.Start/8:latin.Start/8+4])

	rec, err := dec.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, String("h?llo"), rec["ascii"])
	assert.Equal(t, String("tool"), rec["short"])
	// the second ñ would be cut in half, so it is dropped whole
	assert.Equal(t, String("año"), rec["utf"])
	assert.Equal(t, String("café"), rec["latin"])
	assert.Equal(t, String("ok"), rec["raw"])
}

func TestDecode_BytesHexFallback(t *testing.T) {
	s := compile(t, `{"s": {"type": "string", "max_length": 3}}`)
	rec, err := NewDecoder(s, quiet()).Decode([]byte{0xFF, 0x41, 0x00})
	require.NoError(t, err)
	assert.Equal(t, String("ff41"), rec["s"])
}

func TestEnum_Resilience(t *testing.T) {
	s := compile(t, `{
		"total_bits": 16,
		"level": {"type": "enum", "pos": "0-1", "values": ["low", "mid", "high"]},
		"code":  {"type": "enum", "pos": "2-10", "values": [100, 200, 404]}
	}`)
	enc := NewEncoder(s, quiet())
	dec := NewDecoder(s, quiet())

	tests := []struct {
		name  string
		in    Record
		level Value
		code  Value
	}{
		{"known values", Record{"level": String("high"), "code": String("404")}, String("high"), Int(404)},
		{"integer input", Record{"level": Int(1), "code": Int(200)}, String("mid"), Int(200)},
		{"unknown string", Record{"level": String("UNKNOWN_STRING"), "code": String("999")}, String("low"), String("unknown_0")},
		{"unmapped raw", Record{"level": Int(3), "code": Int(5)}, String("unknown_3"), String("unknown_5")},
		{"masked integer", Record{"level": Int(6)}, String("high"), String("unknown_0")},
		{"missing", Record{}, String("low"), String("unknown_0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := enc.Encode(tt.in)
			require.NoError(t, err)
			rec, err := dec.Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, tt.level, rec["level"])
			assert.Equal(t, tt.code, rec["code"])
		})
	}
}

const crcSchema = `{
	"total_bits": 64,
	"validation": {"crc32c": {"field": "crc", "range_bits": "0-31"}},
	"seq":  {"type": "uint16", "pos": "0-15"},
	"temp": {"type": "int", "pos": "16-27"},
	"ok":   {"type": "bool", "pos": "28-28"},
	"crc":  {"type": "uint", "pos": "32-63"}
}`

func TestCRC_Determinism(t *testing.T) {
	s := compile(t, crcSchema)
	enc := NewEncoder(s, quiet())

	rec := Record{"seq": Uint(42), "temp": Int(-17), "ok": Bool(true)}
	a, err := enc.Encode(rec)
	require.NoError(t, err)
	b, err := enc.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	want := crc32.Checksum(a[0:4], crc32.MakeTable(crc32.Castagnoli))
	assert.Equal(t, want, binary.LittleEndian.Uint32(a[4:8]))

	// a crc value supplied by the caller is overwritten
	c, err := enc.Encode(Record{"seq": Uint(42), "temp": Int(-17), "ok": Bool(true), "crc": Uint(1)})
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestCRC_Sensitivity(t *testing.T) {
	s := compile(t, crcSchema)
	enc := NewEncoder(s, quiet())
	dec := NewDecoder(s, quiet())

	buf, err := enc.Encode(Record{"seq": Uint(7), "temp": Int(3)})
	require.NoError(t, err)
	require.NoError(t, dec.Verify(buf))

	for bit := 0; bit < 32; bit++ {
		corrupt := append([]byte(nil), buf...)
		corrupt[bit/8] ^= 1 << uint(bit%8)
		err := dec.Verify(corrupt)
		assert.ErrorIs(t, err, ErrCRCMismatch, "bit %d", bit)
		if bit > 28 {
			// padding bits, no field carries them
			continue
		}

		// re-encoding the corrupted values produces a different crc
		rec, err := dec.Decode(corrupt)
		require.NoError(t, err)
		again, err := enc.Encode(rec)
		require.NoError(t, err)
		assert.NotEqual(t, buf[4:8], again[4:8], "bit %d", bit)
	}
}

func TestCRC_SubByteRange(t *testing.T) {
	// the covered range ends inside byte 0 and the crc starts on the next byte
	s := compile(t, `{
		"total_bits": 40,
		"validation": {"crc32c": {"field": "crc", "range_bits": "0-3"}},
		"flags": {"type": "uint", "pos": "0-3"},
		"crc":   {"type": "uint", "pos": "8-39"}
	}`)
	enc := NewEncoder(s, quiet())

	seen := make(map[uint32]uint64)
	for flags := uint64(0); flags < 16; flags++ {
		buf, err := enc.Encode(Record{"flags": Uint(flags)})
		require.NoError(t, err)
		crc := binary.LittleEndian.Uint32(buf[1:5])
		prev, dup := seen[crc]
		assert.False(t, dup, "flags %d and %d share crc %d", prev, flags, crc)
		seen[crc] = flags
	}
}

func TestDecode_CRCVerificationOptIn(t *testing.T) {
	s := compile(t, crcSchema)
	buf, err := NewEncoder(s, quiet()).Encode(Record{"seq": Uint(1)})
	require.NoError(t, err)
	buf[0] ^= 0xFF

	// permissive by default
	rec, err := NewDecoder(s, quiet()).Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, Uint(0xFE), rec["seq"])

	_, err = NewDecoder(s, quiet(), WithCRCVerification()).Decode(buf)
	assert.True(t, errors.Is(err, ErrCRCMismatch))
}

func TestDecode_ShortBuffer(t *testing.T) {
	s := compile(t, twoWordSchema)
	dec := NewDecoder(s, quiet())

	_, err := dec.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrShortBuffer)

	// extra trailing bytes are ignored
	rec, err := dec.Decode([]byte{1, 0, 0, 0, 2, 0, 0, 0, '\n'})
	require.NoError(t, err)
	assert.Equal(t, Uint(1), rec["field1"])
	assert.Equal(t, Uint(2), rec["field2"])
}

func TestEncodeTo(t *testing.T) {
	s := compile(t, twoWordSchema)
	enc := NewEncoder(s, quiet())

	buf := bytes.Repeat([]byte{0xFF}, 9)
	require.NoError(t, enc.EncodeTo(buf, Record{"field1": Uint(1)}))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xFF}, buf)

	assert.ErrorIs(t, enc.EncodeTo(make([]byte, 4), Record{}), ErrShortBuffer)
}

func TestEncode_InvalidCompiledField(t *testing.T) {
	s := compile(t, twoWordSchema)
	broken := *s
	broken.Fields = append([]schema.Field(nil), s.Fields...)
	broken.Fields[1].End = 70

	_, err := NewEncoder(&broken, quiet()).Encode(Record{})
	assert.ErrorIs(t, err, ErrInvalidField)
	_, err = NewDecoder(&broken, quiet()).Decode(make([]byte, 8))
	assert.ErrorIs(t, err, ErrInvalidField)
}

const mixedSchema = `{
	"schema_name": "mixed",
	"endianness": "%s",
	"u3":   {"type": "uint", "bits": 3},
	"i13":  {"type": "int", "bits": 13},
	"u64":  {"type": "uint64"},
	"i64":  {"type": "int64"},
	"i7":   {"type": "int", "bits": 7},
	"f32":  {"type": "float"},
	"f64":  {"type": "double"},
	"flag": {"type": "bool"},
	"name": {"type": "string", "max_length": 6},
	"kind": {"type": "enum", "values": ["a", "b", "c", "d", "e"]},
	"u29":  {"type": "uint", "bits": 29}
}`

func TestRoundTrip_Random(t *testing.T) {
	for _, order := range []string{"little", "big"} {
		t.Run(order, func(t *testing.T) {
			s := compile(t, fmtSchema(mixedSchema, order))
			enc := NewEncoder(s, quiet())
			dec := NewDecoder(s, quiet())
			rng := rand.New(rand.NewPCG(1, 2))
			kinds := []string{"a", "b", "c", "d", "e"}

			for i := 0; i < 2000; i++ {
				in := Record{
					"u3":   Uint(rng.Uint64()),
					"i13":  Int(rng.Int64()),
					"u64":  Uint(rng.Uint64()),
					"i64":  Int(rng.Int64() - math.MaxInt64/2),
					"i7":   Int(rng.Int64N(128) - 64),
					"f32":  Float(float64(rng.Float32())),
					"f64":  Float(rng.NormFloat64()),
					"flag": Bool(rng.IntN(2) == 1),
					"name": String(randomText(rng, rng.IntN(9))),
					"kind": String(kinds[rng.IntN(len(kinds))]),
					"u29":  Uint(rng.Uint64()),
				}
				buf, err := enc.Encode(in)
				require.NoError(t, err)
				require.Len(t, buf, s.Size())

				out, err := dec.Decode(buf)
				require.NoError(t, err)

				assert.Equal(t, Uint(in["u3"].u&7), out["u3"])
				assert.Equal(t, Int(signExtend(uint64(in["i13"].i)&0x1FFF, 13)), out["i13"])
				assert.Equal(t, in["u64"], out["u64"])
				assert.Equal(t, in["i64"], out["i64"])
				assert.Equal(t, in["i7"], out["i7"])
				assert.Equal(t, in["f32"], out["f32"])
				assert.Equal(t, in["f64"], out["f64"])
				assert.Equal(t, in["flag"], out["flag"])
				assert.Equal(t, in["kind"], out["kind"])
				assert.Equal(t, Uint(in["u29"].u&(1<<29-1)), out["u29"])

				name := in["name"].s
				if len(name) > 6 {
					name = name[:6]
				}
				assert.Equal(t, String(name), out["name"])
			}
		})
	}
}

func TestConcurrentSharedCodec(t *testing.T) {
	s := compile(t, fmtSchema(mixedSchema, "big"))
	enc := NewEncoder(s, quiet())
	dec := NewDecoder(s, quiet())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				seq := uint64(worker*1000 + i)
				buf, err := enc.Encode(Record{"u64": Uint(seq), "kind": String("c")})
				if err != nil {
					errs <- err
					return
				}
				rec, err := dec.Decode(buf)
				if err != nil {
					errs <- err
					return
				}
				if rec["u64"].AsUint64() != seq || rec["kind"].AsString() != "c" {
					errs <- errors.New("round trip mismatch")
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func fmtSchema(src, order string) string {
	return string(bytes.Replace([]byte(src), []byte("%s"), []byte(order), 1))
}

func randomText(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + rng.IntN(26))
	}
	return string(b)
}
