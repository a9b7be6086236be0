//go:build fuzz
// +build fuzz

package codec

import (
	"testing"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

// FuzzEncoder_RoundTrip encodes random values and checks the decoded result
// is the masked input
func FuzzEncoder_RoundTrip(f *testing.F) {
	s := schema.MustCompile(`{
		"endianness": "big",
		"a": {"type": "uint", "bits": 11},
		"b": {"type": "int", "bits": 19},
		"c": {"type": "uint64"},
		"s": {"type": "string", "max_length": 5}
	}`)
	enc := NewEncoder(s, WithLogger(logging.Discard()))
	dec := NewDecoder(s, WithLogger(logging.Discard()))

	f.Add(uint64(0), int64(0), uint64(0), "")
	f.Add(uint64(2047), int64(-1), uint64(1)<<63, "hello")
	f.Add(^uint64(0), int64(-262144), uint64(42), "overlong")

	f.Fuzz(func(t *testing.T, a uint64, b int64, c uint64, str string) {
		buf, err := enc.Encode(Record{"a": Uint(a), "b": Int(b), "c": Uint(c), "s": String(str)})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if len(buf) != s.Size() {
			t.Fatalf("len = %d, want %d", len(buf), s.Size())
		}

		rec, err := dec.Decode(buf)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got := rec["a"].AsUint64(); got != a&(1<<11-1) {
			t.Errorf("a = %d, want %d", got, a&(1<<11-1))
		}
		if got := rec["b"].AsInt64(); got != signExtend(uint64(b)&(1<<19-1), 19) {
			t.Errorf("b = %d", got)
		}
		if got := rec["c"].AsUint64(); got != c {
			t.Errorf("c = %d, want %d", got, c)
		}
	})
}

// FuzzDecoder_Arbitrary makes sure no input buffer can panic the decoder
func FuzzDecoder_Arbitrary(f *testing.F) {
	s := schema.MustCompile(`{
		"validation": {"crc32c": {"field": "crc", "range_bits": "0-39"}},
		"k": {"type": "enum", "bits": 2, "values": ["x", "y", "z"]},
		"t": {"type": "string", "max_length": 4, "charset": "utf-8"},
		"crc": {"type": "uint32"}
	}`)
	dec := NewDecoder(s, WithLogger(logging.Discard()), WithCRCVerification())

	f.Add([]byte{})
	f.Add(make([]byte, 9))
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = dec.Decode(data)
	})
}
