package generator

import (
	"math/rand/v2"
	"time"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

// Populator fills records with plausible random values for a schema.
// It holds no mutable state and may be shared between workers.
type Populator struct {
	schema   *schema.Schema
	seqField string
	tsField  string
	crcField string
}

// NewPopulator creates a populator. seqField and tsField, when they name
// schema fields, receive the record sequence and its unix timestamp
// instead of random data.
func NewPopulator(s *schema.Schema, seqField, tsField string) *Populator {
	p := &Populator{schema: s}
	if _, ok := s.Field(seqField); ok {
		p.seqField = seqField
	}
	if _, ok := s.Field(tsField); ok {
		p.tsField = tsField
	}
	if s.CRC != nil {
		p.crcField = s.CRC.Field
	}
	return p
}

// Fill overwrites rec with a value for every field. The CRC field is left
// out since the encoder computes it.
func (p *Populator) Fill(rng *rand.Rand, seq uint64, ts time.Time, rec codec.Record) {
	for i := range p.schema.Fields {
		f := &p.schema.Fields[i]
		switch f.Name {
		case p.crcField:
			continue
		case p.seqField:
			rec[f.Name] = codec.Uint(seq)
			continue
		case p.tsField:
			rec[f.Name] = timestamp(f, ts)
			continue
		}
		rec[f.Name] = randomValue(rng, f)
	}
}

func timestamp(f *schema.Field, ts time.Time) codec.Value {
	if f.Kind == schema.Float64 || f.Kind == schema.Float32 {
		return codec.Float(float64(ts.UnixNano()) / 1e9)
	}
	if f.Bits >= 64 {
		return codec.Int(ts.UnixNano())
	}
	return codec.Int(ts.Unix())
}

func randomValue(rng *rand.Rand, f *schema.Field) codec.Value {
	switch f.Kind {
	case schema.Unsigned:
		if f.Bits == 1 && (f.Type == "bool" || f.Type == "boolean") {
			return codec.Bool(rng.IntN(2) == 1)
		}
		return codec.Uint(rng.Uint64() & f.Mask())
	case schema.Signed:
		shift := uint(64 - f.Bits)
		return codec.Int(int64(rng.Uint64()<<shift) >> shift)
	case schema.Float32:
		return codec.Float(float64(float32(rng.NormFloat64() * 100)))
	case schema.Float64:
		return codec.Float(rng.NormFloat64() * 1000)
	case schema.Bytes:
		return codec.String(printable(rng, rng.IntN(f.ByteLen()+1)))
	case schema.Enum:
		return enumValue(rng, f.Enum)
	}
	return codec.Value{}
}

func enumValue(rng *rand.Rand, m *schema.EnumMap) codec.Value {
	i := rng.IntN(m.Cardinality())
	if m.Kind == schema.IntEnum {
		return codec.Int(m.Ints[i])
	}
	return codec.String(m.Strings[i])
}

// printable returns n characters from the printable ASCII range
func printable(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(0x21 + rng.IntN(0x7e-0x21+1))
	}
	return string(b)
}
