package codec

import (
	"fmt"
	"hash/crc32"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Encoder turns records into fixed-size buffers for one schema
type Encoder struct {
	schema *schema.Schema
	log    logrus.FieldLogger
	crc    *schema.Field
}

// NewEncoder creates an encoder for s
func NewEncoder(s *schema.Schema, opts ...Option) *Encoder {
	o := buildOptions(opts)
	e := &Encoder{schema: s, log: o.logger}
	if s.CRC != nil {
		e.crc, _ = s.Field(s.CRC.Field)
	}
	return e
}

func (e *Encoder) Schema() *schema.Schema { return e.schema }

// Size returns the encoded record length in bytes
func (e *Encoder) Size() int { return e.schema.Size() }

// Encode packs rec into a new buffer of exactly Size() bytes
func (e *Encoder) Encode(rec Record) ([]byte, error) {
	buf := make([]byte, e.schema.Size())
	if err := e.EncodeTo(buf, rec); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeTo packs rec into the first Size() bytes of buf, overwriting them
func (e *Encoder) EncodeTo(buf []byte, rec Record) error {
	size := e.schema.Size()
	if len(buf) < size {
		return fmt.Errorf("%w: %d < %d", ErrShortBuffer, len(buf), size)
	}
	buf = buf[:size]
	for i := range buf {
		buf[i] = 0
	}

	for i := range e.schema.Fields {
		f := &e.schema.Fields[i]
		if err := checkField(e.schema, f); err != nil {
			return err
		}
		e.encodeField(buf, f, rec[f.Name])
	}

	if e.crc != nil {
		putBits(buf, e.crc, e.schema.ByteOrder, uint64(checksum(e.schema, e.crc, buf)))
	}
	return nil
}

func (e *Encoder) encodeField(buf []byte, f *schema.Field, v Value) {
	order := e.schema.ByteOrder
	switch f.Kind {
	case schema.Unsigned, schema.Signed:
		raw, ok := v.toUint()
		if !ok {
			e.anomaly(f, v, "integer coerced")
		} else if raw&^f.Mask() != 0 && !fitsSigned(f, raw) {
			e.anomaly(f, v, "integer masked to field width")
		}
		putBits(buf, f, order, raw)

	case schema.Float32:
		fv, ok := v.toFloat()
		if !ok {
			e.anomaly(f, v, "float coerced")
		}
		putBits(buf, f, order, uint64(math.Float32bits(float32(fv))))

	case schema.Float64:
		fv, ok := v.toFloat()
		if !ok {
			e.anomaly(f, v, "float coerced")
		}
		putBits(buf, f, order, math.Float64bits(fv))

	case schema.Bytes:
		var text []byte
		lossy := false
		if v.kind == BytesValue {
			text = v.b
			if len(text) > f.ByteLen() {
				text, lossy = text[:f.ByteLen()], true
			}
		} else if !v.IsNull() {
			text, lossy = encodeText(v.AsString(), f.Charset, f.ByteLen())
		}
		if lossy {
			e.anomaly(f, v, "text truncated or replaced")
		}
		copy(buf[f.Start/8:f.Start/8+f.ByteLen()], text)

	case schema.Enum:
		putBits(buf, f, order, e.enumRaw(f, v))
	}
}

func (e *Encoder) enumRaw(f *schema.Field, v Value) uint64 {
	switch v.kind {
	case NullValue:
		return 0
	case StringValue, BytesValue:
		s := v.AsString()
		if v.kind == BytesValue {
			s = string(v.b)
		}
		if raw, ok := f.Enum.Raw(s); ok {
			return raw
		}
		e.anomaly(f, v, "unknown enum value")
		return 0
	default:
		raw, _ := v.toUint()
		return raw & f.Mask()
	}
}

func (e *Encoder) anomaly(f *schema.Field, v Value, msg string) {
	e.log.WithFields(logrus.Fields{
		"field": f.Name,
		"kind":  v.kind.String(),
		"value": v.String(),
	}).Debug(msg)
}

// fitsSigned reports whether raw is a negative number that survives the mask
func fitsSigned(f *schema.Field, raw uint64) bool {
	if f.Kind != schema.Signed {
		return false
	}
	return signExtend(raw&f.Mask(), f.Bits) == int64(raw)
}

// checkField guards the compiled invariants the write paths rely on
func checkField(s *schema.Schema, f *schema.Field) error {
	switch {
	case f.Bits <= 0 || f.End-f.Start+1 != f.Bits:
		return fmt.Errorf("%w: %s spans bits %d-%d but declares %d", ErrInvalidField, f.Name, f.Start, f.End, f.Bits)
	case f.Start < 0 || f.End+1 > s.TotalBits:
		return fmt.Errorf("%w: %s ends past total_bits %d", ErrInvalidField, f.Name, s.TotalBits)
	case f.Kind == schema.Bytes && !f.Aligned():
		return fmt.Errorf("%w: byte field %s is not byte aligned", ErrInvalidField, f.Name)
	case f.Kind != schema.Bytes && f.Bits > 64:
		return fmt.Errorf("%w: %s is wider than 64 bits", ErrInvalidField, f.Name)
	case f.Kind == schema.Enum && f.Enum == nil:
		return fmt.Errorf("%w: enum %s has no value map", ErrInvalidField, f.Name)
	}
	return nil
}

// checksum computes CRC32C over the covered byte range with the CRC field's
// bytes zeroed. buf is left untouched.
func checksum(s *schema.Schema, crcField *schema.Field, buf []byte) uint32 {
	scratch := make([]byte, len(buf))
	copy(scratch, buf)
	for i := crcField.Start / 8; i <= crcField.End/8; i++ {
		scratch[i] = 0
	}
	return crc32.Checksum(scratch[s.CRC.Start/8:s.CRC.End/8+1], castagnoli)
}
