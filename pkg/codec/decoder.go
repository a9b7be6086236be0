package codec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

// Decoder turns fixed-size buffers back into records
type Decoder struct {
	schema *schema.Schema
	log    logrus.FieldLogger
	verify bool
	crc    *schema.Field
}

// NewDecoder creates a decoder for s
func NewDecoder(s *schema.Schema, opts ...Option) *Decoder {
	o := buildOptions(opts)
	d := &Decoder{schema: s, log: o.logger, verify: o.verifyCRC}
	if s.CRC != nil {
		d.crc, _ = s.Field(s.CRC.Field)
	}
	return d
}

func (d *Decoder) Schema() *schema.Schema { return d.schema }

// Size returns the encoded record length in bytes
func (d *Decoder) Size() int { return d.schema.Size() }

// Decode unpacks one record. Bytes beyond Size() are ignored.
func (d *Decoder) Decode(buf []byte) (Record, error) {
	size := d.schema.Size()
	if len(buf) < size {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortBuffer, len(buf), size)
	}
	buf = buf[:size]

	if d.verify {
		if err := d.Verify(buf); err != nil {
			return nil, err
		}
	}

	rec := make(Record, len(d.schema.Fields))
	for i := range d.schema.Fields {
		f := &d.schema.Fields[i]
		if err := checkField(d.schema, f); err != nil {
			return nil, err
		}
		rec[f.Name] = d.decodeField(buf, f)
	}
	return rec, nil
}

// Verify recomputes the CRC32C of buf and compares it with the stored one.
// Schemas without a crc32c field always verify.
func (d *Decoder) Verify(buf []byte) error {
	if d.crc == nil {
		return nil
	}
	size := d.schema.Size()
	if len(buf) < size {
		return fmt.Errorf("%w: %d < %d", ErrShortBuffer, len(buf), size)
	}
	buf = buf[:size]
	stored := uint32(getBits(buf, d.crc, d.schema.ByteOrder))
	computed := checksum(d.schema, d.crc, buf)
	if stored != computed {
		return fmt.Errorf("%w: stored %08x, computed %08x", ErrCRCMismatch, stored, computed)
	}
	return nil
}

func (d *Decoder) decodeField(buf []byte, f *schema.Field) Value {
	order := d.schema.ByteOrder
	switch f.Kind {
	case schema.Signed:
		return Int(signExtend(getBits(buf, f, order), f.Bits))

	case schema.Float32:
		return Float(float64(math.Float32frombits(uint32(getBits(buf, f, order)))))

	case schema.Float64:
		return Float(math.Float64frombits(getBits(buf, f, order)))

	case schema.Bytes:
		off := f.Start / 8
		s, ok := decodeText(buf[off:off+f.ByteLen()], f.Charset)
		if !ok {
			d.log.WithField("field", f.Name).Debug("byte field is not valid text, returning hex")
		}
		return String(s)

	case schema.Enum:
		raw := getBits(buf, f, order)
		if f.Enum.Kind == schema.IntEnum {
			if v, ok := f.Enum.IntAt(raw); ok {
				return Int(v)
			}
		} else if v, ok := f.Enum.StringAt(raw); ok {
			return String(v)
		}
		d.log.WithFields(logrus.Fields{"field": f.Name, "raw": raw}).Debug("unmapped enum value")
		return String("unknown_" + strconv.FormatUint(raw, 10))
	}

	raw := getBits(buf, f, order)
	if isBoolField(f) {
		return Bool(raw != 0)
	}
	return Uint(raw)
}

func isBoolField(f *schema.Field) bool {
	return f.Bits == 1 && (f.Type == "bool" || f.Type == "boolean")
}
