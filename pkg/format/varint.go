package format

import (
	"fmt"
	"io"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/varint"
)

// VarintWriter writes each record as a length-prefixed LEB128 frame:
// sequence, field count, then every field in bit order. Integers are
// varints, floats 8 bytes, text and enum values (including integer enums)
// length-prefixed strings.
type VarintWriter struct {
	w   io.Writer
	dec *codec.Decoder
	enc *varint.Encoder
	out *varint.Encoder
}

func NewVarintWriter(w io.Writer, dec *codec.Decoder) *VarintWriter {
	return &VarintWriter{
		w:   w,
		dec: dec,
		enc: varint.NewEncoder(dec.Size() * 2),
		out: varint.NewEncoder(dec.Size()*2 + varint.MaxLen64),
	}
}

func (vw *VarintWriter) Write(it Item) error {
	rec, err := vw.dec.Decode(it.Data)
	if err != nil {
		return err
	}
	s := vw.dec.Schema()

	e := vw.enc
	e.Reset()
	e.WriteUnsigned(it.Seq)
	e.WriteUnsigned(uint64(len(s.Fields)))
	for i := range s.Fields {
		f := &s.Fields[i]
		v := rec[f.Name]
		switch {
		case v.Kind() == codec.BoolValue:
			e.WriteBool(v.AsBool())
		case f.Kind == schema.Unsigned:
			e.WriteUnsigned(v.AsUint64())
		case f.Kind == schema.Signed:
			e.WriteSigned(v.AsInt64())
		case f.Kind == schema.Float32 || f.Kind == schema.Float64:
			e.WriteFloat64(v.AsFloat64())
		default:
			e.WriteString(v.AsString())
		}
	}

	vw.out.Reset()
	vw.out.WriteBytes(e.Bytes())
	_, err = vw.w.Write(vw.out.Bytes())
	return err
}

func (vw *VarintWriter) Close() error {
	return nil
}

// ReadVarintFrame reads one frame written by VarintWriter and returns the
// sequence and the field values in bit order, as plain Go values
func ReadVarintFrame(r io.ByteReader, s *schema.Schema) (uint64, []interface{}, error) {
	length, err := readUvarint(r)
	if err != nil {
		return 0, nil, err
	}
	frame := make([]byte, length)
	for i := range frame {
		if frame[i], err = r.ReadByte(); err != nil {
			return 0, nil, io.ErrUnexpectedEOF
		}
	}

	d := varint.NewDecoder(frame)
	seq, err := d.ReadUnsigned()
	if err != nil {
		return 0, nil, err
	}
	count, err := d.ReadUnsigned()
	if err != nil {
		return 0, nil, err
	}
	if count != uint64(len(s.Fields)) {
		return 0, nil, fmt.Errorf("varint frame has %d fields, schema has %d", count, len(s.Fields))
	}

	values := make([]interface{}, 0, count)
	for i := range s.Fields {
		f := &s.Fields[i]
		var v interface{}
		switch {
		case f.Bits == 1 && (f.Type == "bool" || f.Type == "boolean"):
			v, err = d.ReadBool()
		case f.Kind == schema.Unsigned:
			v, err = d.ReadUnsigned()
		case f.Kind == schema.Signed:
			v, err = d.ReadSigned()
		case f.Kind == schema.Float32 || f.Kind == schema.Float64:
			v, err = d.ReadFloat64()
		default:
			v, err = d.ReadString()
		}
		if err != nil {
			return 0, nil, err
		}
		values = append(values, v)
	}
	return seq, values, nil
}

func readUvarint(r io.ByteReader) (uint64, error) {
	var buf []byte
	for i := 0; i < varint.MaxLen64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i == 0 {
				return 0, io.EOF
			}
			return 0, io.ErrUnexpectedEOF
		}
		buf = append(buf, b)
		if b < 0x80 {
			v, _, err := varint.DecodeUnsigned(buf, 0)
			return v, err
		}
	}
	return 0, varint.ErrOverflow
}
