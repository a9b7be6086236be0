package varint

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder appends primitives to a growing buffer
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with room for sizeHint bytes
func NewEncoder(sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

// WriteUnsigned appends an unsigned varint
func (e *Encoder) WriteUnsigned(v uint64) {
	e.buf = AppendUnsigned(e.buf, v)
}

// WriteSigned appends a signed varint
func (e *Encoder) WriteSigned(v int64) {
	e.buf = AppendSigned(e.buf, v)
}

// WriteBytes appends a length-prefixed byte slice
func (e *Encoder) WriteBytes(p []byte) {
	e.WriteUnsigned(uint64(len(p)))
	e.buf = append(e.buf, p...)
}

// WriteString appends a length-prefixed string
func (e *Encoder) WriteString(s string) {
	e.WriteUnsigned(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteFloat64 appends the 8-byte little-endian IEEE-754 pattern of f
func (e *Encoder) WriteFloat64(f float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(f))
}

// WriteBool appends a single 0 or 1 byte
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

// WriteUnsignedBatch appends a count prefix followed by every value
func (e *Encoder) WriteUnsignedBatch(values []uint64) {
	e.WriteUnsigned(uint64(len(values)))
	for _, v := range values {
		e.WriteUnsigned(v)
	}
}

// WriteSignedBatch appends a count prefix followed by every value
func (e *Encoder) WriteSignedBatch(values []int64) {
	e.WriteUnsigned(uint64(len(values)))
	for _, v := range values {
		e.WriteSigned(v)
	}
}

// Bytes returns the encoded buffer. It aliases the encoder's storage until
// the next write or Reset.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset empties the encoder, keeping its capacity
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Decoder reads primitives from a buffer, advancing a cursor
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder creates a decoder positioned at the start of buf
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns the cursor position
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unread bytes
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// ReadUnsigned reads an unsigned varint
func (d *Decoder) ReadUnsigned() (uint64, error) {
	v, n, err := DecodeUnsigned(d.buf, d.off)
	if err != nil {
		return 0, fmt.Errorf("unsigned at offset %d: %w", d.off, err)
	}
	d.off += n
	return v, nil
}

// ReadSigned reads a signed varint
func (d *Decoder) ReadSigned() (int64, error) {
	v, n, err := DecodeSigned(d.buf, d.off)
	if err != nil {
		return 0, fmt.Errorf("signed at offset %d: %w", d.off, err)
	}
	d.off += n
	return v, nil
}

// ReadBytes reads a length-prefixed byte slice. The result aliases the
// decoder's buffer.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	p := d.buf[d.off : d.off+n]
	d.off += n
	return p, nil
}

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	p, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadFloat64 reads an 8-byte little-endian double
func (d *Decoder) ReadFloat64() (float64, error) {
	if d.Remaining() < 8 {
		return 0, fmt.Errorf("float64 at offset %d: %w", d.off, ErrTruncated)
	}
	f := math.Float64frombits(binary.LittleEndian.Uint64(d.buf[d.off:]))
	d.off += 8
	return f, nil
}

// ReadBool reads a single byte; any non-zero value is true
func (d *Decoder) ReadBool() (bool, error) {
	if d.Remaining() < 1 {
		return false, fmt.Errorf("bool at offset %d: %w", d.off, ErrTruncated)
	}
	b := d.buf[d.off]
	d.off++
	return b != 0, nil
}

// ReadUnsignedBatch reads a count prefix and that many unsigned values
func (d *Decoder) ReadUnsignedBatch() ([]uint64, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	values := make([]uint64, count)
	for i := range values {
		if values[i], err = d.ReadUnsigned(); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// ReadSignedBatch reads a count prefix and that many signed values
func (d *Decoder) ReadSignedBatch() ([]int64, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	values := make([]int64, count)
	for i := range values {
		if values[i], err = d.ReadSigned(); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// readLength reads a byte-length prefix and checks it against the buffer.
func (d *Decoder) readLength() (int, error) {
	start := d.off
	n, err := d.ReadUnsigned()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.Remaining()) {
		d.off = start
		return 0, fmt.Errorf("length %d at offset %d exceeds %d remaining bytes: %w",
			n, start, d.Remaining(), ErrTruncated)
	}
	return int(n), nil
}

// readCount reads a batch count. Every value takes at least one byte, so a
// count larger than the remaining input cannot be valid.
func (d *Decoder) readCount() (int, error) {
	return d.readLength()
}
