package varint

import (
	"encoding/binary"
	"errors"
)

// MaxLen64 is the longest encoding of a 64-bit value.
const MaxLen64 = binary.MaxVarintLen64

var (
	// ErrTruncated is returned when input ends before a terminating byte.
	ErrTruncated = errors.New("varint: truncated input")
	// ErrOverflow is returned when a value does not fit in 64 bits.
	ErrOverflow = errors.New("varint: value overflows 64 bits")
	// ErrOffset is returned when the read offset lies outside the buffer.
	ErrOffset = errors.New("varint: offset out of range")
)

// EncodeUnsigned returns the LEB128 encoding of v
func EncodeUnsigned(v uint64) []byte {
	return AppendUnsigned(make([]byte, 0, SizeUnsigned(v)), v)
}

// AppendUnsigned appends the LEB128 encoding of v to dst
func AppendUnsigned(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// DecodeUnsigned reads an unsigned value starting at buf[offset] and returns
// it with the number of bytes consumed.
func DecodeUnsigned(buf []byte, offset int) (uint64, int, error) {
	if offset < 0 || offset > len(buf) {
		return 0, 0, ErrOffset
	}
	v, n := binary.Uvarint(buf[offset:])
	switch {
	case n > 0:
		return v, n, nil
	case n == 0:
		return 0, 0, ErrTruncated
	default:
		return 0, -n, ErrOverflow
	}
}

// EncodeSigned returns the signed LEB128 encoding of v
func EncodeSigned(v int64) []byte {
	return AppendSigned(make([]byte, 0, SizeSigned(v)), v)
}

// AppendSigned appends the signed LEB128 encoding of v to dst
func AppendSigned(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// DecodeSigned reads a signed value starting at buf[offset] and returns it
// with the number of bytes consumed.
func DecodeSigned(buf []byte, offset int) (int64, int, error) {
	if offset < 0 || offset > len(buf) {
		return 0, 0, ErrOffset
	}

	var result int64
	var shift uint
	for i, b := range buf[offset:] {
		// the tenth byte carries bit 63; the rest of it must be sign extension
		if shift == 63 && b != 0x00 && b != 0x7f {
			return 0, i, ErrOverflow
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}
