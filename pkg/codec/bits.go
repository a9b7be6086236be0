package codec

import "github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"

// putBits writes the low f.Bits bits of v into buf at the field's position
func putBits(buf []byte, f *schema.Field, order schema.ByteOrder, v uint64) {
	v &= f.Mask()
	if f.Aligned() {
		off, n := f.Start/8, f.Bits/8
		for i := 0; i < n; i++ {
			b := byte(v >> (8 * uint(i)))
			if order == schema.BigEndian {
				buf[off+n-1-i] = b
			} else {
				buf[off+i] = b
			}
		}
		return
	}

	for k := 0; k < f.Bits; k++ {
		p, mask := bitPos(f, order, k)
		if v>>uint(k)&1 == 1 {
			buf[p/8] |= mask
		} else {
			buf[p/8] &^= mask
		}
	}
}

// getBits reads the raw value of a field
func getBits(buf []byte, f *schema.Field, order schema.ByteOrder) uint64 {
	var v uint64
	if f.Aligned() {
		off, n := f.Start/8, f.Bits/8
		for i := 0; i < n; i++ {
			var b byte
			if order == schema.BigEndian {
				b = buf[off+n-1-i]
			} else {
				b = buf[off+i]
			}
			v |= uint64(b) << (8 * uint(i))
		}
		return v
	}

	for k := 0; k < f.Bits; k++ {
		p, mask := bitPos(f, order, k)
		if buf[p/8]&mask != 0 {
			v |= 1 << uint(k)
		}
	}
	return v
}

// bitPos locates value bit k of a field. Little-endian records number bits
// LSB0 from the field start; big-endian records number them MSB0 from the
// field end.
func bitPos(f *schema.Field, order schema.ByteOrder, k int) (int, byte) {
	if order == schema.BigEndian {
		p := f.End - k
		return p, 0x80 >> uint(p%8)
	}
	p := f.Start + k
	return p, 1 << uint(p%8)
}

// signExtend applies the two's-complement sign test to a raw field value
func signExtend(raw uint64, bits int) int64 {
	if bits >= 64 {
		return int64(raw)
	}
	if raw >= 1<<uint(bits-1) {
		return int64(raw) - int64(1)<<uint(bits)
	}
	return int64(raw)
}
