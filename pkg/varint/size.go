package varint

import "math/bits"

// SizeUnsigned returns the encoded length of v in bytes
func SizeUnsigned(v uint64) int {
	if v == 0 {
		return 1
	}
	return (bits.Len64(v) + 6) / 7
}

// SizeSigned returns the encoded length of v in bytes
func SizeSigned(v int64) int {
	// magnitude bits plus one sign bit
	n := bits.Len64(uint64(v^(v>>63))) + 1
	return (n + 6) / 7
}

// Estimate compares the variable-length size of a value distribution with
// fixed-width layouts.
type Estimate struct {
	Count   int  `json:"count"`   // number of values
	Varint  int  `json:"varint"`  // total LEB128 bytes
	Fixed32 int  `json:"fixed32"` // bytes as 32-bit words
	Fixed64 int  `json:"fixed64"` // bytes as 64-bit words
	Fits32  bool `json:"fits32"`  // every value fits a 32-bit word
}

// Ratio32 is Varint/Fixed32; below 1 means LEB128 is smaller.
func (e Estimate) Ratio32() float64 {
	if e.Fixed32 == 0 {
		return 0
	}
	return float64(e.Varint) / float64(e.Fixed32)
}

// Ratio64 is Varint/Fixed64; below 1 means LEB128 is smaller.
func (e Estimate) Ratio64() float64 {
	if e.Fixed64 == 0 {
		return 0
	}
	return float64(e.Varint) / float64(e.Fixed64)
}

// Add folds another estimate into e
func (e *Estimate) Add(o Estimate) {
	if e.Count == 0 {
		*e = o
		return
	}
	if o.Count == 0 {
		return
	}
	e.Count += o.Count
	e.Varint += o.Varint
	e.Fixed32 += o.Fixed32
	e.Fixed64 += o.Fixed64
	e.Fits32 = e.Fits32 && o.Fits32
}

// EstimateUnsigned sizes a set of unsigned values
func EstimateUnsigned(values []uint64) Estimate {
	e := Estimate{Count: len(values), Fixed32: 4 * len(values), Fixed64: 8 * len(values), Fits32: true}
	for _, v := range values {
		e.Varint += SizeUnsigned(v)
		if v > 0xFFFFFFFF {
			e.Fits32 = false
		}
	}
	return e
}

// EstimateSigned sizes a set of signed values
func EstimateSigned(values []int64) Estimate {
	e := Estimate{Count: len(values), Fixed32: 4 * len(values), Fixed64: 8 * len(values), Fits32: true}
	for _, v := range values {
		e.Varint += SizeSigned(v)
		if v < -1<<31 || v > 1<<31-1 {
			e.Fits32 = false
		}
	}
	return e
}

// CompressionRatio returns the LEB128 size of values divided by their size
// at a fixed width of fixedBits (32 or 64).
func CompressionRatio(values []uint64, fixedBits int) float64 {
	e := EstimateUnsigned(values)
	if fixedBits == 32 {
		return e.Ratio32()
	}
	return e.Ratio64()
}
