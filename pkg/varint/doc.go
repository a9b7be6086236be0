// Package varint implements LEB128 variable-length integers, the compact
// alternative to fixed-width telemetry records.
//
// # Encoding
//
// Unsigned values are split into 7-bit groups, least significant group first.
// Every byte except the last has the continuation bit (0x80) set:
//
//	300 = 0b1_0010_1100  ->  [0xAC 0x02]
//
// Signed values use the same layout over the two's complement bit pattern.
// Encoding stops once the remaining value is all sign bits and bit 6 of the
// final byte agrees with the sign, so a decoder sign-extends from that bit:
//
//	-2   ->  [0x7E]
//	-129 ->  [0xFF 0x7E]
//
// # Limits
//
// A 64-bit value needs at most MaxLen64 (10) bytes. Decoders refuse to shift
// past bit 63 and return ErrOverflow instead of scanning corrupted input.
//
// # Streams
//
// Encoder and Decoder compose primitives over a single cursor: integers,
// length-prefixed strings and byte slices, 8-byte doubles, 1-byte booleans
// and count-prefixed batches.
//
// Encoding functions and the size helpers are pure and safe for concurrent
// use. Encoder and Decoder values are not; give each goroutine its own.
package varint
