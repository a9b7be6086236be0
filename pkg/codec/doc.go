// Package codec packs telemetry records into fixed-size, bit-exact byte
// buffers and unpacks them again.
//
// A record layout comes from a compiled *schema.Schema. Every field occupies
// an inclusive bit range and the encoded record is always
// ceil(total_bits/8) bytes long, whatever the input values look like.
//
// # Bit Layout
//
// Fields whose start bit and width are both multiples of 8 are written as
// whole bytes in the schema's byte order:
//
//	little: least significant byte first
//	big:    most significant byte first
//
// Unaligned fields are written bit by bit with the same convention. In a
// little-endian schema record bit p is bit p%8 of byte p/8 (LSB0) and the
// value's least significant bit lands on the field's start bit. In a
// big-endian schema record bit p is bit 7-p%8 of byte p/8 (MSB0) and the
// value's most significant bit lands on the start bit. An aligned field
// produces the same bytes through either path.
//
// # Value Handling
//
// Encoding is permissive. Integers are masked to the field width (negative
// values go in as two's complement), floats are stored as their IEEE-754 bit
// pattern, strings are truncated or zero padded to the field length, unknown
// enum values become raw 0 and missing fields encode as 0. Anomalies are
// logged at debug level and never returned as errors.
//
// Decoding recovers signed values with the two's-complement sign test,
// strips trailing zero bytes from byte fields (falling back to a hex string
// when the bytes do not decode in the field charset) and maps unmapped enum
// values to "unknown_<raw>".
//
// # Integrity
//
// When the schema declares a crc32c field, Encode computes CRC32C
// (Castagnoli) over the covered byte range with the CRC field's own bytes
// zeroed and stores it through the normal integer path. Decoders do not check
// it unless built with WithCRCVerification; Verify checks a single buffer on
// demand.
//
// # Usage
//
//	s, err := schema.CompileFile("sensor.jsonc")
//	if err != nil {
//	    return err
//	}
//	enc := codec.NewEncoder(s)
//	buf, err := enc.Encode(codec.Record{"id": codec.Uint(7), "temp": codec.Int(-40)})
//	if err != nil {
//	    return err
//	}
//	rec, err := codec.NewDecoder(s).Decode(buf)
//
// # Thread Safety
//
// Encoder and Decoder hold no mutable state. A single instance may be shared
// by any number of goroutines, as may the schema behind it.
package codec
