// Package schema compiles declarative telemetry layouts into immutable
// field tables used by the codec.
//
// # Source Format
//
// A schema is a JSON object (comments and trailing commas are accepted).
// Reserved keys describe the record; every other key declares a field:
//
//	{
//	  "schema_name": "engine",
//	  "endianness": "little",
//	  "total_bits": 128,
//	  "validation": {"crc32c": {"field": "crc", "range_bits": "0-95"}},
//	  "rpm":    {"type": "uint",  "bits": 16, "pos": "0-15", "desc": "shaft speed"},
//	  "temp":   {"type": "int",   "pos": "16-27"},
//	  "state":  {"type": "enum",  "pos": "28-29", "values": ["idle", "run", "fault"]},
//	  "ok":     {"type": "bool",  "pos": "30-30"},
//	  "tag":    {"type": "string", "max_length": 4, "pos": "32-63"},
//	  "load":   {"type": "float", "pos": "64-95"},
//	  "crc":    {"type": "uint",  "pos": "96-127"}
//	}
//
// Positions are inclusive "start-end" bit offsets from the start of the
// record. A field without "pos" is placed directly after the previously
// declared field, using its derived width: 1 bit for booleans, 32 bits for
// plain integers and timestamps, 8 × max_length for strings and the minimal
// index width for enums.
//
// # Guarantees
//
// Compile rejects overlapping fields, fields past total_bits, malformed
// positions, empty enums, unsupported types and misplaced CRC fields with a
// *Error naming the fields involved. A compiled *Schema is never modified
// afterwards and may be shared freely between goroutines.
package schema
