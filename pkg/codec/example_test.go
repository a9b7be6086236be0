package codec_test

import (
	"fmt"
	"log"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

// ExampleEncoder demonstrates packing two 32-bit words
func ExampleEncoder() {
	s := schema.MustCompile(`{
		"schema_name": "pair",
		"endianness": "little",
		"total_bits": 64,
		"field1": {"type": "uint", "pos": "0-31"},
		"field2": {"type": "uint", "pos": "32-63"}
	}`)

	enc := codec.NewEncoder(s)
	buf, err := enc.Encode(codec.Record{
		"field1": codec.Uint(0x12345678),
		"field2": codec.Uint(0xABCD),
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("% X\n", buf)

	// Output:
	// 78 56 34 12 CD AB 00 00
}

// ExampleDecoder demonstrates decoding an unaligned big-endian record
func ExampleDecoder() {
	s := schema.MustCompile(`{
		"endianness": "big",
		"total_bits": 16,
		"level": {"type": "enum", "pos": "0-1", "values": ["low", "mid", "high"]},
		"temp":  {"type": "int", "pos": "2-13"},
		"ok":    {"type": "bool", "pos": "14-14"}
	}`)

	enc := codec.NewEncoder(s)
	buf, _ := enc.Encode(codec.Record{
		"level": codec.String("high"),
		"temp":  codec.Int(-40),
		"ok":    codec.Bool(true),
	})

	dec := codec.NewDecoder(s, codec.WithLogger(logging.Discard()))
	rec, err := dec.Decode(buf)
	if err != nil {
		log.Fatal(err)
	}

	for _, name := range s.Names() {
		fmt.Printf("%s=%v\n", name, rec[name])
	}

	// Output:
	// level=high
	// temp=-40
	// ok=true
}

// ExampleDecoder_Verify demonstrates opt-in integrity checking
func ExampleDecoder_Verify() {
	s := schema.MustCompile(`{
		"total_bits": 64,
		"validation": {"crc32c": {"field": "crc", "range_bits": "0-31"}},
		"value": {"type": "uint", "pos": "0-31"},
		"crc":   {"type": "uint", "pos": "32-63"}
	}`)

	buf, _ := codec.NewEncoder(s).Encode(codec.Record{"value": codec.Uint(1000)})
	dec := codec.NewDecoder(s)

	fmt.Println(dec.Verify(buf) == nil)
	buf[0] ^= 0x01
	fmt.Println(dec.Verify(buf) == nil)

	// Output:
	// true
	// false
}
