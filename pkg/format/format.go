// Package format renders encoded records in alternate output formats.
//
// Every writer except Binary decodes the record bytes first, so textual
// output always shows what the codec actually stored rather than what the
// generator asked for.
package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

// Item is one encoded record on its way to a sink
type Item struct {
	Seq  uint64
	Time time.Time
	Data []byte
}

// Writer renders items onto an underlying stream, one Write call per item so
// that a rotating file never splits a record. Close does not close the
// stream. Writers are not safe for concurrent use.
type Writer interface {
	Write(Item) error
	Close() error
}

// Format names an output format
type Format string

const (
	Binary Format = "binary"
	JSON   Format = "json"
	NDJSON Format = "ndjson"
	Influx Format = "influx"
	CBOR   Format = "cbor"
	Varint Format = "varint"
)

// Formats lists every supported format
var Formats = []Format{Binary, JSON, NDJSON, Influx, CBOR, Varint}

// ParseFormat parses a format name; empty means binary
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return Binary, nil
	}
	f := Format(strings.ToLower(name))
	switch f {
	case Binary, JSON, NDJSON, Influx, CBOR, Varint:
		return f, nil
	case "line", "lineprotocol":
		return Influx, nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Extension is the file extension used for the format
func (f Format) Extension() string {
	switch f {
	case JSON:
		return "json"
	case NDJSON:
		return "ndjson"
	case Influx:
		return "lp"
	case CBOR:
		return "cbor"
	case Varint:
		return "leb"
	default:
		return "bin"
	}
}

// NewWriter creates a writer for f. dec must match the schema the items
// were encoded with.
func NewWriter(f Format, w io.Writer, dec *codec.Decoder) (Writer, error) {
	switch f {
	case Binary, "":
		return NewBinaryWriter(w, dec.Size()), nil
	case JSON:
		return NewJSONWriter(w, dec, true), nil
	case NDJSON:
		return NewJSONWriter(w, dec, false), nil
	case Influx:
		return NewInfluxWriter(w, dec), nil
	case CBOR:
		return NewCBORWriter(w, dec)
	case Varint:
		return NewVarintWriter(w, dec), nil
	}
	return nil, fmt.Errorf("unknown output format %q", f)
}
