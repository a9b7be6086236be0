package format

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

// JSONWriter writes one object per record with fields in bit order. With
// indent set objects are pretty printed and separated by blank lines,
// otherwise the output is NDJSON.
type JSONWriter struct {
	w      io.Writer
	dec    *codec.Decoder
	indent bool
	buf    bytes.Buffer
	pretty bytes.Buffer
}

func NewJSONWriter(w io.Writer, dec *codec.Decoder, indent bool) *JSONWriter {
	return &JSONWriter{w: w, dec: dec, indent: indent}
}

func (j *JSONWriter) Write(it Item) error {
	rec, err := j.dec.Decode(it.Data)
	if err != nil {
		return err
	}

	j.buf.Reset()
	if err := writeObject(&j.buf, it, rec, j.dec.Schema().Names()); err != nil {
		return err
	}

	out := &j.buf
	if j.indent {
		j.pretty.Reset()
		if err := json.Indent(&j.pretty, j.buf.Bytes(), "", "  "); err != nil {
			return err
		}
		out = &j.pretty
	}
	out.WriteByte('\n')
	_, err = j.w.Write(out.Bytes())
	return err
}

func (j *JSONWriter) Close() error {
	return nil
}

// writeObject renders {"_seq":..,"_time":..,<fields in order>}
func writeObject(buf *bytes.Buffer, it Item, rec codec.Record, names []string) error {
	buf.WriteString(`{"_seq":`)
	buf.WriteString(codec.Uint(it.Seq).AsString())
	if !it.Time.IsZero() {
		buf.WriteString(`,"_time":"`)
		buf.WriteString(it.Time.UTC().Format(time.RFC3339Nano))
		buf.WriteByte('"')
	}
	for _, name := range names {
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(rec[name])
		if err != nil {
			return err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}
