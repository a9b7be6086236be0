package format

import (
	"bytes"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

// CBORWriter writes a stream of CBOR maps, one per record, using core
// deterministic encoding
type CBORWriter struct {
	w   io.Writer
	buf bytes.Buffer
	enc *cbor.Encoder
	dec *codec.Decoder
}

func NewCBORWriter(w io.Writer, dec *codec.Decoder) (*CBORWriter, error) {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	c := &CBORWriter{w: w, dec: dec}
	c.enc = mode.NewEncoder(&c.buf)
	return c, nil
}

func (c *CBORWriter) Write(it Item) error {
	rec, err := c.dec.Decode(it.Data)
	if err != nil {
		return err
	}
	m := make(map[string]interface{}, len(rec)+2)
	for name, v := range rec {
		m[name] = v.Interface()
	}
	m["_seq"] = it.Seq
	if !it.Time.IsZero() {
		m["_time"] = it.Time.UnixNano()
	}
	c.buf.Reset()
	if err := c.enc.Encode(m); err != nil {
		return err
	}
	_, err = c.w.Write(c.buf.Bytes())
	return err
}

func (c *CBORWriter) Close() error {
	return nil
}
