package format

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

var (
	measurementEscaper = strings.NewReplacer(",", `\,`, " ", `\ `)
	tagEscaper         = strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)
	stringEscaper      = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// InfluxWriter writes InfluxDB line protocol. Enum fields become tags,
// everything else a typed field; the timestamp is in nanoseconds.
type InfluxWriter struct {
	w           io.Writer
	dec         *codec.Decoder
	measurement string
	line        strings.Builder
}

func NewInfluxWriter(w io.Writer, dec *codec.Decoder) *InfluxWriter {
	name := dec.Schema().Name
	if name == "" {
		name = "telemetry"
	}
	return &InfluxWriter{w: w, dec: dec, measurement: measurementEscaper.Replace(name)}
}

func (iw *InfluxWriter) Write(it Item) error {
	rec, err := iw.dec.Decode(it.Data)
	if err != nil {
		return err
	}
	s := iw.dec.Schema()

	l := &iw.line
	l.Reset()
	l.WriteString(iw.measurement)
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Kind != schema.Enum {
			continue
		}
		v := rec[f.Name].AsString()
		if v == "" {
			continue
		}
		l.WriteByte(',')
		l.WriteString(tagEscaper.Replace(f.Name))
		l.WriteByte('=')
		l.WriteString(tagEscaper.Replace(v))
	}

	n := 0
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Kind == schema.Enum {
			continue
		}
		v, ok := fieldValue(rec[f.Name])
		if !ok {
			continue
		}
		if n == 0 {
			l.WriteByte(' ')
		} else {
			l.WriteByte(',')
		}
		l.WriteString(tagEscaper.Replace(f.Name))
		l.WriteByte('=')
		l.WriteString(v)
		n++
	}
	// line protocol needs at least one field
	if n == 0 {
		l.WriteString(" _seq=")
		l.WriteString(strconv.FormatUint(it.Seq, 10))
		l.WriteByte('u')
	}

	if !it.Time.IsZero() {
		l.WriteByte(' ')
		l.WriteString(strconv.FormatInt(it.Time.UnixNano(), 10))
	}
	l.WriteByte('\n')
	_, err = io.WriteString(iw.w, l.String())
	return err
}

// fieldValue renders a typed line protocol field value. Non-finite floats
// have no representation and are left out.
func fieldValue(v codec.Value) (string, bool) {
	switch v.Kind() {
	case codec.IntValue:
		return strconv.FormatInt(v.AsInt64(), 10) + "i", true
	case codec.UintValue:
		return strconv.FormatUint(v.AsUint64(), 10) + "u", true
	case codec.FloatValue:
		f := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	case codec.BoolValue:
		return strconv.FormatBool(v.AsBool()), true
	case codec.StringValue, codec.BytesValue:
		return `"` + stringEscaper.Replace(v.AsString()) + `"`, true
	}
	return "", false
}

func (iw *InfluxWriter) Close() error {
	return nil
}
