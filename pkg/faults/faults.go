// Package faults perturbs generated records before they are encoded, so
// that the codec's masking and defaulting paths get exercised.
package faults

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

// Kind names one way of corrupting a field value
type Kind string

const (
	Overflow       Kind = "overflow"        // value wider than the field
	Negative       Kind = "negative"        // negative value, also into unsigned fields
	UnknownEnum    Kind = "unknown_enum"    // enum value outside the declared list
	OverlongString Kind = "overlong_string" // text longer than the field
	NaN            Kind = "nan"             // NaN or infinity into float fields
	DropField      Kind = "drop_field"      // field missing from the record
	WrongType      Kind = "wrong_type"      // text where a number belongs and the reverse
)

// AllKinds lists every fault in a stable order
var AllKinds = []Kind{Overflow, Negative, UnknownEnum, OverlongString, NaN, DropField, WrongType}

// ParseKinds validates fault names. An empty list means all kinds.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return AllKinds, nil
	}
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		k := Kind(strings.ToLower(strings.TrimSpace(name)))
		if !k.valid() {
			return nil, fmt.Errorf("unknown fault kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (k Kind) valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// applies reports whether k can corrupt a field of the given kind
func (k Kind) applies(f *schema.Field) bool {
	switch k {
	case Overflow, Negative:
		return f.Kind == schema.Unsigned || f.Kind == schema.Signed || f.Kind == schema.Enum
	case UnknownEnum:
		return f.Kind == schema.Enum
	case OverlongString:
		return f.Kind == schema.Bytes
	case NaN:
		return f.Kind == schema.Float32 || f.Kind == schema.Float64
	case DropField, WrongType:
		return true
	}
	return false
}

// Injector corrupts record fields with a fixed probability
type Injector struct {
	schema      *schema.Schema
	probability float64
	kinds       []Kind
	skip        map[string]bool
}

// New creates an injector. probability is per field, in [0, 1].
func New(s *schema.Schema, probability float64, kinds []Kind) (*Injector, error) {
	if probability < 0 || probability > 1 || math.IsNaN(probability) {
		return nil, fmt.Errorf("fault probability %v is outside [0, 1]", probability)
	}
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	for _, k := range kinds {
		if !k.valid() {
			return nil, fmt.Errorf("unknown fault kind %q", k)
		}
	}
	return &Injector{schema: s, probability: probability, kinds: kinds, skip: map[string]bool{}}, nil
}

// Protect exempts fields from injection, e.g. the sequence number
func (in *Injector) Protect(fields ...string) {
	for _, f := range fields {
		in.skip[f] = true
	}
}

// Apply corrupts rec in place and returns the number of faults injected.
// Injector is safe for concurrent use as long as each goroutine passes its
// own rng.
func (in *Injector) Apply(rng *rand.Rand, rec codec.Record) int {
	if in.probability == 0 {
		return 0
	}

	applied := 0
	candidates := make([]Kind, 0, len(in.kinds))
	for i := range in.schema.Fields {
		f := &in.schema.Fields[i]
		if in.skip[f.Name] || rng.Float64() >= in.probability {
			continue
		}

		candidates = candidates[:0]
		for _, k := range in.kinds {
			if k.applies(f) {
				candidates = append(candidates, k)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		inject(rng, f, candidates[rng.IntN(len(candidates))], rec)
		applied++
	}
	return applied
}

func inject(rng *rand.Rand, f *schema.Field, k Kind, rec codec.Record) {
	switch k {
	case Overflow:
		if f.Bits >= 64 {
			rec[f.Name] = codec.Float(math.MaxFloat64)
		} else {
			rec[f.Name] = codec.Uint(f.Mask() + 1 + rng.Uint64N(1<<20))
		}
	case Negative:
		rec[f.Name] = codec.Int(-1 - rng.Int64N(1<<20))
	case UnknownEnum:
		rec[f.Name] = codec.String(fmt.Sprintf("UNKNOWN_%d", rng.IntN(1000)))
	case OverlongString:
		rec[f.Name] = codec.String(strings.Repeat("X", f.ByteLen()*2+1+rng.IntN(8)))
	case NaN:
		switch rng.IntN(3) {
		case 0:
			rec[f.Name] = codec.Float(math.NaN())
		case 1:
			rec[f.Name] = codec.Float(math.Inf(1))
		default:
			rec[f.Name] = codec.Float(math.Inf(-1))
		}
	case DropField:
		delete(rec, f.Name)
	case WrongType:
		if f.Kind == schema.Bytes {
			rec[f.Name] = codec.Float(rng.NormFloat64())
		} else {
			rec[f.Name] = codec.String("not-a-" + f.Kind.String())
		}
	}
}
