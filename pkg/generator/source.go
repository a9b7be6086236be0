package generator

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Source is a raw 64-bit random stream. It satisfies rand.Source.
type Source interface {
	Uint64() uint64
	Fill(dst []uint64)
}

// Backend names a Source implementation
type Backend string

const (
	BackendPCG     Backend = "pcg"
	BackendBatch   Backend = "batch"
	BackendChaCha8 Backend = "chacha8"
)

// ParseBackend parses a backend name; empty means pcg
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(name)); b {
	case "":
		return BackendPCG, nil
	case BackendPCG, BackendBatch, BackendChaCha8:
		return b, nil
	case "vector", "vectorized":
		return BackendBatch, nil
	}
	return "", fmt.Errorf("unknown random backend %q", name)
}

// NewSource returns the stream identified by (seed, stream). Equal inputs
// always yield the same values.
func NewSource(b Backend, seed, stream uint64) (Source, error) {
	switch b {
	case BackendPCG, "":
		return &pcgSource{rand.NewPCG(seed, stream)}, nil
	case BackendBatch:
		return &batchSource{inner: rand.NewPCG(seed, stream)}, nil
	case BackendChaCha8:
		var key [32]byte
		binary.LittleEndian.PutUint64(key[0:], seed)
		binary.LittleEndian.PutUint64(key[8:], stream)
		return &chachaSource{rand.NewChaCha8(key)}, nil
	}
	return nil, fmt.Errorf("unknown random backend %q", b)
}

type pcgSource struct{ *rand.PCG }

func (p *pcgSource) Fill(dst []uint64) {
	for i := range dst {
		dst[i] = p.PCG.Uint64()
	}
}

type chachaSource struct{ *rand.ChaCha8 }

func (c *chachaSource) Fill(dst []uint64) {
	for i := range dst {
		dst[i] = c.ChaCha8.Uint64()
	}
}

const batchLen = 256

// batchSource draws values in blocks of batchLen so the hot path is an
// index increment. The stream is identical to the plain PCG backend.
type batchSource struct {
	inner *rand.PCG
	buf   [batchLen]uint64
	pos   int
	ready bool
}

func (b *batchSource) refill() {
	for i := range b.buf {
		b.buf[i] = b.inner.Uint64()
	}
	b.pos = 0
	b.ready = true
}

func (b *batchSource) Uint64() uint64 {
	if !b.ready || b.pos == batchLen {
		b.refill()
	}
	v := b.buf[b.pos]
	b.pos++
	return v
}

func (b *batchSource) Fill(dst []uint64) {
	for len(dst) > 0 {
		if !b.ready || b.pos == batchLen {
			b.refill()
		}
		n := copy(dst, b.buf[b.pos:])
		b.pos += n
		dst = dst[n:]
	}
}
