package generator

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/store"
)

// Sink receives encoded batches. WriteBatch is called from several
// workers at once; a batch must be stored contiguously.
type Sink interface {
	WriteBatch(items []format.Item) error
	Close() error
}

// FileSink renders batches with a format writer onto rolling files
type FileSink struct {
	mu     sync.Mutex
	out    *store.RollingWriter
	writer format.Writer
	closed bool
}

// NewFileSink opens rolling output files for the given format. The file
// extension follows the format unless cfg sets one.
func NewFileSink(cfg store.WriterConfig, f format.Format, dec *codec.Decoder) (*FileSink, error) {
	if cfg.Extension == "" {
		cfg.Extension = f.Extension()
	}
	out, err := store.NewRollingWriter(cfg)
	if err != nil {
		return nil, err
	}
	w, err := format.NewWriter(f, out, dec)
	if err != nil {
		out.Close()
		return nil, err
	}
	return &FileSink{out: out, writer: w}, nil
}

func (s *FileSink) WriteBatch(items []format.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	for _, it := range items {
		if err := s.writer.Write(it); err != nil {
			return err
		}
	}
	return nil
}

// Files lists the output files written so far
func (s *FileSink) Files() []string {
	return s.out.Files()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.writer.Close(), s.out.Close())
}

// DiscardSink drops every batch and only counts records
type DiscardSink struct {
	records atomic.Int64
	bytes   atomic.Int64
}

func (d *DiscardSink) WriteBatch(items []format.Item) error {
	var n int
	for _, it := range items {
		n += len(it.Data)
	}
	d.records.Add(int64(len(items)))
	d.bytes.Add(int64(n))
	return nil
}

func (d *DiscardSink) Records() int64 { return d.records.Load() }
func (d *DiscardSink) Bytes() int64   { return d.bytes.Load() }

func (d *DiscardSink) Close() error { return nil }
