package store

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
)

// StreamReader reads a stream of fixed-size records, each followed by a
// single '\n'. A stream whose size fits the record stride is read frame by
// frame; anything else is scanned separator by separator and damaged records
// are skipped.
type StreamReader struct {
	reader  *bufio.Reader
	closers []io.Closer
	decoder *codec.Decoder
	log     logrus.FieldLogger

	size    int
	frame   []byte
	pending []byte
	stats   StreamStats
	done    bool
}

// OpenStreamReader opens a record file. Compressed files are always read in
// recovery mode since their decompressed size is unknown.
func OpenStreamReader(config ReaderConfig, decoder *codec.Decoder) (*StreamReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	tag := config.Compression
	if tag == CompressionAuto {
		tag = CompressionFromPath(config.FilePath)
	}

	var (
		src    io.Reader = file
		size   int64     = -1
		closer           = []io.Closer{file}
	)
	if tag == CompressionNone {
		stat, err := file.Stat()
		if err != nil {
			file.Close()
			return nil, err
		}
		size = stat.Size()
	} else {
		zr, err := tag.NewReader(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		src = zr
		closer = append([]io.Closer{zr}, closer...)
	}

	r := NewStreamReader(src, size, decoder, config.Logger)
	r.closers = closer
	return r, nil
}

// NewStreamReader reads records from src. streamSize is the total number of
// bytes src will produce, or -1 when unknown.
func NewStreamReader(src io.Reader, streamSize int64, decoder *codec.Decoder, logger logrus.FieldLogger) *StreamReader {
	if logger == nil {
		logger = logging.Default()
	}
	r := &StreamReader{
		reader:  bufio.NewReaderSize(src, 64*1024),
		decoder: decoder,
		log:     logger,
		size:    decoder.Size(),
	}
	r.frame = make([]byte, r.size+1)

	stride := int64(r.size + 1)
	if streamSize < 0 || streamSize%stride != 0 {
		r.stats.Mode = ModeRecovery
		if streamSize >= 0 {
			r.log.WithFields(logrus.Fields{
				"bytes":  streamSize,
				"stride": stride,
			}).Warn("stream size does not match the record stride, scanning for separators")
		}
	}
	return r
}

// NextFrame returns the next record's raw bytes without the separator. The
// slice is only valid until the next call. At the end of the stream it
// returns io.EOF.
func (r *StreamReader) NextFrame() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}
	var (
		frame []byte
		err   error
	)
	if r.stats.Mode == ModeStride {
		frame, err = r.nextStride()
	} else {
		frame, err = r.nextRecovery()
	}
	if err != nil {
		r.done = true
		return nil, err
	}
	return frame, nil
}

func (r *StreamReader) nextStride() ([]byte, error) {
	n, err := io.ReadFull(r.reader, r.frame)
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if n == r.size {
			return r.frame[:r.size], nil
		}
		r.skip(int64(n), "truncated record at end of stream")
		return nil, io.EOF
	case err != nil:
		return nil, err
	}

	if r.frame[r.size] == Separator {
		return r.frame[:r.size], nil
	}

	r.log.WithField("records", r.stats.Records).Warn("record separator missing, scanning for separators")
	r.stats.Mode = ModeRecovery
	pushback := append([]byte(nil), r.frame...)
	r.reader = bufio.NewReaderSize(io.MultiReader(bytes.NewReader(pushback), r.reader), 64*1024)
	return r.nextRecovery()
}

// nextRecovery accumulates bytes until a separator lands exactly one record
// after the last good one. A separator that comes early is taken as record
// data unless the bytes after it line up as records; bytes in front of an
// over-long run are dropped.
func (r *StreamReader) nextRecovery() ([]byte, error) {
	for {
		segment, err := r.reader.ReadSlice(Separator)
		if errors.Is(err, bufio.ErrBufferFull) {
			r.pending = append(r.pending, segment...)
			r.trim()
			continue
		}

		hasSep := err == nil
		if hasSep {
			segment = segment[:len(segment)-1]
		}
		r.pending = append(r.pending, segment...)
		r.trim()

		if hasSep {
			if len(r.pending) == r.size {
				if cut := r.realign(); cut > 0 {
					r.skip(int64(cut), "garbled bytes skipped")
					r.pending = append(r.pending[:0], r.pending[cut:]...)
					r.pending = append(r.pending, Separator)
					continue
				}
				copy(r.frame, r.pending)
				r.pending = r.pending[:0]
				return r.frame[:r.size], nil
			}
			r.pending = append(r.pending, Separator)
			r.trim()
			continue
		}

		if err == io.EOF {
			if len(r.pending) == r.size {
				copy(r.frame, r.pending)
				r.pending = r.pending[:0]
				return r.frame[:r.size], nil
			}
			if len(r.pending) > 0 {
				r.skip(int64(len(r.pending)), "truncated record at end of stream")
				r.pending = r.pending[:0]
			}
			return nil, io.EOF
		}
		return nil, err
	}
}

// realign checks a record-sized run against the bytes that follow it. When
// the next separator is not one record further on but a separator byte
// inside the run starts a record that is, the bytes up to and including that
// separator are garbage. It returns how many to drop, or 0 to keep the run.
func (r *StreamReader) realign() int {
	if r.separatorAt(r.size) {
		return 0
	}
	for i := 0; i < r.size; i++ {
		if r.pending[i] != Separator {
			continue
		}
		// a record starting at i+1 ends i bytes into the unread stream
		if r.separatorAt(i) && r.separatorAt(i+r.size+1) {
			return i + 1
		}
	}
	return 0
}

// separatorAt reports whether the unread byte at off is a separator. Offsets
// past the end of the stream or the read buffer cannot be checked and count
// as a match.
func (r *StreamReader) separatorAt(off int) bool {
	buf, _ := r.reader.Peek(off + 1)
	if len(buf) > off {
		return buf[off] == Separator
	}
	return true
}

// trim keeps only the newest record-sized run of pending bytes
func (r *StreamReader) trim() {
	if len(r.pending) <= r.size {
		return
	}
	drop := len(r.pending) - r.size
	r.skip(int64(drop), "garbled bytes skipped")
	r.pending = append(r.pending[:0], r.pending[drop:]...)
}

func (r *StreamReader) skip(n int64, msg string) {
	r.stats.Skipped++
	r.stats.SkippedBytes += n
	r.log.WithFields(logrus.Fields{
		"bytes":   n,
		"records": r.stats.Records,
	}).Warn(msg)
}

// Next returns the next decodable record. Records that fail to decode are
// logged and skipped. At the end of the stream it returns io.EOF.
func (r *StreamReader) Next() (codec.Record, error) {
	for {
		frame, err := r.NextFrame()
		if err != nil {
			return nil, err
		}
		rec, err := r.decoder.Decode(frame)
		if err != nil {
			r.stats.DecodeErrors++
			r.log.WithError(err).WithField("records", r.stats.Records).Warn("skipping undecodable record")
			continue
		}
		r.stats.Records++
		return rec, nil
	}
}

// Each calls fn for every decodable record until the stream ends or fn
// returns an error
func (r *StreamReader) Each(fn func(codec.Record) error) error {
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Stats returns counters for everything read so far
func (r *StreamReader) Stats() StreamStats {
	return r.stats
}

// Mode reports the current framing mode
func (r *StreamReader) Mode() ReadMode {
	return r.stats.Mode
}

// Iterator returns a streaming iterator for records
func (r *StreamReader) Iterator() RecordIterator {
	return &streamIterator{reader: r}
}

// Close closes whatever OpenStreamReader opened
func (r *StreamReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

type streamIterator struct {
	reader *StreamReader
	record codec.Record
	err    error
}

func (it *streamIterator) Next() bool {
	it.record, it.err = it.reader.Next()
	return it.err == nil
}

func (it *streamIterator) Record() codec.Record {
	return it.record
}

func (it *streamIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *streamIterator) Close() error {
	// the reader is owned by the caller
	return nil
}
