package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
)

// RollingWriter appends to a sequence of files, rotating by size and
// compressing every file it finishes
type RollingWriter struct {
	file       *os.File
	writer     *bufio.Writer
	fsyncTimer *time.Timer
	config     WriterConfig
	log        logrus.FieldLogger
	mutex      sync.Mutex

	seq      int
	offset   int64    // size of the active file
	finished []string // finished files, oldest first
	closed   bool
}

// NewRollingWriter creates the output directory and opens the first file
func NewRollingWriter(config WriterConfig) (*RollingWriter, error) {
	if config.Extension == "" {
		config.Extension = "bin"
	}
	if config.Prefix == "" {
		config.Prefix = "telemetry"
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 64 * 1024
	}
	if config.Compression == CompressionAuto {
		return nil, fmt.Errorf("writer compression must be explicit")
	}
	if err := os.MkdirAll(config.Dir, 0750); err != nil {
		return nil, err
	}

	w := &RollingWriter{config: config, log: config.Logger}
	if w.log == nil {
		w.log = logging.Default()
	}
	if err := w.open(); err != nil {
		return nil, err
	}

	// Set up fsync timer if interval is configured
	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			if !w.closed {
				if err := w.sync(); err != nil {
					w.log.WithError(err).Warn("periodic fsync failed")
				}
			}
		})
	}

	return w, nil
}

func (w *RollingWriter) fileName(seq int) string {
	name := fmt.Sprintf("%s-%05d.%s", w.config.Prefix, seq, w.config.Extension)
	if w.config.RunID != "" {
		name = fmt.Sprintf("%s-%s-%05d.%s", w.config.Prefix, w.config.RunID, seq, w.config.Extension)
	}
	return filepath.Join(w.config.Dir, name)
}

func (w *RollingWriter) open() error {
	file, err := os.OpenFile(w.fileName(w.seq), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	w.file = file
	w.writer = bufio.NewWriterSize(file, w.config.BufferSize)
	w.offset = 0
	return nil
}

// Write appends p to the active file. p is never split across files: when it
// would push a non-empty file past MaxBytes the file is rotated first.
func (w *RollingWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	if w.config.MaxBytes > 0 && w.offset > 0 && w.offset+int64(len(p)) > w.config.MaxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.writer.Write(p)
	w.offset += int64(n)
	if err != nil {
		return n, err
	}

	// Sync immediately if no fsync interval configured
	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return n, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return n, nil
}

// Rotate finishes the active file and starts the next one
func (w *RollingWriter) Rotate() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.rotate()
}

func (w *RollingWriter) rotate() error {
	if err := w.finish(); err != nil {
		return err
	}
	w.seq++
	return w.open()
}

// finish syncs, closes and compresses the active file, then applies retention
func (w *RollingWriter) finish() error {
	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}

	path, err := compressFile(w.file.Name(), w.config.Compression)
	if err != nil {
		return err
	}
	w.finished = append(w.finished, path)
	w.log.WithFields(logrus.Fields{
		"file":        path,
		"bytes":       w.offset,
		"compression": w.config.Compression.String(),
	}).Debug("output file finished")

	if w.config.MaxFiles > 0 {
		for len(w.finished) > w.config.MaxFiles {
			old := w.finished[0]
			w.finished = w.finished[1:]
			if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
				w.log.WithError(err).WithField("file", old).Warn("failed to remove old output file")
			}
		}
	}
	return nil
}

// Sync forces a fsync to disk
func (w *RollingWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sync()
}

func (w *RollingWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close finishes the active file. It is safe to call more than once.
func (w *RollingWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}
	return w.finish()
}

// Size returns the current size of the active file
func (w *RollingWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the active file path
func (w *RollingWriter) Path() string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.file.Name()
}

// Files lists the finished files still on disk, oldest first
func (w *RollingWriter) Files() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return append([]string(nil), w.finished...)
}

// RecordWriter frames fixed-size records as record + '\n'
type RecordWriter struct {
	mu      sync.Mutex
	w       io.Writer
	size    int
	scratch []byte
	count   int64
}

// NewRecordWriter frames records of recordSize bytes onto w
func NewRecordWriter(w io.Writer, recordSize int) *RecordWriter {
	return &RecordWriter{w: w, size: recordSize, scratch: make([]byte, 0, recordSize+1)}
}

// Append writes one record and its separator in a single Write call
func (rw *RecordWriter) Append(record []byte) error {
	if len(record) != rw.size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrRecordSize, len(record), rw.size)
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.scratch = append(rw.scratch[:0], record...)
	rw.scratch = append(rw.scratch, Separator)
	if _, err := rw.w.Write(rw.scratch); err != nil {
		return err
	}
	rw.count++
	return nil
}

// Count returns the number of records appended
func (rw *RecordWriter) Count() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.count
}
