package store

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

// Separator follows every record in a binary stream
const Separator = '\n'

// WriterConfig holds configuration for the rolling writer
type WriterConfig struct {
	Dir           string         // Directory for output files
	Prefix        string         // File name prefix
	Extension     string         // File extension before compression, default "bin"
	RunID         string         // Run identifier embedded in every file name
	MaxBytes      int64          // Rotate before a write would pass this size (0 = never)
	MaxFiles      int            // Finished files kept on disk (0 = all)
	Compression   CompressionTag // Applied to every finished file
	FsyncInterval time.Duration  // How often to fsync (0 = every write)
	BufferSize    int            // Write buffer size
	Logger        logrus.FieldLogger
}

// ReaderConfig holds configuration for the stream reader
type ReaderConfig struct {
	FilePath    string
	Compression CompressionTag // CompressionAuto picks it from the file extension
	Logger      logrus.FieldLogger
}

// ReadMode tells how a stream is being framed
type ReadMode uint8

const (
	// ModeStride reads fixed record_size+1 frames
	ModeStride ReadMode = iota
	// ModeRecovery scans separator by separator, skipping damaged records
	ModeRecovery
)

func (m ReadMode) String() string {
	if m == ModeRecovery {
		return "recovery"
	}
	return "stride"
}

// StreamStats counts what a reader has seen so far
type StreamStats struct {
	Records      int64    `json:"records"`
	Skipped      int64    `json:"skipped"`
	SkippedBytes int64    `json:"skipped_bytes"`
	DecodeErrors int64    `json:"decode_errors"`
	Mode         ReadMode `json:"-"`
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() codec.Record
	Err() error
	Close() error
}

// Errors
var (
	ErrClosed     = &StoreError{"writer is closed"}
	ErrRecordSize = &StoreError{"record does not match the schema size"}
	ErrCorruption = &StoreError{"data corruption detected"}
)

// StoreError represents a record store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
