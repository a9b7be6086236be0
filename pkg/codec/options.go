package codec

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
)

var (
	// ErrShortBuffer is returned when a buffer is smaller than the record size
	ErrShortBuffer = errors.New("codec: buffer shorter than record size")
	// ErrCRCMismatch is returned by Verify, and by Decode with verification on
	ErrCRCMismatch = errors.New("codec: crc32c mismatch")
	// ErrInvalidField signals a compiled field that breaks its own invariants
	ErrInvalidField = errors.New("codec: invalid compiled field")
)

type options struct {
	logger    logrus.FieldLogger
	verifyCRC bool
}

// Option configures an Encoder or Decoder
type Option func(*options)

// WithLogger sets the logger used for value anomalies
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCRCVerification makes Decode reject records whose stored CRC32C does
// not match. Has no effect on encoders or on schemas without a crc32c field.
func WithCRCVerification() Option {
	return func(o *options) {
		o.verifyCRC = true
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
