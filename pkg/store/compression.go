package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression applied to a finished file
type CompressionTag uint8

const (
	CompressionNone CompressionTag = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
	CompressionSnappy

	// CompressionAuto is only meaningful to readers: detect from the path
	CompressionAuto CompressionTag = 255
)

var compressionExt = map[CompressionTag]string{
	CompressionGzip:   ".gz",
	CompressionZstd:   ".zst",
	CompressionLZ4:    ".lz4",
	CompressionSnappy: ".sz",
}

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	case CompressionAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseCompressionTag parses a compression tag from its string
// representation. An empty name means none.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	case "auto":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// Extension is the suffix added to compressed files, empty for none
func (tag CompressionTag) Extension() string {
	return compressionExt[tag]
}

// CompressionFromPath guesses the compression of a file by its suffix
func CompressionFromPath(path string) CompressionTag {
	ext := filepath.Ext(path)
	for tag, e := range compressionExt {
		if e == ext {
			return tag
		}
	}
	return CompressionNone
}

// NewWriter wraps w so that everything written is compressed. Closing the
// returned writer flushes it but leaves w open.
func (tag CompressionTag) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch tag {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return zw, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// NewReader wraps r with the matching decompressor
func (tag CompressionTag) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch tag {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case CompressionZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressFile writes path+ext compressed with tag and removes path
func compressFile(path string, tag CompressionTag) (string, error) {
	if tag == CompressionNone {
		return path, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	target := path + tag.Extension()
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return "", err
	}

	zw, err := tag.NewWriter(dst)
	if err != nil {
		dst.Close()
		return "", err
	}
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		return "", fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	if err := os.Remove(path); err != nil {
		return "", err
	}
	return target, nil
}
