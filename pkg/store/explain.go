package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

// ExplainOptions configures the explain operation
type ExplainOptions struct {
	WithSamples int
	Compression CompressionTag
}

// ExplainResult describes a record file
type ExplainResult struct {
	File        string         `json:"file"`
	SizeBytes   int64          `json:"size_bytes"`
	Compression string         `json:"compression"`
	RecordSize  int            `json:"record_size"`
	Mode        string         `json:"mode"`
	Stats       StreamStats    `json:"stats"`
	Samples     []codec.Record `json:"samples,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// Explain reads a whole record file and reports what it found
func Explain(ctx context.Context, path string, decoder *codec.Decoder, opts ExplainOptions) (*ExplainResult, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	tag := opts.Compression
	if tag == CompressionNone {
		tag = CompressionAuto
	}
	reader, err := OpenStreamReader(ReaderConfig{FilePath: path, Compression: tag}, decoder)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	res := &ExplainResult{
		File:        path,
		SizeBytes:   stat.Size(),
		Compression: CompressionFromPath(path).String(),
		RecordSize:  decoder.Size(),
	}
	if tag != CompressionAuto {
		res.Compression = tag.String()
	}

	for {
		if res.Stats.Records%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		res.Stats = reader.Stats()
		if len(res.Samples) < opts.WithSamples {
			res.Samples = append(res.Samples, rec)
		}
	}

	res.Stats = reader.Stats()
	res.Mode = reader.Mode().String()
	if res.Stats.Skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d damaged regions skipped (%d bytes)", res.Stats.Skipped, res.Stats.SkippedBytes))
	}
	if res.Stats.DecodeErrors > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d records failed to decode", res.Stats.DecodeErrors))
	}
	return res, nil
}
