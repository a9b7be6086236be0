package format

import (
	"io"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/store"
)

// BinaryWriter writes the raw record followed by a newline separator
type BinaryWriter struct {
	rw *store.RecordWriter
}

func NewBinaryWriter(w io.Writer, recordSize int) *BinaryWriter {
	return &BinaryWriter{rw: store.NewRecordWriter(w, recordSize)}
}

func (b *BinaryWriter) Write(it Item) error {
	return b.rw.Append(it.Data)
}

func (b *BinaryWriter) Close() error {
	return nil
}
