// Package storage keeps generated records in a pebble database, keyed by
// run and sequence so a run can be replayed in order.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
)

const (
	recordPrefix = 'r'
	metaPrefix   = 'm'

	idLen = 20 // encoded ksuid

	// record key: prefix, run id, big-endian sequence
	keyLen = 1 + idLen + 8
)

var (
	ErrNotFound = errors.New("storage: record not found")
	ErrBadKey   = errors.New("storage: malformed key")
)

// RunMeta describes one generator run
type RunMeta struct {
	ID         ksuid.KSUID `json:"id"`
	Schema     string      `json:"schema"`
	RecordSize int         `json:"record_size"`
	Created    time.Time   `json:"created"`
}

// RunInfo is RunMeta plus what the run has stored
type RunInfo struct {
	RunMeta
	Records  int64  `json:"records"`
	FirstSeq uint64 `json:"first_seq"`
	LastSeq  uint64 `json:"last_seq"`
}

// RecordStore is a pebble-backed record archive. It is safe for concurrent
// use.
type RecordStore struct {
	db  *pebble.DB
	log logrus.FieldLogger
}

// Open opens or creates the store at path
func Open(path string, logger logrus.FieldLogger) (*RecordStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open record store %s: %w", path, err)
	}
	return &RecordStore{db: db, log: logger.WithField("store", path)}, nil
}

func recordKey(run ksuid.KSUID, seq uint64) []byte {
	key := make([]byte, keyLen)
	key[0] = recordPrefix
	copy(key[1:], run.Bytes())
	binary.BigEndian.PutUint64(key[1+idLen:], seq)
	return key
}

func parseRecordKey(key []byte) (ksuid.KSUID, uint64, error) {
	if len(key) != keyLen || key[0] != recordPrefix {
		return ksuid.Nil, 0, ErrBadKey
	}
	run, err := ksuid.FromBytes(key[1 : 1+idLen])
	if err != nil {
		return ksuid.Nil, 0, err
	}
	return run, binary.BigEndian.Uint64(key[1+idLen:]), nil
}

func metaKey(run ksuid.KSUID) []byte {
	return append([]byte{metaPrefix}, run.Bytes()...)
}

// BeginRun records metadata for a new run and returns its id
func (s *RecordStore) BeginRun(schemaName string, recordSize int) (RunMeta, error) {
	id := ksuid.New()
	meta := RunMeta{ID: id, Schema: schemaName, RecordSize: recordSize, Created: id.Time().UTC()}
	data, err := json.Marshal(meta)
	if err != nil {
		return RunMeta{}, err
	}
	if err := s.db.Set(metaKey(id), data, pebble.Sync); err != nil {
		return RunMeta{}, err
	}
	s.log.WithField("run", id.String()).Info("Run started")
	return meta, nil
}

// Meta returns the metadata of a run
func (s *RecordStore) Meta(run ksuid.KSUID) (RunMeta, error) {
	data, closer, err := s.db.Get(metaKey(run))
	if errors.Is(err, pebble.ErrNotFound) {
		return RunMeta{}, fmt.Errorf("run %s: %w", run, ErrNotFound)
	}
	if err != nil {
		return RunMeta{}, err
	}
	defer closer.Close()

	var meta RunMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return RunMeta{}, err
	}
	return meta, nil
}

// Put stores one record
func (s *RecordStore) Put(run ksuid.KSUID, seq uint64, data []byte) error {
	return s.db.Set(recordKey(run, seq), data, pebble.NoSync)
}

// PutBatch stores items atomically
func (s *RecordStore) PutBatch(run ksuid.KSUID, items []format.Item) error {
	b := s.db.NewBatch()
	defer b.Close()
	for _, it := range items {
		if err := b.Set(recordKey(run, it.Seq), it.Data, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.NoSync)
}

// Get returns a copy of one record
func (s *RecordStore) Get(run ksuid.KSUID, seq uint64) ([]byte, error) {
	data, closer, err := s.db.Get(recordKey(run, seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("run %s seq %d: %w", run, seq, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), data...), nil
}

// Scan calls fn for the records of run with sequence >= from, in sequence
// order. data is only valid during the call. Returning an error from fn
// stops the scan and returns that error.
func (s *RecordStore) Scan(run ksuid.KSUID, from uint64, fn func(seq uint64, data []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: recordKey(run, from),
		UpperBound: runUpperBound(run),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		_, seq, err := parseRecordKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// runUpperBound is the first key past every record of run
func runUpperBound(run ksuid.KSUID) []byte {
	return append([]byte{recordPrefix}, run.Next().Bytes()...)
}

// Runs lists every run with its stored record range, oldest first
func (s *RecordStore) Runs() ([]RunInfo, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{metaPrefix},
		UpperBound: []byte{metaPrefix + 1},
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var runs []RunInfo
	for iter.First(); iter.Valid(); iter.Next() {
		var meta RunMeta
		if err := json.Unmarshal(iter.Value(), &meta); err != nil {
			return nil, fmt.Errorf("run metadata %x: %w", iter.Key(), err)
		}
		info, err := s.stat(meta)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, iter.Error()
}

func (s *RecordStore) stat(meta RunMeta) (RunInfo, error) {
	info := RunInfo{RunMeta: meta}
	err := s.Scan(meta.ID, 0, func(seq uint64, _ []byte) error {
		if info.Records == 0 {
			info.FirstSeq = seq
		}
		info.LastSeq = seq
		info.Records++
		return nil
	})
	return info, err
}

// DeleteRun removes a run and all of its records
func (s *RecordStore) DeleteRun(run ksuid.KSUID) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(recordKey(run, 0), runUpperBound(run), nil); err != nil {
		return err
	}
	if err := b.Delete(metaKey(run), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// Flush makes every write durable
func (s *RecordStore) Flush() error {
	return s.db.Flush()
}

func (s *RecordStore) Close() error {
	return s.db.Close()
}

// RunSink adapts a store run to the generator's sink interface
type RunSink struct {
	store *RecordStore
	meta  RunMeta
}

// Sink starts a run and returns a sink writing into it
func (s *RecordStore) Sink(schemaName string, recordSize int) (*RunSink, error) {
	meta, err := s.BeginRun(schemaName, recordSize)
	if err != nil {
		return nil, err
	}
	return &RunSink{store: s, meta: meta}, nil
}

func (r *RunSink) Run() RunMeta { return r.meta }

func (r *RunSink) WriteBatch(items []format.Item) error {
	return r.store.PutBatch(r.meta.ID, items)
}

// Close flushes the run; the store stays open
func (r *RunSink) Close() error {
	return r.store.Flush()
}
