// Package generator produces synthetic telemetry records for a compiled
// schema and hands them to a sink in encoded form.
//
// Every batch draws from its own random stream derived from the run seed
// and the batch index, so a given seed yields the same records no matter
// how many workers share the run.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/sirupsen/logrus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/faults"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/pacing"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/varint"
)

const (
	DefaultBatchSize = 1000
	DefaultInterval  = time.Millisecond
)

var ErrNoRecords = errors.New("generator: record count must be positive")

// Options configures a run
type Options struct {
	Records   int64
	BatchSize int
	Workers   int // defaults to 1
	Seed      uint64
	Backend   Backend

	// SequenceField and TimestampField name schema fields that carry the
	// record sequence and its timestamp.
	SequenceField  string
	TimestampField string
	Sequence       *Sequence // shared counter, a fresh one starting at 0 if nil
	Start          time.Time // timestamp of sequence 0 of this run, now if zero
	Interval       time.Duration

	Limiter pacing.Limiter
	Faults  *faults.Injector
	Metrics *Metrics
	Logger  logrus.FieldLogger
}

// Latency summarizes per-record encode time
type Latency struct {
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P99  time.Duration `json:"p99"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
}

// Summary reports what a run produced
type Summary struct {
	Records    int64           `json:"records"`
	Bytes      int64           `json:"bytes"`
	Batches    int64           `json:"batches"`
	Faults     int64           `json:"faults"`
	FirstSeq   uint64          `json:"first_seq"`
	Duration   time.Duration   `json:"duration"`
	RecordSize int             `json:"record_size"`
	Latency    Latency         `json:"latency"`
	Varint     varint.Estimate `json:"varint"`
}

// Throughput returns records per second
func (s *Summary) Throughput() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Records) / s.Duration.Seconds()
}

// Generator runs batches of generated records through a shared encoder
type Generator struct {
	enc       *codec.Encoder
	schema    *schema.Schema
	populator *Populator
	opts      Options
	log       logrus.FieldLogger
}

// New validates opts and prepares a generator for enc's schema
func New(enc *codec.Encoder, opts Options) (*Generator, error) {
	if opts.Records <= 0 {
		return nil, ErrNoRecords
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Sequence == nil {
		opts.Sequence = NewSequence(0)
	}
	if opts.Limiter == nil {
		opts.Limiter = pacing.Unlimited{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	opts.Backend = backend

	s := enc.Schema()
	if opts.Faults != nil {
		opts.Faults.Protect(opts.SequenceField, opts.TimestampField)
	}
	return &Generator{
		enc:       enc,
		schema:    s,
		populator: NewPopulator(s, opts.SequenceField, opts.TimestampField),
		opts:      opts,
		log:       opts.Logger.WithField("schema", s.Name),
	}, nil
}

type batch struct {
	index    int64
	firstSeq uint64
	count    int
}

// workerStats is merged into the summary once a worker exits
type workerStats struct {
	records, bytes, faults, batches int64
	hist                            *hdrhistogram.Histogram
	estimate                        varint.Estimate
}

// Run generates opts.Records records and writes them to sink in batches.
// The sink is not closed. On error or cancellation the summary covers the
// batches that were written.
func (g *Generator) Run(ctx context.Context, sink Sink) (*Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := g.opts.Records
	size := int64(g.opts.BatchSize)
	first := g.opts.Sequence.Reserve(uint64(total))
	start := g.opts.Start
	if start.IsZero() {
		start = time.Now()
	}

	g.log.WithFields(logrus.Fields{
		"records": total,
		"workers": g.opts.Workers,
		"batch":   size,
		"seed":    g.opts.Seed,
		"backend": g.opts.Backend,
	}).Info("Starting generator run")

	jobs := make(chan batch)
	go func() {
		defer close(jobs)
		for i := int64(0); i*size < total; i++ {
			b := batch{index: i, firstSeq: first + uint64(i*size), count: int(min(size, total-i*size))}
			select {
			case jobs <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	began := time.Now()
	results := make([]*workerStats, g.opts.Workers)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < g.opts.Workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			g.opts.Metrics.workerStarted()
			defer g.opts.Metrics.workerStopped()

			stats, err := g.work(ctx, jobs, sink, start, first)
			results[id] = stats
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(w)
	}
	wg.Wait()

	sum := g.summarize(results, first, time.Since(began))
	if firstErr == nil {
		firstErr = ctx.Err()
		// a run that completed before the parent was cancelled is fine
		if sum.Records == total {
			firstErr = nil
		}
	}

	entry := g.log.WithFields(logrus.Fields{
		"records":  sum.Records,
		"bytes":    sum.Bytes,
		"faults":   sum.Faults,
		"duration": sum.Duration,
	})
	if firstErr != nil {
		entry.WithError(firstErr).Warn("Generator run stopped early")
	} else {
		entry.Info("Generator run complete")
	}
	return sum, firstErr
}

func (g *Generator) work(ctx context.Context, jobs <-chan batch, sink Sink, start time.Time, first uint64) (*workerStats, error) {
	stats := &workerStats{hist: hdrhistogram.New(1, int64(time.Second), 3)}
	rec := make(codec.Record, len(g.schema.Fields))
	var items []format.Item

	for b := range jobs {
		if err := g.opts.Limiter.Wait(ctx, b.count); err != nil {
			return stats, err
		}

		src, err := NewSource(g.opts.Backend, g.opts.Seed, uint64(b.index))
		if err != nil {
			return stats, err
		}
		rng := rand.New(src)

		items = items[:0]
		var bytes, injected int
		for i := 0; i < b.count; i++ {
			seq := b.firstSeq + uint64(i)
			ts := start.Add(time.Duration(seq-first) * g.opts.Interval)

			clear(rec)
			g.populator.Fill(rng, seq, ts, rec)
			stats.estimate.Add(estimateRecord(g.schema, rec))
			if g.opts.Faults != nil {
				injected += g.opts.Faults.Apply(rng, rec)
			}

			t0 := time.Now()
			data, err := g.enc.Encode(rec)
			elapsed := time.Since(t0)
			if err != nil {
				g.opts.Metrics.recordBatch(0, 0, 0, err)
				return stats, fmt.Errorf("encode record %d: %w", seq, err)
			}
			_ = stats.hist.RecordValue(int64(elapsed))
			g.opts.Metrics.observeEncode(elapsed)

			items = append(items, format.Item{Seq: seq, Time: ts, Data: data})
			bytes += len(data)
		}

		if err := sink.WriteBatch(items); err != nil {
			g.opts.Metrics.recordBatch(0, 0, 0, err)
			return stats, fmt.Errorf("write batch %d: %w", b.index, err)
		}
		g.opts.Metrics.recordBatch(b.count, bytes, injected, nil)

		stats.records += int64(b.count)
		stats.bytes += int64(bytes)
		stats.faults += int64(injected)
		stats.batches++
	}
	return stats, nil
}

func (g *Generator) summarize(results []*workerStats, first uint64, elapsed time.Duration) *Summary {
	sum := &Summary{FirstSeq: first, Duration: elapsed, RecordSize: g.schema.Size()}
	hist := hdrhistogram.New(1, int64(time.Second), 3)
	for _, st := range results {
		if st == nil {
			continue
		}
		sum.Records += st.records
		sum.Bytes += st.bytes
		sum.Faults += st.faults
		sum.Batches += st.batches
		sum.Varint.Add(st.estimate)
		hist.Merge(st.hist)
	}
	if hist.TotalCount() > 0 {
		sum.Latency = Latency{
			P50:  time.Duration(hist.ValueAtQuantile(50)),
			P90:  time.Duration(hist.ValueAtQuantile(90)),
			P99:  time.Duration(hist.ValueAtQuantile(99)),
			Max:  time.Duration(hist.Max()),
			Mean: time.Duration(hist.Mean()),
		}
	}
	return sum
}

// estimateRecord measures the integer fields of rec as varints
func estimateRecord(s *schema.Schema, rec codec.Record) varint.Estimate {
	var (
		unsigned [8]uint64
		signed   [8]int64
		est      varint.Estimate
	)
	u, i := unsigned[:0], signed[:0]
	for k := range s.Fields {
		f := &s.Fields[k]
		switch f.Kind {
		case schema.Unsigned:
			u = append(u, rec[f.Name].AsUint64())
		case schema.Signed:
			i = append(i, rec[f.Name].AsInt64())
		}
	}
	est.Add(varint.EstimateUnsigned(u))
	est.Add(varint.EstimateSigned(i))
	return est
}
