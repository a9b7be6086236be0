/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/config"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/faults"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/generator"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/pacing"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/storage"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/store"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic telemetry records",
	Long: `Generate records for a schema and write them to rolling files, a pebble
record store or nowhere at all (for benchmarking).

Flags override the matching config file settings.

Examples:
  telegen generate --schema ./schema.json --records 100000 --workers 8
  telegen generate --format ndjson --out ./out --max-bytes 1048576 --compression zstd
  telegen generate --sink pebble --pebble-dir ./data --rate 5000 --burst 500
  telegen generate --fault-rate 0.01 --faults overflow,nan`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := configFrom(cmd)
		if err := applyGenerateFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		cs, err := commandCodecs(cmd)
		if err != nil {
			return err
		}
		logger := loggerFrom(cmd)

		opts, err := generatorOptions(cfg, cs)
		if err != nil {
			return err
		}
		opts.Logger = logger
		if container != nil {
			opts.Metrics = generator.NewMetrics(container.Registry())
		}
		gen, err := generator.New(cs.enc, opts)
		if err != nil {
			return err
		}

		sink, describe, err := openSink(cmd, cfg, cs)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sum, runErr := gen.Run(ctx, sink)
		if err := sink.Close(); err != nil && runErr == nil {
			runErr = err
		}

		if runErr != nil {
			return fmt.Errorf("generation stopped after %d records: %w", sum.Records, runErr)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(sum, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		printSummary(cmd, sum)
		describe()
		success(cmd, "Generated %d records", sum.Records)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringP("schema", "s", "", "Schema file (default: from config)")
	f.Int64P("records", "n", 0, "Number of records to generate")
	f.IntP("workers", "w", 0, "Number of encoding workers")
	f.Int("batch-size", 0, "Records per batch")
	f.Uint64("seed", 0, "Random seed")
	f.String("backend", "", "Random source: pcg, batch or chacha8")
	f.StringP("format", "f", "", "Output format: binary, json, ndjson, influx, cbor, varint")
	f.StringP("out", "o", "", "Output directory")
	f.String("prefix", "", "Output file name prefix")
	f.String("compression", "", "Compression of rotated files: none, gzip, zstd, lz4, snappy")
	f.Int64("max-bytes", 0, "Rotate files before they pass this size")
	f.Int("max-files", 0, "Finished files to keep (0 = all)")
	f.String("sink", "", "Where records go: file, pebble or discard")
	f.String("pebble-dir", "", "Pebble record store directory")
	f.Float64("rate", 0, "Records per second (0 = unlimited)")
	f.Int("burst", 0, "Burst size for token pacing")
	f.String("pacing", "", "Pacing: token, smooth or none")
	f.Float64("fault-rate", 0, "Probability of corrupting a field")
	f.StringSlice("faults", nil, "Fault kinds to inject (default: all)")
	f.Bool("verify", false, "Verify CRCs on decode when rendering text formats")
	f.Bool("json", false, "Print the run summary as JSON")
}

// applyGenerateFlags copies explicitly set flags over the configuration
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && f.Changed(name) {
			apply()
		}
	}
	set("records", func() { cfg.Generator.Records, err = f.GetInt64("records") })
	set("workers", func() { cfg.Generator.Workers, err = f.GetInt("workers") })
	set("batch-size", func() { cfg.Generator.BatchSize, err = f.GetInt("batch-size") })
	set("seed", func() { cfg.Generator.Seed, err = f.GetUint64("seed") })
	set("backend", func() { cfg.Generator.Backend, err = f.GetString("backend") })
	set("format", func() { cfg.Output.Format, err = f.GetString("format") })
	set("out", func() { cfg.Output.Dir, err = f.GetString("out") })
	set("prefix", func() { cfg.Output.Prefix, err = f.GetString("prefix") })
	set("compression", func() { cfg.Output.Compression, err = f.GetString("compression") })
	set("max-bytes", func() { cfg.Output.MaxBytes, err = f.GetInt64("max-bytes") })
	set("max-files", func() { cfg.Output.MaxFiles, err = f.GetInt("max-files") })
	set("sink", func() { cfg.Output.Sink, err = f.GetString("sink") })
	set("pebble-dir", func() { cfg.Output.PebbleDir, err = f.GetString("pebble-dir") })
	set("rate", func() { cfg.Generator.Rate, err = f.GetFloat64("rate") })
	set("burst", func() { cfg.Generator.Burst, err = f.GetInt("burst") })
	set("pacing", func() { cfg.Generator.Pacing, err = f.GetString("pacing") })
	set("fault-rate", func() { cfg.Faults.Probability, err = f.GetFloat64("fault-rate") })
	set("faults", func() { cfg.Faults.Kinds, err = f.GetStringSlice("faults") })
	return err
}

func generatorOptions(cfg *config.Config, cs *codecs) (generator.Options, error) {
	g := cfg.Generator
	backend, err := generator.ParseBackend(g.Backend)
	if err != nil {
		return generator.Options{}, err
	}
	limiter, err := pacing.New(g.Pacing, g.Rate, g.Burst)
	if err != nil {
		return generator.Options{}, err
	}

	opts := generator.Options{
		Records:        g.Records,
		BatchSize:      g.BatchSize,
		Workers:        g.Workers,
		Seed:           g.Seed,
		Backend:        backend,
		SequenceField:  g.SequenceField,
		TimestampField: g.TimestampField,
		Interval:       g.Interval,
		Limiter:        limiter,
	}
	if cfg.Faults.Probability > 0 {
		kinds, err := faults.ParseKinds(cfg.Faults.Kinds)
		if err != nil {
			return generator.Options{}, err
		}
		opts.Faults, err = faults.New(cs.schema, cfg.Faults.Probability, kinds)
		if err != nil {
			return generator.Options{}, err
		}
	}
	return opts, nil
}

// openSink builds the configured sink. describe prints where the records
// went once the sink is closed.
func openSink(cmd *cobra.Command, cfg *config.Config, cs *codecs) (generator.Sink, func(), error) {
	switch cfg.Output.Sink {
	case config.SinkDiscard:
		sink := &generator.DiscardSink{}
		return sink, func() {}, nil

	case config.SinkPebble:
		st, err := storage.Open(cfg.Output.PebbleDir, loggerFrom(cmd))
		if err != nil {
			return nil, nil, err
		}
		run, err := st.Sink(cs.schema.Name, cs.schema.Size())
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		sink := &closingSink{Sink: run, close: st.Close}
		return sink, func() {
			cmd.Printf("Run %s stored in %s\n", run.Run().ID, cfg.Output.PebbleDir)
		}, nil

	default:
		f, err := format.ParseFormat(cfg.Output.Format)
		if err != nil {
			return nil, nil, err
		}
		tag, err := store.ParseCompressionTag(cfg.Output.Compression)
		if err != nil {
			return nil, nil, err
		}
		sink, err := generator.NewFileSink(store.WriterConfig{
			Dir:           cfg.Output.Dir,
			Prefix:        cfg.Output.Prefix,
			RunID:         ksuid.New().String(),
			MaxBytes:      cfg.Output.MaxBytes,
			MaxFiles:      cfg.Output.MaxFiles,
			Compression:   tag,
			FsyncInterval: cfg.Output.FsyncInterval,
			BufferSize:    cfg.Output.BufferSize,
			Logger:        loggerFrom(cmd),
		}, f, cs.dec)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() {
			for _, name := range sink.Files() {
				cmd.Printf("  %s\n", name)
			}
		}, nil
	}
}

// closingSink closes the store behind a run sink after the run
type closingSink struct {
	generator.Sink
	close func() error
}

func (c *closingSink) Close() error {
	err := c.Sink.Close()
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

func printSummary(cmd *cobra.Command, sum *generator.Summary) {
	t := newTable(cmd.OutOrStdout(), table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Records", sum.Records},
		{"Bytes", sum.Bytes},
		{"Batches", sum.Batches},
		{"Faults", sum.Faults},
		{"First sequence", sum.FirstSeq},
		{"Record size", sum.RecordSize},
		{"Duration", sum.Duration},
		{"Records/s", fmt.Sprintf("%.0f", sum.Throughput())},
		{"Encode p50", sum.Latency.P50},
		{"Encode p99", sum.Latency.P99},
		{"Encode max", sum.Latency.Max},
		{"Varint vs fixed64", fmt.Sprintf("%.2f", sum.Varint.Ratio64())},
	})
	t.Render()
}
