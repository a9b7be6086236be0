/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/storage"
)

var errReplayLimit = errors.New("replay limit reached")

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [run-id]",
	Short: "List or replay runs stored in the pebble record store",
	Long: `Without a run ID, list the runs in the record store. With one, stream the
run's records in sequence order through a formatter.

Examples:
  telegen replay --pebble-dir ./data
  telegen replay 2ZrJ0tq0Bq6sYxQ3YHv8o0gQb2B --format influx --from 1000 --limit 10
  telegen replay 2ZrJ0tq0Bq6sYxQ3YHv8o0gQb2B --delete`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := configFrom(cmd)
		dir := cfg.Output.PebbleDir
		if cmd.Flags().Changed("pebble-dir") {
			dir, _ = cmd.Flags().GetString("pebble-dir")
		}

		st, err := storage.Open(dir, loggerFrom(cmd))
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 0 {
			asJSON, _ := cmd.Flags().GetBool("json")
			return listRuns(cmd, st, asJSON)
		}

		run, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		meta, err := st.Meta(run)
		if err != nil {
			return err
		}

		if del, _ := cmd.Flags().GetBool("delete"); del {
			if err := st.DeleteRun(run); err != nil {
				return err
			}
			success(cmd, "Deleted run %s", run)
			return nil
		}
		return replayRun(cmd, st, meta)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringP("schema", "s", "", "Schema file (default: from config)")
	replayCmd.Flags().String("pebble-dir", "", "Pebble record store directory (default: from config)")
	replayCmd.Flags().StringP("format", "f", string(format.NDJSON), "Output format")
	replayCmd.Flags().Uint64("from", 0, "First sequence number to replay")
	replayCmd.Flags().Int64P("limit", "n", 0, "Stop after this many records (0 = all)")
	replayCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	replayCmd.Flags().Bool("verify", false, "Reject records whose CRC does not match")
	replayCmd.Flags().Bool("delete", false, "Delete the run instead of replaying it")
	replayCmd.Flags().Bool("json", false, "List runs as JSON")
}

func listRuns(cmd *cobra.Command, st *storage.RecordStore, asJSON bool) error {
	runs, err := st.Runs()
	if err != nil {
		return err
	}
	if asJSON {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if len(runs) == 0 {
		cmd.Println("No runs stored")
		return nil
	}

	t := newTable(cmd.OutOrStdout(), table.Row{"Run", "Schema", "Created", "Records", "Sequences", "Record size"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID.String(), r.Schema, r.Created.Format(time.RFC3339), r.Records,
			fmt.Sprintf("%d-%d", r.FirstSeq, r.LastSeq), r.RecordSize,
		})
	}
	t.Render()
	return nil
}

func replayRun(cmd *cobra.Command, st *storage.RecordStore, meta storage.RunMeta) error {
	formatName, _ := cmd.Flags().GetString("format")
	from, _ := cmd.Flags().GetUint64("from")
	limit, _ := cmd.Flags().GetInt64("limit")
	outPath, _ := cmd.Flags().GetString("output")

	f, err := format.ParseFormat(formatName)
	if err != nil {
		return err
	}
	cs, err := commandCodecs(cmd)
	if err != nil {
		return err
	}
	if cs.schema.Size() != meta.RecordSize {
		return fmt.Errorf("run %s holds %d-byte records, schema %q encodes %d bytes",
			meta.ID, meta.RecordSize, cs.schema.Name, cs.schema.Size())
	}
	if meta.Schema != cs.schema.Name {
		warn(cmd, "Run %s was generated for schema %q, decoding with %q", meta.ID, meta.Schema, cs.schema.Name)
	}

	out, closeOut, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	w, err := format.NewWriter(f, out, cs.dec)
	if err != nil {
		closeOut()
		return err
	}

	logger := loggerFrom(cmd)
	var written, rejected int64
	err = st.Scan(meta.ID, from, func(seq uint64, data []byte) error {
		if limit > 0 && written >= limit {
			return errReplayLimit
		}
		if _, err := cs.dec.Decode(data); err != nil {
			rejected++
			logger.WithError(err).WithField("seq", seq).Warn("Skipping record")
			return nil
		}
		written++
		return w.Write(format.Item{Seq: seq, Data: data})
	})
	if errors.Is(err, errReplayLimit) {
		err = nil
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if rejected > 0 {
		warn(cmd, "%d records rejected by the decoder", rejected)
	}
	return err
}
