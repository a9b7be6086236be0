/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/store"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <file|->",
	Short: "Decode a binary record stream",
	Long: `Decode a stream of binary records and print them in a text format.

Damaged records are skipped and counted; reading continues with the next
intact record. Compressed files are detected from their extension.

Examples:
  telegen decode out/telemetry-xxxx-000001.bin
  telegen decode --format influx --limit 10 out/telemetry-xxxx-000002.bin.zst
  cat records.bin | telegen decode --verify -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt64("limit")
		compression, _ := cmd.Flags().GetString("compression")
		outPath, _ := cmd.Flags().GetString("output")
		showStats, _ := cmd.Flags().GetBool("stats")

		f, err := format.ParseFormat(formatName)
		if err != nil {
			return err
		}
		tag, err := store.ParseCompressionTag(compression)
		if err != nil {
			return err
		}
		cs, err := commandCodecs(cmd)
		if err != nil {
			return err
		}
		logger := loggerFrom(cmd)

		var reader *store.StreamReader
		if args[0] == "-" {
			reader = store.NewStreamReader(cmd.InOrStdin(), -1, cs.dec, logger)
		} else {
			reader, err = store.OpenStreamReader(store.ReaderConfig{
				FilePath:    args[0],
				Compression: tag,
				Logger:      logger,
			}, cs.dec)
			if err != nil {
				return err
			}
		}
		defer reader.Close()

		out, closeOut, err := openOutput(cmd, outPath)
		if err != nil {
			return err
		}
		w, err := format.NewWriter(f, out, cs.dec)
		if err != nil {
			closeOut()
			return err
		}

		res, err := decodeStream(reader, cs.dec, w, limit, logger)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if cerr := closeOut(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}

		if showStats {
			data, _ := json.Marshal(res)
			fmt.Fprintln(cmd.ErrOrStderr(), string(data))
		}
		if res.Skipped > 0 || res.Rejected > 0 {
			warn(cmd, "%d damaged records skipped, %d rejected by the decoder", res.Skipped, res.Rejected)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringP("schema", "s", "", "Schema file (default: from config)")
	decodeCmd.Flags().StringP("format", "f", string(format.NDJSON), "Output format")
	decodeCmd.Flags().Int64P("limit", "n", 0, "Stop after this many records (0 = all)")
	decodeCmd.Flags().String("compression", "auto", "Input compression (auto picks it from the extension)")
	decodeCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	decodeCmd.Flags().Bool("verify", false, "Reject records whose CRC does not match")
	decodeCmd.Flags().Bool("stats", false, "Print read statistics to stderr")
}

// decodeResult is what decodeStream reports
type decodeResult struct {
	Written      int64  `json:"written"`
	Rejected     int64  `json:"rejected"`
	Skipped      int64  `json:"skipped"`
	SkippedBytes int64  `json:"skipped_bytes"`
	Mode         string `json:"mode"`
}

// decodeStream renders every frame the decoder accepts. Frames it rejects,
// such as CRC mismatches under verification, are counted and left out.
func decodeStream(reader *store.StreamReader, dec *codec.Decoder, w format.Writer, limit int64, logger logrus.FieldLogger) (decodeResult, error) {
	var res decodeResult
	for seq := uint64(0); limit <= 0 || res.Written < limit; seq++ {
		frame, err := reader.NextFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		if _, err := dec.Decode(frame); err != nil {
			res.Rejected++
			logger.WithError(err).WithField("frame", seq).Warn("Skipping record")
			continue
		}
		if err := w.Write(format.Item{Seq: seq, Data: frame}); err != nil {
			return res, err
		}
		res.Written++
	}
	stats := reader.Stats()
	res.Skipped = stats.Skipped
	res.SkippedBytes = stats.SkippedBytes
	res.Mode = reader.Mode().String()
	return res, nil
}
