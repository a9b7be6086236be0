/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/store"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/varint"
)

// varintCmd groups the LEB128 tools
var varintCmd = &cobra.Command{
	Use:   "varint",
	Short: "LEB128 variable-length integer tools",
}

var varintEncodeCmd = &cobra.Command{
	Use:   "encode <value>...",
	Short: "Encode integers as LEB128",
	Long: `Encode integers as LEB128 and print each encoding in hex.

Examples:
  telegen varint encode 0 127 128 624485
  telegen varint encode --signed -- -1 -123456`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signed, _ := cmd.Flags().GetBool("signed")

		t := newTable(cmd.OutOrStdout(), table.Row{"Value", "Bytes", "Hex"})
		var all []byte
		for _, arg := range args {
			var enc []byte
			if signed {
				v, err := strconv.ParseInt(arg, 0, 64)
				if err != nil {
					return fmt.Errorf("invalid signed value %q: %w", arg, err)
				}
				enc = varint.EncodeSigned(v)
			} else {
				v, err := strconv.ParseUint(arg, 0, 64)
				if err != nil {
					return fmt.Errorf("invalid unsigned value %q: %w", arg, err)
				}
				enc = varint.EncodeUnsigned(v)
			}
			all = append(all, enc...)
			t.AppendRow(table.Row{arg, len(enc), hex.EncodeToString(enc)})
		}
		t.AppendFooter(table.Row{"all", len(all), hex.EncodeToString(all)})
		t.Render()
		return nil
	},
}

var varintDecodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a hex string of concatenated LEB128 values",
	Long: `Decode every LEB128 value in a hex string.

Examples:
  telegen varint decode e58e26
  telegen varint decode --signed 7fc0bb78`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signed, _ := cmd.Flags().GetBool("signed")
		buf, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
		if err != nil {
			return fmt.Errorf("invalid hex: %w", err)
		}

		values, err := decodeVarints(buf, signed)
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return err
	},
}

var varintStatsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Compare LEB128 and fixed-width sizes of a record file's integer fields",
	Long: `Read a binary record file and report, per integer field, how many bytes its
values would take as LEB128 varints versus 32- and 64-bit words.

Examples:
  telegen varint stats out/telemetry-xxxx-000001.bin
  telegen varint stats --json out/telemetry-xxxx-000001.bin.zst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		cs, err := commandCodecs(cmd)
		if err != nil {
			return err
		}
		reader, err := store.OpenStreamReader(store.ReaderConfig{
			FilePath:    args[0],
			Compression: store.CompressionAuto,
			Logger:      loggerFrom(cmd),
		}, cs.dec)
		if err != nil {
			return err
		}
		defer reader.Close()

		stats, err := fieldEstimates(reader, cs.schema)
		if err != nil {
			return err
		}

		if asJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		t := newTable(cmd.OutOrStdout(), table.Row{"Field", "Values", "Varint", "Fixed32", "Fixed64", "vs 32", "vs 64"})
		var total varint.Estimate
		for _, fe := range stats {
			total.Add(fe.Estimate)
			t.AppendRow(estimateRow(fe.Field, fe.Estimate))
		}
		t.AppendFooter(estimateRow("total", total))
		t.Render()
		return nil
	},
}

var varintFramesCmd = &cobra.Command{
	Use:   "frames <file|->",
	Short: "Print the records of a varint-format output file as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := commandCodecs(cmd)
		if err != nil {
			return err
		}

		var src io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			src = f
		}
		return dumpVarintFrames(bufio.NewReader(src), cs.schema, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(varintCmd)
	varintCmd.AddCommand(varintEncodeCmd, varintDecodeCmd, varintStatsCmd, varintFramesCmd)

	varintEncodeCmd.Flags().Bool("signed", false, "Use signed LEB128")
	varintDecodeCmd.Flags().Bool("signed", false, "Use signed LEB128")
	varintStatsCmd.Flags().StringP("schema", "s", "", "Schema file (default: from config)")
	varintStatsCmd.Flags().Bool("json", false, "Print JSON instead of a table")
	varintFramesCmd.Flags().StringP("schema", "s", "", "Schema file (default: from config)")
}

func decodeVarints(buf []byte, signed bool) ([]string, error) {
	var out []string
	for off := 0; off < len(buf); {
		var (
			s   string
			n   int
			err error
		)
		if signed {
			var v int64
			v, n, err = varint.DecodeSigned(buf, off)
			s = strconv.FormatInt(v, 10)
		} else {
			var v uint64
			v, n, err = varint.DecodeUnsigned(buf, off)
			s = strconv.FormatUint(v, 10)
		}
		if err != nil {
			return out, fmt.Errorf("at byte %d: %w", off, err)
		}
		out = append(out, s)
		off += n
	}
	return out, nil
}

// fieldEstimate is the size estimate of one integer field
type fieldEstimate struct {
	Field    string          `json:"field"`
	Estimate varint.Estimate `json:"estimate"`
}

func fieldEstimates(reader *store.StreamReader, s *schema.Schema) ([]fieldEstimate, error) {
	var (
		fields   []*schema.Field
		unsigned = map[string][]uint64{}
		signed   = map[string][]int64{}
	)
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Kind == schema.Unsigned || f.Kind == schema.Signed {
			fields = append(fields, f)
		}
	}

	err := reader.Each(func(rec codec.Record) error {
		for _, f := range fields {
			v := rec[f.Name]
			if f.Kind == schema.Signed {
				signed[f.Name] = append(signed[f.Name], v.AsInt64())
			} else {
				unsigned[f.Name] = append(unsigned[f.Name], v.AsUint64())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]fieldEstimate, 0, len(fields))
	for _, f := range fields {
		var e varint.Estimate
		if f.Kind == schema.Signed {
			e = varint.EstimateSigned(signed[f.Name])
		} else {
			e = varint.EstimateUnsigned(unsigned[f.Name])
		}
		out = append(out, fieldEstimate{Field: f.Name, Estimate: e})
	}
	return out, nil
}

func estimateRow(name string, e varint.Estimate) table.Row {
	return table.Row{
		name, e.Count, e.Varint, e.Fixed32, e.Fixed64,
		fmt.Sprintf("%.2f", e.Ratio32()), fmt.Sprintf("%.2f", e.Ratio64()),
	}
}

func dumpVarintFrames(r io.ByteReader, s *schema.Schema, w io.Writer) error {
	names := s.Names()
	for {
		seq, values, err := format.ReadVarintFrame(r, s)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		obj := make(map[string]interface{}, len(values)+1)
		obj["_seq"] = seq
		for i, v := range values {
			obj[names[i]] = v
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}
}
