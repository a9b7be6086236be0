/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/store"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show a compiled schema and optionally explain a record file",
	Long: `Compile a schema and print its field layout. With --file, also read a
record file and report how many records are intact, skipped or undecodable.

Examples:
  telegen inspect --schema ./schema.json
  telegen inspect --file out/telemetry-xxxx-000001.bin --samples 3
  telegen inspect --file out/telemetry-xxxx-000001.bin.gz --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		samples, _ := cmd.Flags().GetInt("samples")
		asJSON, _ := cmd.Flags().GetBool("json")

		cs, err := commandCodecs(cmd)
		if err != nil {
			return err
		}

		var explain *store.ExplainResult
		if file != "" {
			explain, err = store.Explain(cmd.Context(), file, cs.dec, store.ExplainOptions{
				WithSamples: samples,
				Compression: store.CompressionAuto,
			})
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
		}

		if asJSON {
			data, err := json.MarshalIndent(map[string]interface{}{
				"schema":  describeSchema(cs.schema),
				"explain": explain,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printSchema(cmd, cs.schema)
		if explain != nil {
			printExplain(cmd, explain)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("schema", "s", "", "Schema file (default: from config)")
	inspectCmd.Flags().String("file", "", "Record file to explain")
	inspectCmd.Flags().Int("samples", 0, "Number of decoded records to show")
	inspectCmd.Flags().Bool("verify", false, "Count CRC mismatches as decode errors")
	inspectCmd.Flags().Bool("json", false, "Print JSON instead of tables")
}

type fieldDescription struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Kind   string   `json:"kind"`
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Bits   int      `json:"bits"`
	Values []string `json:"values,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

type schemaDescription struct {
	Name       string             `json:"name"`
	ByteOrder  string             `json:"byte_order"`
	TotalBits  int                `json:"total_bits"`
	RecordSize int                `json:"record_size"`
	CRC        *schema.CRC        `json:"crc,omitempty"`
	Fields     []fieldDescription `json:"fields"`
}

func describeSchema(s *schema.Schema) schemaDescription {
	d := schemaDescription{
		Name:       s.Name,
		ByteOrder:  s.ByteOrder.String(),
		TotalBits:  s.TotalBits,
		RecordSize: s.Size(),
		CRC:        s.CRC,
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		fd := fieldDescription{
			Name:  f.Name,
			Type:  f.Type,
			Kind:  f.Kind.String(),
			Start: f.Start,
			End:   f.End,
			Bits:  f.Bits,
		}
		switch f.Kind {
		case schema.Enum:
			fd.Values = f.Enum.Values()
			fd.Detail = strings.Join(fd.Values, ", ")
		case schema.Bytes:
			fd.Detail = fmt.Sprintf("%d bytes, %s", f.ByteLen(), f.Charset)
		}
		if s.CRC != nil && f.Name == s.CRC.Field {
			fd.Detail = fmt.Sprintf("crc32c of bits %d-%d", s.CRC.Start, s.CRC.End)
		}
		d.Fields = append(d.Fields, fd)
	}
	return d
}

func printSchema(cmd *cobra.Command, s *schema.Schema) {
	d := describeSchema(s)
	name := d.Name
	if name == "" {
		name = "(unnamed)"
	}
	cmd.Printf("Schema %s: %d bits, %d bytes per record, %s endian\n", name, d.TotalBits, d.RecordSize, d.ByteOrder)

	t := newTable(cmd.OutOrStdout(), table.Row{"Field", "Type", "Kind", "Bits", "Range", "Detail"})
	for _, f := range d.Fields {
		t.AppendRow(table.Row{f.Name, f.Type, f.Kind, f.Bits, fmt.Sprintf("%d-%d", f.Start, f.End), f.Detail})
	}
	t.Render()
}

func printExplain(cmd *cobra.Command, res *store.ExplainResult) {
	cmd.Printf("\nFile %s (%d bytes, compression %s, read in %s mode)\n", res.File, res.SizeBytes, res.Compression, res.Mode)
	t := newTable(cmd.OutOrStdout(), table.Row{"Records", "Skipped", "Skipped bytes", "Decode errors"})
	t.AppendRow(table.Row{res.Stats.Records, res.Stats.Skipped, res.Stats.SkippedBytes, res.Stats.DecodeErrors})
	t.Render()

	for i, rec := range res.Samples {
		data, err := json.Marshal(rec)
		if err != nil {
			return
		}
		cmd.Printf("sample %d: %s\n", i, data)
	}
	for _, w := range res.Warnings {
		warn(cmd, "%s", w)
	}
}
