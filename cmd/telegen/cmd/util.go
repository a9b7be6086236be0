package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/config"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

// codecs bundles a compiled schema with its encoder and decoder
type codecs struct {
	schema *schema.Schema
	enc    *codec.Encoder
	dec    *codec.Decoder
}

// schemaPath picks the --schema flag when set and the configured schema
// otherwise.
func schemaPath(cmd *cobra.Command, cfg *config.Config, configPath string) string {
	if cmd.Flags().Lookup("schema") != nil {
		if p, _ := cmd.Flags().GetString("schema"); p != "" {
			return p
		}
	}
	return cfg.SchemaPath(configPath)
}

func loadCodecs(path string, verify bool, logger logrus.FieldLogger) (*codecs, error) {
	s, err := schema.CompileFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", path, err)
	}
	opts := []codec.Option{codec.WithLogger(logger)}
	if verify {
		opts = append(opts, codec.WithCRCVerification())
	}
	return &codecs{
		schema: s,
		enc:    codec.NewEncoder(s, opts...),
		dec:    codec.NewDecoder(s, opts...),
	}, nil
}

func commandCodecs(cmd *cobra.Command) (*codecs, error) {
	cfg, configPath := configFrom(cmd)
	verify := cfg.Codec.VerifyCRC
	if f := cmd.Flags().Lookup("verify"); f != nil && f.Changed {
		verify, _ = cmd.Flags().GetBool("verify")
	}
	return loadCodecs(schemaPath(cmd, cfg, configPath), verify, loggerFrom(cmd))
}

func success(cmd *cobra.Command, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✅ "+format+"\n", args...)
}

func warn(cmd *cobra.Command, format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "⚠️  "+format+"\n", args...)
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(header)
	t.SetOutputMirror(w)
	cfgs := make([]table.ColumnConfig, len(header))
	for i := range header {
		cfgs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignCenter}
	}
	t.SetColumnConfigs(cfgs)
	return t
}

// openOutput returns stdout for "" or "-" and a created file otherwise
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
