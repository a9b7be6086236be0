package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/api"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/config"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/di"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/generator"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/storage"
)

// resetFlags puts every flag of the command tree back to its default, since
// the commands are package globals shared by all tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeWith(t *testing.T, c *di.Container, args ...string) (string, error) {
	t.Helper()
	SetContainer(c)
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWith(t, di.NewContainer(), args...)
}

// setup writes a sample schema and a config next to it
func setup(t *testing.T) (dir, configPath string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir = t.TempDir()
	configPath = filepath.Join(dir, "telegen.yaml")
	_, err := execute(t, "init", "--config", configPath)
	require.NoError(t, err)
	return dir, configPath
}

type stubFactory struct{ starter *stubStarter }

func (f *stubFactory) CreateServerStarter(prometheus.Registerer, prometheus.Gatherer) api.ServerStarter {
	return f.starter
}

type stubStarter struct {
	config api.ServerConfig
	schema *schema.Schema
}

func (s *stubStarter) StartServer(_ context.Context, enc *codec.Encoder, _ *codec.Decoder, config api.ServerConfig) error {
	s.config = config
	s.schema = enc.Schema()
	return nil
}

func TestInitCommand(t *testing.T) {
	dir, configPath := setup(t)

	assert.True(t, config.ConfigExists(configPath))
	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "schema.json", cfg.Schema)
	assert.Equal(t, filepath.Join(dir, "schema.json"), cfg.SchemaPath(configPath))
	assert.Len(t, cfg.Server.APIKey, 64)

	s, err := schema.CompileFile(cfg.SchemaPath(configPath))
	require.NoError(t, err)
	assert.Equal(t, "sensor", s.Name)
	assert.Equal(t, 32, s.Size())
	require.NotNil(t, s.CRC)

	out, err := execute(t, "init", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	again, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.APIKey, again.Server.APIKey)
}

func TestGenerateAndDecode(t *testing.T) {
	dir, configPath := setup(t)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "generate", "--config", configPath,
		"--records", "500", "--workers", "3", "--batch-size", "64",
		"--out", outDir, "--format", "binary", "--json")
	require.NoError(t, err)

	var sum generator.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, int64(500), sum.Records)
	assert.Equal(t, 32, sum.RecordSize)
	assert.Equal(t, int64(500*32), sum.Bytes)

	files, err := filepath.Glob(filepath.Join(outDir, "*.bin"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	decoded := filepath.Join(dir, "records.ndjson")
	_, err = execute(t, "decode", "--config", configPath, "--verify", "-o", decoded, files[0])
	require.NoError(t, err)

	data, err := os.ReadFile(decoded)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 500)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Contains(t, first, "temperature")
	assert.Contains(t, []interface{}{"gateway", "pump", "valve", "meter"}, first["device"])

	out, err = execute(t, "decode", "--config", configPath, "--format", "influx", "--limit", "3", files[0])
	require.NoError(t, err)
	influx := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, influx, 3)
	assert.True(t, strings.HasPrefix(influx[0], "sensor,"))
}

func TestDecode_SkipsDamagedRecords(t *testing.T) {
	dir, configPath := setup(t)
	outDir := filepath.Join(dir, "out")

	_, err := execute(t, "generate", "--config", configPath, "--records", "20", "--out", outDir, "--json")
	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(outDir, "*.bin"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	// flip a payload bit of the third record so its CRC no longer matches
	data[2*33+5] ^= 0x01
	damaged := filepath.Join(dir, "damaged.bin")
	require.NoError(t, os.WriteFile(damaged, data, 0644))

	out, err := execute(t, "decode", "--config", configPath, "--verify", damaged)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 19)

	out, err = execute(t, "decode", "--config", configPath, damaged)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 20)
}

func TestGenerate_PebbleAndReplay(t *testing.T) {
	dir, configPath := setup(t)
	dataDir := filepath.Join(dir, "data")

	out, err := execute(t, "generate", "--config", configPath, "--records", "50",
		"--sink", "pebble", "--pebble-dir", dataDir, "--json")
	require.NoError(t, err)
	var sum generator.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, int64(50), sum.Records)

	out, err = execute(t, "replay", "--config", configPath, "--pebble-dir", dataDir, "--json")
	require.NoError(t, err)
	var runs []storage.RunInfo
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, int64(50), runs[0].Records)
	assert.Equal(t, "sensor", runs[0].Schema)
	assert.Equal(t, 32, runs[0].RecordSize)

	id := runs[0].ID.String()
	out, err = execute(t, "replay", id, "--config", configPath, "--pebble-dir", dataDir,
		"--from", "10", "--limit", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], `{"_seq":10,`))

	_, err = execute(t, "replay", id, "--config", configPath, "--pebble-dir", dataDir, "--delete")
	require.NoError(t, err)
	out, err = execute(t, "replay", "--config", configPath, "--pebble-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs stored")

	_, err = execute(t, "replay", "not-a-ksuid", "--config", configPath, "--pebble-dir", dataDir)
	assert.Error(t, err)
}

func TestGenerate_InvalidFlags(t *testing.T) {
	_, configPath := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"--format", "xml"}},
		{"unknown sink", []string{"--sink", "kafka"}},
		{"bad fault rate", []string{"--fault-rate", "1.5"}},
		{"unknown fault", []string{"--fault-rate", "0.1", "--faults", "gremlins"}},
		{"unknown backend", []string{"--backend", "mt19937"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"generate", "--config", configPath, "--sink", "discard"}, tt.args...)
			_, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestInspectCommand(t *testing.T) {
	dir, configPath := setup(t)
	schemaPath := filepath.Join(dir, "schema.json")

	out, err := execute(t, "inspect", "--schema", schemaPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema sensor: 256 bits, 32 bytes per record, little endian")
	assert.Contains(t, out, "crc32c of bits 0-223")
	assert.Contains(t, out, "gateway, pump, valve, meter")

	outDir := filepath.Join(dir, "out")
	_, err = execute(t, "generate", "--config", configPath, "--records", "30", "--out", outDir,
		"--compression", "gzip", "--max-bytes", "330", "--json")
	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(outDir, "*.bin.gz"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	out, err = execute(t, "inspect", "--config", configPath, "--file", files[0], "--samples", "2", "--json")
	require.NoError(t, err)
	var res struct {
		Schema  schemaDescription `json:"schema"`
		Explain struct {
			Compression string          `json:"compression"`
			Stats       json.RawMessage `json:"stats"`
			Samples     []interface{}   `json:"samples"`
		} `json:"explain"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "sensor", res.Schema.Name)
	assert.Len(t, res.Schema.Fields, 10)
	assert.Equal(t, "gzip", res.Explain.Compression)
	assert.Len(t, res.Explain.Samples, 2)
	assert.JSONEq(t, `{"records":10,"skipped":0,"skipped_bytes":0,"decode_errors":0}`, string(res.Explain.Stats))
}

func TestVarintCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"encode unsigned", []string{"varint", "encode", "624485"}, "e58e26"},
		{"encode signed", []string{"varint", "encode", "--signed", "--", "-123456"}, "c0bb78"},
		{"decode unsigned", []string{"varint", "decode", "e58e267f"}, "624485\n127\n"},
		{"decode signed", []string{"varint", "decode", "--signed", "c0bb78"}, "-123456\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	_, err := execute(t, "varint", "decode", "e58e")
	assert.Error(t, err)
	_, err = execute(t, "varint", "decode", "zz")
	assert.Error(t, err)
}

func TestVarintStatsAndFrames(t *testing.T) {
	dir, configPath := setup(t)
	binDir := filepath.Join(dir, "bin")
	lebDir := filepath.Join(dir, "leb")

	_, err := execute(t, "generate", "--config", configPath, "--records", "40", "--out", binDir, "--json")
	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(binDir, "*.bin"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	out, err := execute(t, "varint", "stats", "--config", configPath, "--json", files[0])
	require.NoError(t, err)
	var stats []fieldEstimate
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	names := make([]string, len(stats))
	for i, fe := range stats {
		names[i] = fe.Field
		assert.Equal(t, 40, fe.Estimate.Count)
	}
	assert.Equal(t, []string{"seq", "timestamp", "online", "pressure", "delta", "crc"}, names)
	assert.Equal(t, 40, stats[0].Estimate.Varint, "sequences 0-39 fit one byte each")

	_, err = execute(t, "generate", "--config", configPath, "--records", "40", "--out", lebDir,
		"--format", "varint", "--json")
	require.NoError(t, err)
	files, err = filepath.Glob(filepath.Join(lebDir, "*.leb"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	out, err = execute(t, "varint", "frames", "--config", configPath, files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 40)
	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[39]), &last))
	assert.Equal(t, float64(39), last["_seq"])
	assert.Equal(t, float64(39), last["seq"])
}

func TestServeCommand(t *testing.T) {
	dir, configPath := setup(t)

	stub := &stubFactory{starter: &stubStarter{}}
	c := di.NewContainer()
	c.SetServerFactory(stub)

	_, err := executeWith(t, c, "serve", "--config", configPath, "--port", "9999", "--api-key", "k")
	require.NoError(t, err)
	assert.Equal(t, 9999, stub.starter.config.Port)
	assert.Equal(t, "127.0.0.1", stub.starter.config.Bind)
	assert.Equal(t, "k", stub.starter.config.APIKey)
	assert.Equal(t, "sensor", stub.starter.schema.Name)

	_, err = executeWith(t, c, "serve", "--config", configPath, "--schema", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = executeWith(t, nil, "serve", "--config", configPath)
	assert.Error(t, err)
}

func TestUpCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	configPath := filepath.Join(dir, "conf", "telegen.yaml")

	t.Run("bootstrap on first run", func(t *testing.T) {
		stub := &stubFactory{starter: &stubStarter{}}
		c := di.NewContainer()
		c.SetServerFactory(stub)

		out, err := executeWith(t, c, "up", "--config", configPath, "--print-keys", "--port", "9100")
		require.NoError(t, err)
		assert.Contains(t, out, "First run detected")
		assert.Contains(t, out, "API key:")
		assert.True(t, config.ConfigExists(configPath))
		assert.FileExists(t, filepath.Join(dir, "conf", "schema.json"))

		cfg, err := config.LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, cfg.Server.APIKey, stub.starter.config.APIKey)
		assert.Equal(t, 9100, stub.starter.config.Port)
		assert.Equal(t, "sensor", stub.starter.schema.Name)
	})

	t.Run("load existing config", func(t *testing.T) {
		cfg, created, err := ensureConfig(configPath)
		require.NoError(t, err)
		assert.False(t, created)
		assert.NotEmpty(t, cfg.Server.APIKey)

		stub := &stubFactory{starter: &stubStarter{}}
		c := di.NewContainer()
		c.SetServerFactory(stub)
		out, err := executeWith(t, c, "up", "--config", configPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Loaded existing configuration")
		assert.Equal(t, 8080, stub.starter.config.Port)
	})

	t.Run("broken config", func(t *testing.T) {
		broken := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(broken, []byte("output: [not, a, map]"), 0600))
		_, _, err := ensureConfig(broken)
		assert.Error(t, err)
	})
}
