/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/config"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
)

// sampleSchema is written by init. It exercises every field type and a
// CRC over the rest of the record.
const sampleSchema = `{
  // written by telegen init, edit freely
  "schema_name": "sensor",
  "endianness": "little",
  "total_bits": 256,
  "validation": {"crc32c": {"field": "crc", "range_bits": "0-223"}},

  "seq":         {"type": "uint32", "pos": "0-31", "desc": "record sequence"},
  "timestamp":   {"type": "time", "pos": "32-95"},
  "device":      {"type": "enum", "pos": "96-97", "values": ["gateway", "pump", "valve", "meter"]},
  "status":      {"type": "enum", "pos": "98-99", "values": ["ok", "warn", "fail"]},
  "online":      {"type": "bool", "pos": "100"},
  "temperature": {"type": "float32", "pos": "104-135"},
  "pressure":    {"type": "uint16", "pos": "136-151"},
  "delta":       {"type": "int", "bits": 16, "pos": "152-167"},
  "label":       {"type": "string", "max_length": 7, "pos": "168-223"},
  "crc":         {"type": "uint32", "pos": "224-255"},
}
`

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:         "init",
	Annotations: map[string]string{configAnnotation: configOptional},
	Short:       "Create a config file and a sample schema",
	Long: `Initialize telegen for local use.

This command will:
- Write a sample schema covering every field type
- Create a configuration file pointing at it, with a fresh API key

Examples:
  telegen init
  telegen init --config ./telegen.yaml --schema-out ./schemas/sensor.json
  telegen init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		schemaOut, _ := cmd.Flags().GetString("schema-out")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		cfg, err := bootstrap(configPath, schemaOut, force)
		if err != nil {
			return err
		}

		success(cmd, "telegen initialized")
		cmd.Printf("Config: %s\n", configPath)
		cmd.Printf("Schema: %s\n", cfg.SchemaPath(configPath))
		cmd.Printf("API key: %s\n", cfg.Server.APIKey)
		cmd.Printf("\nGenerate records with:\n  telegen generate --config %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("schema-out", "", "Where to write the sample schema (default: next to the config)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config and schema")
}

// bootstrap writes the sample schema unless one exists and then a fresh
// config that refers to it.
func bootstrap(configPath, schemaOut string, force bool) (*config.Config, error) {
	if schemaOut == "" {
		schemaOut = filepath.Join(filepath.Dir(configPath), "schema.json")
	}
	if err := writeSampleSchema(schemaOut, force); err != nil {
		return nil, err
	}

	// the config stores the schema relative to its own directory
	ref, err := relativeTo(filepath.Dir(configPath), schemaOut)
	if err != nil {
		return nil, err
	}
	return config.BootstrapConfig(configPath, ref)
}

func writeSampleSchema(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		if _, err := schema.CompileFile(path); err != nil {
			return fmt.Errorf("existing schema %s does not compile: %w", path, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create schema directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleSchema), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}

func relativeTo(dir, path string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return absPath, nil
	}
	return rel, nil
}
