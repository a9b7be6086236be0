/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/config"
)

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:         "up",
	Short:       "Bootstrap and start the telegen server",
	Annotations: map[string]string{configAnnotation: configOptional},
	Long: `Bootstrap telegen by creating a configuration and a sample schema if they
don't exist, then start the REST API server. This is the quickest way to get
the codec API running.

The command will:
- Create a configuration file with a fresh API key if missing
- Write a sample schema next to it if missing
- Start the REST API server

Examples:
  telegen up
  telegen up --port 9000
  telegen up --config ./telegen.yaml --print-keys`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		printKeys, _ := cmd.Flags().GetBool("print-keys")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		cfg, created, err := ensureConfig(configPath)
		if err != nil {
			return err
		}
		if created {
			cmd.Printf("🔧 First run detected. Bootstrapping telegen...\n")
			success(cmd, "Configuration created at %s", configPath)
			if printKeys {
				cmd.Printf("\n🔑 API key: %s\n", cfg.Server.APIKey)
				cmd.Printf("⚠️  Store this key securely! It is also saved in %s\n", configPath)
			}
		} else {
			success(cmd, "Loaded existing configuration from %s", configPath)
		}

		withConfig(cmd, cfg, configPath)
		applyServeFlags(cmd, cfg)
		return runServer(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(upCmd)

	upCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	upCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	upCmd.Flags().String("api-key", "", "API key for /api/v1, overrides the configured one")
	upCmd.Flags().Bool("print-keys", false, "Print the generated API key to console")
}

// ensureConfig loads the config at path, bootstrapping it and a sample
// schema first when it does not exist.
func ensureConfig(path string) (*config.Config, bool, error) {
	if config.ConfigExists(path) {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, false, fmt.Errorf("error loading existing config: %w", err)
		}
		return cfg, false, nil
	}
	cfg, err := bootstrap(path, "", false)
	if err != nil {
		return nil, false, fmt.Errorf("error bootstrapping config: %w", err)
	}
	return cfg, true, nil
}
