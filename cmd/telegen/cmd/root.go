/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/config"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/di"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/logging"
)

type contextKey string

const (
	configKey     contextKey = "config"
	configPathKey contextKey = "config-path"
	loggerKey     contextKey = "logger"
)

// Commands annotated with configOptional run with defaults when the
// --config file does not exist yet.
const (
	configAnnotation = "config"
	configOptional   = "optional"
)

var container *di.Container

// SetContainer sets the dependency injection container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "telegen",
	Short: "telegen - schema-driven synthetic telemetry generator",
	Long: `telegen generates synthetic telemetry records from a JSON schema and
packs them bit-exactly into fixed-size binary records. It can also decode,
inspect and replay record streams and serve the codec over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		level, _ := cmd.Flags().GetString("log-level")
		logFormat, _ := cmd.Flags().GetString("log-format")

		if cmd.Annotations[configAnnotation] == configOptional && configPath != "" && !config.ConfigExists(configPath) {
			configPath = ""
		}
		cfg, path, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = level
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Logging.Format = logFormat
		}
		logger := logging.New(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cmd.ErrOrStderr(),
		})

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = context.WithValue(ctx, configKey, cfg)
		ctx = context.WithValue(ctx, configPathKey, path)
		ctx = context.WithValue(ctx, loggerKey, logger)
		cmd.SetContext(ctx)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default: OS-specific location if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
}

// loadConfig reads an explicit config file, falls back to the default
// location when it exists and to built-in defaults otherwise.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		def := config.GetDefaultConfigPath()
		if !config.ConfigExists(def) {
			return config.DefaultConfig(), "", nil
		}
		path = def
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, path, nil
}

func configFrom(cmd *cobra.Command) (*config.Config, string) {
	ctx := cmd.Context()
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
			path, _ := ctx.Value(configPathKey).(string)
			return cfg, path
		}
	}
	return config.DefaultConfig(), ""
}

func loggerFrom(cmd *cobra.Command) logrus.FieldLogger {
	if ctx := cmd.Context(); ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*logrus.Logger); ok {
			return l
		}
	}
	return logging.Default()
}

// withConfig replaces the configuration carried by the command context
func withConfig(cmd *cobra.Command, cfg *config.Config, path string) {
	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	cmd.SetContext(context.WithValue(ctx, configPathKey, path))
}
