/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/api"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the codec REST API server",
	Long: `Start the telegen REST API server for a schema. The API encodes JSON values
into binary records, decodes records back and estimates varint sizes.

Requests to /api/v1 must carry X-API-Key when an API key is configured.
Prometheus metrics are served on /metrics.

Examples:
  telegen serve --schema ./schema.json --port 8080
  telegen serve --api-key=mysecretkey --bind 0.0.0.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := configFrom(cmd)
		applyServeFlags(cmd, cfg)
		return runServer(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("schema", "s", "", "Schema file (default: from config)")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key for /api/v1 (empty disables authentication)")
	serveCmd.Flags().Bool("verify", false, "Report CRC mismatches on decode")
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("bind") {
		cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Server.APIKey, _ = cmd.Flags().GetString("api-key")
	}
}

// runServer loads the schema and blocks serving the API until interrupted
func runServer(cmd *cobra.Command, cfg *config.Config) error {
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}
	cs, err := commandCodecs(cmd)
	if err != nil {
		return err
	}
	if cfg.Server.APIKey == "" {
		warn(cmd, "No API key configured, /api/v1 is open")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("🚀 Starting telegen server on %s:%d for schema %q (%d bytes per record)\n",
		cfg.Server.Bind, cfg.Server.Port, cs.schema.Name, cs.schema.Size())

	reg := container.Registry()
	starter := container.GetServerFactory().CreateServerStarter(reg, reg)
	return starter.StartServer(ctx, cs.enc, cs.dec, api.ServerConfig{
		Port:        cfg.Server.Port,
		Bind:        cfg.Server.Bind,
		APIKey:      cfg.Server.APIKey,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
}
