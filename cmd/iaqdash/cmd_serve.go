package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iaqdash/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	Long: `Start the HTTP API. POST a CSV to /api/v1/dashboard to render it, or set
IAQ_DATA_PATH (--data) to serve a fixed file on GET /api/v1/dashboard.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr string
	serveData string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides IAQ_ADDR)")
	serveCmd.Flags().StringVar(&serveData, "data", "", "CSV served by GET /api/v1/dashboard (overrides IAQ_DATA_PATH)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveData != "" {
		cfg.DataPath = serveData
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, profile, logger).ListenAndServe(ctx)
}
