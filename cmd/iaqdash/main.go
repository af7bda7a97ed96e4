package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iaqdash/config"
	"github.com/spektr-org/iaqdash/schema"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "iaqdash",
	Short: "iaqdash - indoor air quality dashboards from sensor CSV exports",
	Long: `iaqdash loads indoor air quality readings (temperature, humidity, CO2,
PM2.5, occupancy, motion, ventilation status) from a CSV export and builds
dashboard charts, tables and summary metrics, either as a one-shot render
or behind an HTTP API.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	envFile     string
	profilePath string
	layout      string
	logLevel    string
)

// Resolved by setup before any command runs.
var (
	cfg     config.Config
	profile schema.Profile
	logger  *slog.Logger
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env", "", "load variables from this .env file (default .env)")
	flags.StringVar(&profilePath, "profile", "", "YAML dataset profile (overrides IAQ_PROFILE)")
	flags.StringVar(&layout, "layout", "", `timestamp layout, Go or strftime form, e.g. "%d-%m-%Y %H:%M"`)
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides IAQ_LOG_LEVEL)")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if envFile != "" {
		cfg, err = config.Load(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if profilePath != "" {
		cfg.ProfilePath = profilePath
	}
	if layout != "" {
		cfg.TimestampLayout = layout
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = cfg.Logger(os.Stderr)
	if profile, err = cfg.Profile(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	logger.Debug("configuration loaded", "profile", profile.Name, "layout", profile.TimestampLayout)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
