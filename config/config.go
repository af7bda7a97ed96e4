package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/spektr-org/iaqdash/schema"
)

// Config holds the application's configuration.
type Config struct {
	Addr            string   // IAQ_ADDR
	DataPath        string   // IAQ_DATA_PATH, CSV served by GET /api/v1/dashboard
	ProfilePath     string   // IAQ_PROFILE, YAML dataset profile
	TimestampLayout string   // IAQ_TIMESTAMP_LAYOUT, overrides the profile
	LogLevel        string   // IAQ_LOG_LEVEL
	MaxUploadMB     int      // IAQ_MAX_UPLOAD_MB
	CORSOrigins     []string // IAQ_CORS_ORIGINS, comma separated
	HistogramBins   int      // IAQ_HISTOGRAM_BINS, overrides the profile
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		MaxUploadMB: 32,
		CORSOrigins: []string{"*"},
	}
}

// Load reads .env files (".env" when none are given) and then the
// environment. Missing .env files are not an error; variables already set in
// the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("IAQ_ADDR"); v != "" {
		cfg.Addr = v
	}
	cfg.DataPath = getenv("IAQ_DATA_PATH")
	cfg.ProfilePath = getenv("IAQ_PROFILE")
	cfg.TimestampLayout = getenv("IAQ_TIMESTAMP_LAYOUT")
	if v := getenv("IAQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("IAQ_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var err error
	if cfg.MaxUploadMB, err = intVar(getenv, "IAQ_MAX_UPLOAD_MB", cfg.MaxUploadMB); err != nil {
		return Config{}, err
	}
	if cfg.HistogramBins, err = intVar(getenv, "IAQ_HISTOGRAM_BINS", 0); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and the log level.
func (c Config) Validate() error {
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("IAQ_MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.HistogramBins < 0 || c.HistogramBins > schema.MaxHistogramBins {
		return fmt.Errorf("IAQ_HISTOGRAM_BINS must be between 0 and %d, got %d", schema.MaxHistogramBins, c.HistogramBins)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := schema.NormalizeLayout(c.TimestampLayout); err != nil {
		return fmt.Errorf("IAQ_TIMESTAMP_LAYOUT: %w", err)
	}
	return nil
}

// MaxUploadBytes is the request body limit.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("IAQ_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// Logger returns a colorized slog logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.Level()
	return slog.New(tint.NewHandler(w, &tint.Options{Level: level}))
}

// Profile loads the dataset profile (the default one when no path is set)
// and applies the environment overrides.
func (c Config) Profile() (schema.Profile, error) {
	profile := schema.DefaultProfile()
	if c.ProfilePath != "" {
		var err error
		if profile, err = schema.LoadProfile(c.ProfilePath); err != nil {
			return schema.Profile{}, err
		}
	}
	if c.TimestampLayout != "" {
		profile.TimestampLayout = c.TimestampLayout
	}
	if c.HistogramBins > 0 {
		profile.HistogramBins = c.HistogramBins
	}
	if err := profile.Validate(); err != nil {
		return schema.Profile{}, err
	}
	return profile, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
