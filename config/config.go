package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "FRAMEBRIDGE_"
	// EnvConfigFile names an optional YAML file loaded before the environment.
	EnvConfigFile = EnvPrefix + "CONFIG"

	DefaultChunkSize = 65536
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

type Config struct {
	LogLevel  string       `koanf:"log_level"`
	LogFormat string       `koanf:"log_format"`
	Workers   int          `koanf:"workers"`
	ChunkSize int          `koanf:"chunk_size"`
	DuckDB    DuckDBConfig `koanf:"duckdb"`
	S3        S3Config     `koanf:"s3"`
	HTTP      HTTPConfig   `koanf:"http"`
}

type DuckDBConfig struct {
	// DSN passed to the DuckDB connector; empty means in-memory.
	DSN string `koanf:"dsn"`
}

// S3Config contains S3 authentication configuration
type S3Config struct {
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"` // Optional: custom S3-compatible endpoint
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_level":    DefaultLogLevel,
		"log_format":   DefaultLogFormat,
		"workers":      0,
		"chunk_size":   DefaultChunkSize,
		"duckdb.dsn":   "",
		"http.timeout": "5m",
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg, err := load(koanf.New("."), "", nil)
	if err != nil {
		// defaults alone always decode
		panic(err)
	}
	return cfg
}

// Load reads defaults, then cfgFile (or the file named by FRAMEBRIDGE_CONFIG
// when cfgFile is empty), then FRAMEBRIDGE_* environment variables.
// Nested keys use a double underscore: FRAMEBRIDGE_S3__REGION -> s3.region.
func Load(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		cfgFile = os.Getenv(EnvConfigFile)
	}
	return load(koanf.New("."), cfgFile, env.Provider(EnvPrefix, ".", envKey))
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func load(k *koanf.Koanf, cfgFile string, envProvider koanf.Provider) (*Config, error) {
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if envProvider != nil {
		if err := k.Load(envProvider, nil); err != nil {
			return nil, fmt.Errorf("failed to load env vars: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", cfg.LogFormat)
	}
	return nil
}

// levelOff disables logging entirely.
const levelOff = slog.Level(100)

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "off", "none":
		return levelOff, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", s)
}

// NewLogger builds the structured logger described by the configuration.
func (cfg *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil || level == levelOff {
		return slog.New(slog.DiscardHandler)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
