// Package config resolves loader settings from, in increasing precedence:
// built-in defaults, a .env file, the environment, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Keys double as flag names.
const (
	KeyNeo4jURL      = "neo4j-url"
	KeyNeo4jUser     = "neo4j-user"
	KeyNeo4jPass     = "neo4j-pass"
	KeyNeo4jDatabase = "neo4j-database"
	KeyWorkers       = "workers"
	KeyBatchSize     = "batch-size"
	KeyLogFile       = "log-file"
	KeyErrorLog      = "error-log"
	KeyLogLevel      = "log-level"
	KeyMetricsPort   = "metrics-port"
	KeyWriteRate     = "write-rate"
	KeyNATSURL       = "nats-url"
	KeyDryRun        = "dry-run"
	KeyShutdown      = "shutdown-timeout"
)

var envNames = map[string]string{
	KeyNeo4jURL:      "NEO4J_URL",
	KeyNeo4jUser:     "NEO4J_USER",
	KeyNeo4jPass:     "NEO4J_PASS",
	KeyNeo4jDatabase: "NEO4J_DATABASE",
	KeyWorkers:       "LOADER_WORKERS",
	KeyBatchSize:     "LOADER_BATCH_SIZE",
	KeyLogFile:       "LOADER_LOG_FILE",
	KeyErrorLog:      "LOADER_ERROR_LOG",
	KeyLogLevel:      "LOADER_LOG_LEVEL",
	KeyMetricsPort:   "LOADER_METRICS_PORT",
	KeyWriteRate:     "LOADER_WRITE_RATE",
	KeyNATSURL:       "NATS_URL",
	KeyDryRun:        "LOADER_DRY_RUN",
	KeyShutdown:      "LOADER_SHUTDOWN_TIMEOUT",
}

// Config is the resolved loader configuration.
type Config struct {
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	Neo4jDatabase string

	Workers   int
	BatchSize int // progress is logged every BatchSize documents
	WriteRate float64

	LogFile  string
	ErrorLog string
	LogLevel string

	MetricsPort     int // 0 disables the metrics endpoint
	NATSURL         string
	DryRun          bool
	ShutdownTimeout time.Duration
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Neo4jURL:        "neo4j://localhost:7687",
		Neo4jUser:       "neo4j",
		Workers:         4,
		BatchSize:       500,
		LogFile:         "data_import.log",
		ErrorLog:        "data_import_errors.jsonl",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
	}
}

// RegisterFlags declares one flag per key on fs, defaulting to Defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyNeo4jURL, d.Neo4jURL, "Neo4j bolt URL")
	fs.String(KeyNeo4jUser, d.Neo4jUser, "Neo4j username")
	fs.String(KeyNeo4jPass, d.Neo4jPass, "Neo4j password")
	fs.String(KeyNeo4jDatabase, d.Neo4jDatabase, "Neo4j database (empty for the server default)")
	fs.Int(KeyWorkers, d.Workers, "documents processed concurrently")
	fs.Int(KeyBatchSize, d.BatchSize, "log progress every N documents")
	fs.Float64(KeyWriteRate, d.WriteRate, "max store writes per second (0 for unlimited)")
	fs.String(KeyLogFile, d.LogFile, "rotated log file (empty for stderr only)")
	fs.String(KeyErrorLog, d.ErrorLog, "JSON-lines file receiving rejected documents (empty to disable)")
	fs.String(KeyLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.Int(KeyMetricsPort, d.MetricsPort, "port serving /metrics (0 to disable)")
	fs.String(KeyNATSURL, d.NATSURL, "NATS URL for publishing rejected documents (empty to disable)")
	fs.Bool(KeyDryRun, d.DryRun, "extract and validate into an in-memory store")
	fs.Duration(KeyShutdown, d.ShutdownTimeout, "grace period for in-flight work on shutdown")
}

// Load reads envFile (a missing file is not an error), then resolves every
// key from flags, the environment and defaults. flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	d := Defaults()
	defaults := map[string]any{
		KeyNeo4jURL:      d.Neo4jURL,
		KeyNeo4jUser:     d.Neo4jUser,
		KeyNeo4jPass:     d.Neo4jPass,
		KeyNeo4jDatabase: d.Neo4jDatabase,
		KeyWorkers:       d.Workers,
		KeyBatchSize:     d.BatchSize,
		KeyWriteRate:     d.WriteRate,
		KeyLogFile:       d.LogFile,
		KeyErrorLog:      d.ErrorLog,
		KeyLogLevel:      d.LogLevel,
		KeyMetricsPort:   d.MetricsPort,
		KeyNATSURL:       d.NATSURL,
		KeyDryRun:        d.DryRun,
		KeyShutdown:      d.ShutdownTimeout,
	}
	for key, def := range defaults {
		v.SetDefault(key, def)
		if err := v.BindEnv(key, envNames[key]); err != nil {
			return Config{}, err
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Neo4jURL:        v.GetString(KeyNeo4jURL),
		Neo4jUser:       v.GetString(KeyNeo4jUser),
		Neo4jPass:       v.GetString(KeyNeo4jPass),
		Neo4jDatabase:   v.GetString(KeyNeo4jDatabase),
		Workers:         v.GetInt(KeyWorkers),
		BatchSize:       v.GetInt(KeyBatchSize),
		WriteRate:       v.GetFloat64(KeyWriteRate),
		LogFile:         v.GetString(KeyLogFile),
		ErrorLog:        v.GetString(KeyErrorLog),
		LogLevel:        v.GetString(KeyLogLevel),
		MetricsPort:     v.GetInt(KeyMetricsPort),
		NATSURL:         v.GetString(KeyNATSURL),
		DryRun:          v.GetBool(KeyDryRun),
		ShutdownTimeout: v.GetDuration(KeyShutdown),
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be at least 1, got %d", ErrInvalid, c.BatchSize)
	case c.WriteRate < 0:
		return fmt.Errorf("%w: write rate must not be negative, got %g", ErrInvalid, c.WriteRate)
	case c.MetricsPort < 0 || c.MetricsPort > 65535:
		return fmt.Errorf("%w: metrics port %d out of range", ErrInvalid, c.MetricsPort)
	case !c.DryRun && c.Neo4jURL == "":
		return fmt.Errorf("%w: neo4j url is required unless dry-run is set", ErrInvalid)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// LogValue keeps the password out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("neo4j_url", c.Neo4jURL),
		slog.String("neo4j_user", c.Neo4jUser),
		slog.String("neo4j_database", c.Neo4jDatabase),
		slog.Int("workers", c.Workers),
		slog.Int("batch_size", c.BatchSize),
		slog.Float64("write_rate", c.WriteRate),
		slog.String("log_file", c.LogFile),
		slog.String("error_log", c.ErrorLog),
		slog.Int("metrics_port", c.MetricsPort),
		slog.Bool("nats", c.NATSURL != ""),
		slog.Bool("dry_run", c.DryRun),
	)
}
