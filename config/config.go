package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database"
	zshttp "github.com/sagarc03/zipstream/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for zipstream.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	Archive ArchiveConfig     `mapstructure:"archive"`
	Index   IndexConfig       `mapstructure:"index"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
	History  HistoryConfig     `mapstructure:"history"`
	Database database.Config   `mapstructure:"database"`
	CORS     zshttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig         `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// ArchiveConfig holds the archive directory and compression process settings.
type ArchiveConfig struct {
	Path        string        `mapstructure:"path" validate:"required"`
	Executable  string        `mapstructure:"executable" validate:"required"`
	Args        []string      `mapstructure:"args"`
	ChunkSize   int           `mapstructure:"chunk_size" validate:"min=1"`
	Delay       time.Duration `mapstructure:"delay" validate:"min=0"`
	GracePeriod time.Duration `mapstructure:"grace_period" validate:"gt=0"`
	MaxJobs     int64         `mapstructure:"max_jobs" validate:"min=0"`
}

// Command returns the compression command described by the config.
func (a ArchiveConfig) Command() zipstream.ArchiveCommand {
	return zipstream.ArchiveCommand{
		Executable: a.Executable,
		Args:       append([]string(nil), a.Args...),
	}
}

// IndexConfig holds the landing page configuration.
type IndexConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HistoryConfig controls recording of finished jobs to the database.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// AutoMigrate creates the history tables on serve instead of requiring
	// "zipstream init".
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format  string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":         "server.port",
	"photos-dir":   "archive.path",
	"delay":        "archive.delay",
	"executable":   "archive.executable",
	"chunk-size":   "archive.chunk_size",
	"max-jobs":     "archive.max_jobs",
	"logging":      "log.enabled",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"index":        "index.path",
	"metrics":      "metrics.enabled",
	"grace-period": "archive.grace_period",
	"history":      "history.enabled",
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
}

// legacyEnv lists environment variable names understood for compatibility
// with older deployments, in addition to the ZIPSTREAM_ names.
var legacyEnv = map[string]string{
	"archive.path": "PHOTOS_DIRECTORY",
	"log.enabled":  "LOGGING_ENABLED",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func bindLegacyEnv(v *viper.Viper) {
	for key, legacy := range legacyEnv {
		primary := "ZIPSTREAM_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, primary, legacy)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("archive.path", "./test_photos")
	v.SetDefault("archive.executable", zipstream.DefaultArchiveCommand.Executable)
	v.SetDefault("archive.args", zipstream.DefaultArchiveCommand.Args)
	v.SetDefault("archive.chunk_size", zipstream.DefaultChunkSize)
	v.SetDefault("archive.delay", 0)
	v.SetDefault("archive.grace_period", zipstream.DefaultGracePeriod)
	v.SetDefault("archive.max_jobs", 0) // 0 means no limit

	v.SetDefault("index.path", "")
	v.SetDefault("metrics.enabled", true)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.auto_migrate", false)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "zipstream.db")
	v.SetDefault("database.tables.jobs", "zipstream_jobs")

	v.SetDefault("log.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("ZIPSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
