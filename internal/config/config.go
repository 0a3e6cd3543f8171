// Package config loads worklens configuration.
//
// Values are layered, lowest precedence first:
//   - built-in defaults
//   - a YAML config file (--config, or ./worklens.yaml when present)
//   - .env files, which only fill variables the environment does not set
//   - WORKLENS_* environment variables ("database.path" is WORKLENS_DATABASE_PATH)
//   - command-line flags that were explicitly set
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/worklens/internal/querysql"
	"github.com/roach88/worklens/internal/schema"
	"github.com/roach88/worklens/internal/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WORKLENS"

// DefaultConfigName is the config file looked up in the working directory
// when none is given explicitly.
const DefaultConfigName = "worklens"

// Config is the complete application configuration.
type Config struct {
	Database DatabaseConfig     `mapstructure:"database"`
	Log      LogConfig          `mapstructure:"log"`
	Epic     schema.Conventions `mapstructure:"epic"`
	HTTP     HTTPConfig         `mapstructure:"http"`
	Report   ReportConfig       `mapstructure:"report"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn"`
}

// LogConfig controls logging. An empty Dir disables the log file.
type LogConfig struct {
	Dir     string `mapstructure:"dir"`
	Verbose bool   `mapstructure:"verbose"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// ReportConfig bounds report requests.
type ReportConfig struct {
	// MaxLimit caps the page size the API accepts. Zero means no cap.
	MaxLimit int64 `mapstructure:"max_limit"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{Driver: "sqlite", Path: "worklens.db"},
		Epic:     schema.DefaultConventions(),
		HTTP:     HTTPConfig{Addr: ":8080"},
		Report:   ReportConfig{MaxLimit: 1000},
	}
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist.
	ConfigFile string

	// SearchPaths are searched for worklens.yaml when ConfigFile is empty.
	// A missing file there is not an error.
	SearchPaths []string

	// EnvFiles are .env files to load. Missing files are skipped.
	EnvFiles []string

	// Flags maps config keys to command-line flags. A flag overrides the
	// key only when it was set on the command line.
	Flags map[string]*pflag.Flag
}

// Load builds the configuration from every layer.
func Load(opts LoadOptions) (*Config, error) {
	for _, f := range opts.EnvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if len(opts.SearchPaths) > 0 {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Epic = cfg.Epic.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv and Unmarshal see
// keys no config file mentions.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.verbose", d.Log.Verbose)
	v.SetDefault("epic.link_type", d.Epic.EpicLinkType)
	v.SetDefault("epic.name_field", d.Epic.EpicNameField)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("report.max_limit", d.Report.MaxLimit)
}

// Validate checks values that Load cannot coerce.
func (c *Config) Validate() error {
	d, err := querysql.ParseDialect(c.Database.Driver)
	if err != nil {
		return fmt.Errorf("invalid config: database.driver: %w", err)
	}
	switch d {
	case querysql.Postgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("invalid config: database.dsn is required for the postgres driver")
		}
	default:
		if c.Database.Path == "" {
			return fmt.Errorf("invalid config: database.path is required for the sqlite driver")
		}
	}
	if c.Report.MaxLimit < 0 {
		return fmt.Errorf("invalid config: report.max_limit must not be negative, got %d", c.Report.MaxLimit)
	}
	return nil
}

// Dialect returns the SQL dialect of the configured driver.
func (c *Config) Dialect() querysql.Dialect {
	d, _ := querysql.ParseDialect(c.Database.Driver)
	return d
}

// OpenStore opens the configured database.
func (c *Config) OpenStore(ctx context.Context) (*store.Store, error) {
	if c.Dialect() == querysql.Postgres {
		return store.OpenPostgres(ctx, c.Database.DSN)
	}
	return store.Open(c.Database.Path)
}
