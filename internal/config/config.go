// Package config loads graphmirror settings from a YAML file and
// GRAPHMIRROR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/graphmirror/internal/reconcile"
)

const (
	configFileName = "graphmirror"
	configFileType = "yaml"
	envPrefix      = "GRAPHMIRROR"

	defaultDatabase   = "graphmirror.db"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Config keys. Environment variables use the upper-cased key with dots
// replaced by underscores, e.g. GRAPHMIRROR_LOG_LEVEL.
const (
	KeyDatabase      = "database"
	KeyViewer        = "viewer"
	KeyFixture       = "fixture"
	KeyMetricsFile   = "metrics_file"
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"
	KeyLogFile       = "log.file"
	KeyLogMaxSizeMB  = "log.max_size_mb"
	KeyLogMaxBackups = "log.max_backups"
	KeyLogMaxAgeDays = "log.max_age_days"
	KeyBatchUser     = "batch.user"
	KeyBatchLike     = "batch.like"
	KeyBatchAlbum    = "batch.album"
	KeyBatchPhoto    = "batch.photo"
	KeyBatchLink     = "batch.link"
)

// Config is the resolved configuration.
type Config struct {
	Database    string               `mapstructure:"database"`
	Viewer      string               `mapstructure:"viewer"`
	Fixture     string               `mapstructure:"fixture"`
	MetricsFile string               `mapstructure:"metrics_file"`
	Log         Log                  `mapstructure:"log"`
	Batch       reconcile.BatchSizes `mapstructure:"batch"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Log configures the CLI's slog handler.
type Log struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Load reads configuration. An explicit path must exist; otherwise
// graphmirror.yaml is looked up in the working directory and then in
// $HOME/.config/graphmirror, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "graphmirror"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	batch := reconcile.DefaultBatchSizes()

	v.SetDefault(KeyDatabase, defaultDatabase)
	v.SetDefault(KeyViewer, "")
	v.SetDefault(KeyFixture, "")
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFormat, defaultLogFormat)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogMaxSizeMB, defaultMaxSizeMB)
	v.SetDefault(KeyLogMaxBackups, defaultMaxBackups)
	v.SetDefault(KeyLogMaxAgeDays, defaultMaxAgeDays)
	v.SetDefault(KeyBatchUser, batch.User)
	v.SetDefault(KeyBatchLike, batch.Like)
	v.SetDefault(KeyBatchAlbum, batch.Album)
	v.SetDefault(KeyBatchPhoto, batch.Photo)
	v.SetDefault(KeyBatchLink, batch.Link)
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.New("config: database must not be empty")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for name, n := range map[string]int{
		KeyBatchUser:  c.Batch.User,
		KeyBatchLike:  c.Batch.Like,
		KeyBatchAlbum: c.Batch.Album,
		KeyBatchPhoto: c.Batch.Photo,
		KeyBatchLink:  c.Batch.Link,
	} {
		if n <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", name, n)
		}
	}
	return nil
}
