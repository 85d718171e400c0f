package config

import (
	"fmt"
	"strings"

	"github.com/kartingops/laptimeoor/pkg/slug"
	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultDatabaseDriver is the default store driver.
	DefaultDatabaseDriver = "sqlite"

	// DefaultSourceDir is the default local leaderboard directory.
	DefaultSourceDir = "."

	// DefaultProgressEvery is the default driver-progress logging interval.
	DefaultProgressEvery = 500

	// envPrefix prefixes all environment overrides.
	envPrefix = "LAPTIMEOOR"
)

// Config is the root configuration for laptimeoor.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Source   SourceConfig   `yaml:"source,omitempty" mapstructure:"source"`
	Sync     SyncConfig     `yaml:"sync,omitempty" mapstructure:"sync"`
	Tracks   []TrackConfig  `yaml:"tracks" mapstructure:"tracks"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// DatabaseConfig selects the store driver and its connection string. The
// DSN may come from the file or from LAPTIMEOOR_DATABASE_DSN/DATABASE_URL;
// without one the run refuses to start.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// SourceConfig selects where leaderboard exports are read from. At most one
// backend may be configured; local with the current directory is the
// default.
type SourceConfig struct {
	Local *LocalSourceConfig `yaml:"local,omitempty" mapstructure:"local"`
	S3    *S3SourceConfig    `yaml:"s3,omitempty" mapstructure:"s3"`
}

// LocalSourceConfig reads leaderboard exports from a directory.
type LocalSourceConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// S3SourceConfig reads leaderboard exports from S3-compatible storage.
type S3SourceConfig struct {
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// SyncConfig tunes the sync run.
type SyncConfig struct {
	ProgressEvery int    `yaml:"progress_every,omitempty" mapstructure:"progress_every"`
	SummaryFile   string `yaml:"summary_file,omitempty" mapstructure:"summary_file"`
}

// TrackConfig is one entry of the static track catalog.
type TrackConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Location    string `yaml:"location,omitempty" mapstructure:"location"`
	CSVPath     string `yaml:"csv_path" mapstructure:"csv_path"`
	Description string `yaml:"description,omitempty" mapstructure:"description"`
}

// Slug returns the track's stable identifier derived from its name.
func (t *TrackConfig) Slug() string {
	return slug.Make(t.Name)
}

// envKeys are the scalar settings overridable from the process environment
// (key "global.log_level" becomes LAPTIMEOOR_GLOBAL_LOG_LEVEL).
var envKeys = []string{
	"global.log_level",
	"database.driver",
	"source.local.dir",
	"source.s3.bucket",
	"source.s3.prefix",
	"source.s3.endpoint_url",
	"source.s3.region",
	"source.s3.access_key_id",
	"source.s3.secret_access_key",
	"sync.progress_every",
	"sync.summary_file",
}

// Load reads a configuration file, layers environment overrides on top and
// applies defaults. Validation is separate so callers can inspect the
// effective configuration of an invalid file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding environment for %s: %w", key, err)
		}
	}

	// The DSN is also honored from the conventional DATABASE_URL.
	if err := v.BindEnv("database.dsn", envPrefix+"_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("binding environment for database.dsn: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDatabaseDriver
	}

	if c.Source.Local == nil && c.Source.S3 == nil {
		c.Source.Local = &LocalSourceConfig{}
	}

	if c.Source.Local != nil && c.Source.Local.Dir == "" {
		c.Source.Local.Dir = DefaultSourceDir
	}

	if c.Sync.ProgressEvery <= 0 {
		c.Sync.ProgressEvery = DefaultProgressEvery
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver %q (use \"sqlite\" or \"postgres\")", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required (set database.dsn or %s_DATABASE_DSN)", envPrefix)
	}

	if c.Source.Local != nil && c.Source.S3 != nil {
		return fmt.Errorf("source.local and source.s3 are mutually exclusive")
	}

	if c.Source.S3 != nil && c.Source.S3.Bucket == "" {
		return fmt.Errorf("source.s3.bucket is required")
	}

	if len(c.Tracks) == 0 {
		return fmt.Errorf("at least one track must be configured")
	}

	seen := make(map[string]string, len(c.Tracks))

	for i, track := range c.Tracks {
		if track.Name == "" {
			return fmt.Errorf("track %d: name is required", i)
		}

		if track.CSVPath == "" {
			return fmt.Errorf("track %q: csv_path is required", track.Name)
		}

		trackSlug := track.Slug()
		if trackSlug == "" {
			return fmt.Errorf("track %q: name yields an empty slug", track.Name)
		}

		if other, ok := seen[trackSlug]; ok {
			return fmt.Errorf("tracks %q and %q share the slug %q", other, track.Name, trackSlug)
		}

		seen[trackSlug] = track.Name
	}

	return nil
}
