package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/vehicle-tracker/internal/pkg/validation"
)

// Route source kinds.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Source    SourceConfig    `mapstructure:"source"`
	Database  DatabaseConfig  `mapstructure:"database"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Render    RenderConfig    `mapstructure:"render"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  int    `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout int    `mapstructure:"write_timeout" validate:"gt=0"`
	AllowOrigins string `mapstructure:"allow_origins" validate:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// SourceConfig selects where the route is read from.
type SourceConfig struct {
	Kind     string `mapstructure:"kind" validate:"oneof=file sqlite postgres"`
	DataFile string `mapstructure:"data_file"`
	CacheTTL int    `mapstructure:"cache_ttl" validate:"gte=0"` // seconds, 0 disables caching
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type NATSConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// PlaybackConfig drives the player and replayer binaries.
type PlaybackConfig struct {
	Interval  time.Duration `mapstructure:"interval" validate:"gt=0"`
	VehicleID string        `mapstructure:"vehicle_id" validate:"required"`
	SourceURL string        `mapstructure:"source_url" validate:"required,url"`
}

// RenderConfig places directional arrows as fractions of the path length.
type RenderConfig struct {
	ArrowOffset float64 `mapstructure:"arrow_offset" validate:"gte=0,lte=1"`
	ArrowRepeat float64 `mapstructure:"arrow_repeat" validate:"gte=0,lte=1"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port" validate:"required"`
	Namespace string `mapstructure:"namespace" validate:"required"`
	TaskQueue string `mapstructure:"task_queue" validate:"required"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("source.kind", SourceFile)
	v.SetDefault("source.data_file", "data/locations.json")
	v.SetDefault("source.cache_ttl", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "vehicletrack")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "vehicletrack")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("sqlite.path", "data/locations.db")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("playback.interval", "1s")
	v.SetDefault("playback.vehicle_id", "vehicle-1")
	v.SetDefault("playback.source_url", "http://localhost:5000/api/vehicle-location")
	v.SetDefault("render.arrow_offset", 0.26)
	v.SetDefault("render.arrow_repeat", 0)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "vehicle-replay")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: VEHICLETRACK_SOURCE_KIND → source.kind
	v.SetEnvPrefix("VEHICLETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Bare PORT is honoured for PaaS-style deployments.
	_ = v.BindEnv("server.port", "VEHICLETRACK_SERVER_PORT", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if err := validation.Struct(c); err != nil {
		errs = append(errs, strings.Split(err.Error(), "; ")...)
	}

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.DataFile == "" {
			errs = append(errs, "source.data_file is required for the file source")
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, "sqlite.path is required for the sqlite source")
		}
	case SourcePostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
