package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/vehicle-tracker/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("vehicletrack-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Source.Kind != config.SourceFile {
		t.Errorf("expected file source, got %s", cfg.Source.Kind)
	}
	if cfg.Playback.Interval != time.Second {
		t.Errorf("expected 1s interval, got %v", cfg.Playback.Interval)
	}
	if cfg.Render.ArrowOffset != 0.26 || cfg.Render.ArrowRepeat != 0 {
		t.Errorf("unexpected render pattern: %+v", cfg.Render)
	}
	if cfg.Telemetry.ServiceName != "vehicletrack-test" {
		t.Errorf("expected service name, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	cfg, err := config.Load("vehicletrack-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Server.Port)
	}
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("VEHICLETRACK_SERVER_PORT", "7100")
	t.Setenv("VEHICLETRACK_PLAYBACK_INTERVAL", "250ms")
	cfg, err := config.Load("vehicletrack-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("expected port 7100, got %d", cfg.Server.Port)
	}
	if cfg.Playback.Interval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Playback.Interval)
	}
}

func TestLoad_InvalidSourceKind(t *testing.T) {
	t.Setenv("VEHICLETRACK_SOURCE_KIND", "mongo")
	_, err := config.Load("vehicletrack-test")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "Source.Kind") {
		t.Errorf("expected Source.Kind in error, got %q", err.Error())
	}
}

func validConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 5000, ReadTimeout: 10, WriteTimeout: 10, AllowOrigins: "*"},
		Log:      config.LogConfig{Level: "info", Format: "json"},
		Source:   config.SourceConfig{Kind: config.SourceFile, DataFile: "data/locations.json"},
		NATS:     config.NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   config.ValkeyConfig{Addr: "localhost:6379"},
		Playback: config.PlaybackConfig{Interval: time.Second, VehicleID: "v", SourceURL: "http://localhost:5000/api/vehicle-location"},
		Render:   config.RenderConfig{ArrowOffset: 0.26},
		Temporal: config.TemporalConfig{HostPort: "localhost:7233", Namespace: "default", TaskQueue: "q"},
	}
}

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_ConfigFile(t *testing.T) {
	writeConfig(t, "server:\n  port: 6100\n")
	cfg, err := config.Load("vehicletrack-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6100 {
		t.Errorf("expected port 6100 from file, got %d", cfg.Server.Port)
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	writeConfig(t, "server:\n  port: [6100\n")
	if _, err := config.Load("vehicletrack-test"); err == nil {
		t.Fatal("expected error for malformed config file")
	} else if !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected read config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, "Server.Port"},
		{"bad arrow offset", func(c *config.Config) { c.Render.ArrowOffset = 1.5 }, "Render.ArrowOffset"},
		{"zero interval", func(c *config.Config) { c.Playback.Interval = 0 }, "Playback.Interval"},
		{"postgres without host", func(c *config.Config) {
			c.Source.Kind = config.SourcePostgres
			c.Database = config.DatabaseConfig{Port: 5432, User: "u", DBName: "d"}
		}, "database.host is required"},
		{"sqlite without path", func(c *config.Config) { c.Source.Kind = config.SourceSQLite }, "sqlite.path is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	want := "postgres://u:p@db:5432/n?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
