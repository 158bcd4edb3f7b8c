package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for seedsweep.
type Config struct {
	Version    int              `yaml:"version"`
	Connection ConnectionConfig `yaml:"connection"`
	Policy     PolicyConfig     `yaml:"policy"`
	Execution  ExecutionConfig  `yaml:"execution"`
	Logging    LoggingConfig    `yaml:"logging"`
	Daemon     DaemonConfig     `yaml:"daemon"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Notify     NotifyConfig     `yaml:"notify"`
}

// ConnectionConfig configures the qBittorrent WebUI connection.
type ConnectionConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PolicyConfig configures the retention policy.
type PolicyConfig struct {
	MinAgeDays int     `yaml:"min_age_days"`
	MinRatio   float64 `yaml:"min_ratio"`
}

// ExecutionConfig configures execution behavior.
type ExecutionConfig struct {
	Mode        string `yaml:"mode"` // "dry-run" or "execute"
	AuditPath   string `yaml:"audit_path"`
	AuditDBPath string `yaml:"audit_db_path"`
	MaxReport   int    `yaml:"max_report"` // plan lines printed in the report
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Output string `yaml:"output"` // "stderr", "stdout", or file path
}

// DaemonConfig configures daemon mode.
type DaemonConfig struct {
	Enabled  bool   `yaml:"enabled"`
	HTTPAddr string `yaml:"http_addr"`
	Schedule string `yaml:"schedule"` // cron expression or @every duration
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// NotifyConfig configures run-summary webhooks.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Default returns a Config with the same defaults the CLI flags carry.
func Default() *Config {
	return &Config{
		Version: 1,
		Connection: ConnectionConfig{
			Endpoint: "http://127.0.0.1:8080",
			Username: "admin",
			Password: "adminadmin",
			Timeout:  30 * time.Second,
		},
		Policy: PolicyConfig{
			MinAgeDays: 100,
			MinRatio:   10.0,
		},
		Execution: ExecutionConfig{
			Mode:      "dry-run",
			MaxReport: 25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
		},
		Daemon: DaemonConfig{
			Enabled:  false,
			HTTPAddr: ":8086",
			Schedule: "",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Load reads a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from path if it exists, otherwise returns defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// FindConfigFile searches for a config file in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"seedsweep.yaml",
		"seedsweep.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "seedsweep", "config.yaml"),
		"/etc/seedsweep/config.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
