package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config must validate, got: %v", err)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seedsweep.yaml")

	data := `
version: 1
connection:
  endpoint: http://seedbox:9091
policy:
  min_age_days: 30
  min_ratio: 2.5
execution:
  mode: execute
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Connection.Endpoint != "http://seedbox:9091" {
		t.Errorf("endpoint = %q", cfg.Connection.Endpoint)
	}
	if cfg.Policy.MinAgeDays != 30 || cfg.Policy.MinRatio != 2.5 {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if cfg.Execution.Mode != "execute" {
		t.Errorf("mode = %q", cfg.Execution.Mode)
	}
	// untouched sections keep their defaults
	if cfg.Connection.Username != "admin" {
		t.Errorf("username default lost: %q", cfg.Connection.Username)
	}
	if cfg.Execution.MaxReport != 25 {
		t.Errorf("max_report default lost: %d", cfg.Execution.MaxReport)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("connection: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Policy.MinAgeDays != 100 {
		t.Errorf("expected defaults, got %+v", cfg.Policy)
	}
}

func TestValidateConnection(t *testing.T) {
	tests := []struct {
		name    string
		conn    ConnectionConfig
		wantErr string
	}{
		{"valid", ConnectionConfig{Endpoint: "http://127.0.0.1:8080", Timeout: time.Second}, ""},
		{"empty endpoint", ConnectionConfig{}, "connection.endpoint"},
		{"bad scheme", ConnectionConfig{Endpoint: "ftp://x"}, "connection.endpoint"},
		{"no host", ConnectionConfig{Endpoint: "http://"}, "connection.endpoint"},
		{"negative timeout", ConnectionConfig{Endpoint: "http://x", Timeout: -time.Second}, "connection.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateConnection(tt.conn)
			assertFieldError(t, errs, tt.wantErr)
		})
	}
}

func TestValidatePolicy(t *testing.T) {
	tests := []struct {
		name    string
		pol     PolicyConfig
		wantErr string
	}{
		{"valid", PolicyConfig{MinAgeDays: 100, MinRatio: 10}, ""},
		{"zero thresholds are legal", PolicyConfig{}, ""},
		{"negative age", PolicyConfig{MinAgeDays: -1}, "policy.min_age_days"},
		{"negative ratio", PolicyConfig{MinRatio: -0.5}, "policy.min_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFieldError(t, ValidatePolicy(tt.pol), tt.wantErr)
		})
	}
}

func TestValidateExecution(t *testing.T) {
	tests := []struct {
		name    string
		exec    ExecutionConfig
		wantErr string
	}{
		{"dry-run", ExecutionConfig{Mode: "dry-run", MaxReport: 10}, ""},
		{"execute", ExecutionConfig{Mode: "execute", MaxReport: 10}, ""},
		{"unknown mode", ExecutionConfig{Mode: "simulate", MaxReport: 10}, "execution.mode"},
		{"zero max report", ExecutionConfig{Mode: "dry-run"}, "execution.max_report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFieldError(t, ValidateExecution(tt.exec), tt.wantErr)
		})
	}
}

func TestValidateDaemon(t *testing.T) {
	tests := []struct {
		name    string
		d       DaemonConfig
		wantErr string
	}{
		{"disabled ignores schedule", DaemonConfig{}, ""},
		{"every syntax", DaemonConfig{Enabled: true, Schedule: "@every 6h"}, ""},
		{"cron syntax", DaemonConfig{Enabled: true, Schedule: "0 */6 * * *"}, ""},
		{"enabled without schedule", DaemonConfig{Enabled: true}, "daemon.schedule"},
		{"bad schedule", DaemonConfig{Enabled: true, Schedule: "whenever"}, "daemon.schedule"},
		{"bad addr", DaemonConfig{HTTPAddr: "8080"}, "daemon.http_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFieldError(t, ValidateDaemon(tt.d), tt.wantErr)
		})
	}
}

func TestValidateNotify(t *testing.T) {
	tests := []struct {
		name    string
		n       NotifyConfig
		wantErr string
	}{
		{"empty is fine", NotifyConfig{}, ""},
		{"valid webhook", NotifyConfig{WebhookURL: "https://hooks.example.com/x"}, ""},
		{"bad webhook", NotifyConfig{WebhookURL: "not-a-url"}, "notify.webhook_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFieldError(t, ValidateNotify(tt.n), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Connection.Endpoint = ""
	cfg.Policy.MinAgeDays = -1
	cfg.Execution.Mode = "maybe"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	for _, field := range []string{"connection.endpoint", "policy.min_age_days", "execution.mode"} {
		if !strings.Contains(msg, field) {
			t.Errorf("error message missing %q:\n%s", field, msg)
		}
	}
}

func assertFieldError(t *testing.T, errs []ValidationError, wantField string) {
	t.Helper()

	if wantField == "" {
		if len(errs) != 0 {
			t.Fatalf("expected no errors, got %v", errs)
		}
		return
	}
	for _, e := range errs {
		if e.Field == wantField {
			return
		}
	}
	t.Fatalf("expected error on %q, got %v", wantField, errs)
}
