package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError contains details about a single validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// ValidModes are the allowed execution modes.
var ValidModes = []string{"dry-run", "execute"}

// ValidLogLevels are the allowed log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the whole configuration and returns every error found,
// not just the first. Returns nil if the configuration is valid.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, ValidateConnection(cfg.Connection)...)
	errs = append(errs, ValidatePolicy(cfg.Policy)...)
	errs = append(errs, ValidateExecution(cfg.Execution)...)
	errs = append(errs, ValidateLogging(cfg.Logging)...)
	errs = append(errs, ValidateDaemon(cfg.Daemon)...)
	errs = append(errs, ValidateNotify(cfg.Notify)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateConnection checks the WebUI connection settings.
func ValidateConnection(conn ConnectionConfig) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateHTTPURL("connection.endpoint", conn.Endpoint, true)...)

	if conn.Timeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "connection.timeout",
			Message: "must be >= 0",
		})
	}

	return errs
}

// ValidatePolicy checks retention policy constraints.
func ValidatePolicy(pol PolicyConfig) []ValidationError {
	var errs []ValidationError

	if pol.MinAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "policy.min_age_days",
			Message: "must be >= 0",
		})
	}

	if pol.MinRatio < 0 {
		errs = append(errs, ValidationError{
			Field:   "policy.min_ratio",
			Message: "must be >= 0",
		})
	}

	return errs
}

// ValidateExecution checks execution mode and report settings.
func ValidateExecution(exec ExecutionConfig) []ValidationError {
	var errs []ValidationError

	if !contains(ValidModes, exec.Mode) {
		errs = append(errs, ValidationError{
			Field:   "execution.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", ValidModes, exec.Mode),
		})
	}

	if exec.MaxReport <= 0 {
		errs = append(errs, ValidationError{
			Field:   "execution.max_report",
			Message: "must be > 0",
		})
	}

	return errs
}

// ValidateLogging checks logging configuration.
func ValidateLogging(log LoggingConfig) []ValidationError {
	var errs []ValidationError

	if log.Level != "" && !contains(ValidLogLevels, log.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", ValidLogLevels, log.Level),
		})
	}

	return errs
}

// ValidateDaemon checks daemon configuration.
func ValidateDaemon(d DaemonConfig) []ValidationError {
	var errs []ValidationError

	if d.Enabled {
		if d.Schedule == "" {
			errs = append(errs, ValidationError{
				Field:   "daemon.schedule",
				Message: "schedule is required when daemon mode is enabled",
			})
		} else if err := ValidateSchedule(d.Schedule); err != nil {
			errs = append(errs, ValidationError{
				Field:   "daemon.schedule",
				Message: fmt.Sprintf("invalid schedule %q: %v", d.Schedule, err),
			})
		}
	}

	if d.HTTPAddr != "" {
		if _, _, err := net.SplitHostPort(d.HTTPAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "daemon.http_addr",
				Message: fmt.Sprintf("invalid address %q: %v", d.HTTPAddr, err),
			})
		}
	}

	return errs
}

// ValidateNotify checks webhook notification settings.
func ValidateNotify(n NotifyConfig) []ValidationError {
	var errs []ValidationError

	if n.WebhookURL != "" {
		errs = append(errs, validateHTTPURL("notify.webhook_url", n.WebhookURL, false)...)
	}
	if n.Timeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "notify.timeout",
			Message: "must be >= 0",
		})
	}

	return errs
}

// ValidateSchedule parses a daemon schedule: a standard cron expression or
// the @every <duration> form.
func ValidateSchedule(s string) error {
	_, err := cron.ParseStandard(s)
	return err
}

func validateHTTPURL(field, raw string, required bool) []ValidationError {
	if raw == "" {
		if !required {
			return nil
		}
		return []ValidationError{{Field: field, Message: "URL is required"}}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme)}}
	}
	if u.Host == "" {
		return []ValidationError{{Field: field, Message: "URL is missing a host"}}
	}
	return nil
}

// contains checks if a string slice contains a value.
func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
