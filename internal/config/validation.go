package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FieldError is one invalid setting.
type FieldError struct {
	Key    string
	Value  string
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields []FieldError
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationErrors) add(key string, value any, reason string) {
	e.Fields = append(e.Fields, FieldError{Key: key, Value: fmt.Sprint(value), Reason: reason})
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("  - %s=%q: %s\n", f.Key, f.Value, f.Reason))
	}
	sb.WriteString(fmt.Sprintf("\nSettings can be overridden with %s_<SECTION>_<KEY> env vars.\n", EnvPrefix))

	return sb.String()
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs.add("backend.base_url", c.Backend.BaseURL, "must be an absolute http(s) URL")
	}
	if c.Backend.TimeoutSec < 1 {
		errs.add("backend.timeout_sec", c.Backend.TimeoutSec, "must be >= 1")
	}
	if c.Backend.RetryCount < 0 {
		errs.add("backend.retry_count", c.Backend.RetryCount, "must be >= 0")
	}
	if c.Backend.RatePerSecond < 1 {
		errs.add("backend.rate_per_second", c.Backend.RatePerSecond, "must be >= 1")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs.add("server.port", c.Server.Port, "must be a TCP port")
	}

	if c.Table.PageLength < 1 {
		errs.add("table.page_length", c.Table.PageLength, "must be >= 1")
	}
	if c.Table.FixedColumns < 0 {
		errs.add("table.fixed_columns", c.Table.FixedColumns, "must be >= 0")
	}

	if c.Chart.PrimaryRatio <= 0 || c.Chart.PrimaryRatio >= 1 {
		errs.add("chart.primary_ratio", c.Chart.PrimaryRatio, "must be between 0 and 1")
	}
	if c.Chart.HistoryDays < 1 {
		errs.add("chart.history_days", c.Chart.HistoryDays, "must be >= 1")
	}
	if c.Chart.Width < 1 || c.Chart.Height < 1 {
		errs.add("chart.width/height", fmt.Sprintf("%dx%d", c.Chart.Width, c.Chart.Height), "must be positive")
	}

	if c.Export.Workers < 1 {
		errs.add("export.workers", c.Export.Workers, "must be >= 1")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs.add("logging.level", c.Logging.Level, "must be one of debug, info, warn, error")
	}

	if c.Notify.Enabled {
		if c.Notify.Topic == "" {
			errs.add("notify.topic", c.Notify.Topic, "is required when notify.enabled is true")
		}
		switch c.Notify.Priority {
		case "min", "low", "default", "high", "urgent":
		default:
			errs.add("notify.priority", c.Notify.Priority, "must be one of min, low, default, high, urgent")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
