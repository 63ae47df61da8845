package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "OPTDASH"

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Server  ServerConfig  `mapstructure:"server"`
	Table   TableConfig   `mapstructure:"table"`
	Chart   ChartConfig   `mapstructure:"chart"`
	Export  ExportConfig  `mapstructure:"export"`
	Logging LoggingConfig `mapstructure:"logging"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

type BackendConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelay    int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

func (b BackendConfig) RetryDelayDuration() time.Duration {
	return time.Duration(b.RetryDelay) * time.Second
}

type ServerConfig struct {
	Port            string `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
	SessionTTLMin   int    `mapstructure:"session_ttl_min"`
	WSEnabled       bool   `mapstructure:"ws_enabled"`
}

type TableConfig struct {
	PageLength   int `mapstructure:"page_length"`
	FixedColumns int `mapstructure:"fixed_columns"`
}

type ChartConfig struct {
	PrimaryRatio    float64 `mapstructure:"primary_ratio"`
	OscillatorLabel string  `mapstructure:"oscillator_label"`
	HistoryDays     int     `mapstructure:"history_days"`
	Width           int     `mapstructure:"width"`
	Height          int     `mapstructure:"height"`
}

type ExportConfig struct {
	Directory string `mapstructure:"directory"`
	Workers   int    `mapstructure:"workers"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

// NotifyConfig configures ntfy messages sent when an export batch ends.
type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Topic    string `mapstructure:"topic"`
	Priority string `mapstructure:"priority"`
	Tags     string `mapstructure:"tags"`
	Token    string `mapstructure:"token"`
}

// Load reads an optional .env file, then the config file, then
// OPTDASH_* environment overrides.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout_sec", 30)
	v.SetDefault("backend.retry_count", 2)
	v.SetDefault("backend.retry_delay_sec", 1)
	v.SetDefault("backend.rate_per_second", 10)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_sec", 15)
	v.SetDefault("server.write_timeout_sec", 60)
	v.SetDefault("server.session_ttl_min", 120)
	v.SetDefault("server.ws_enabled", true)
	v.SetDefault("table.page_length", 50)
	v.SetDefault("table.fixed_columns", 1)
	v.SetDefault("chart.primary_ratio", 0.72)
	v.SetDefault("chart.oscillator_label", "RSI (40)")
	v.SetDefault("chart.history_days", 40)
	v.SetDefault("chart.width", 1200)
	v.SetDefault("chart.height", 640)
	v.SetDefault("export.directory", "exports")
	v.SetDefault("export.workers", 3)
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.topic", "")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "bar_chart")
	v.SetDefault("notify.token", "")

	// Environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dashboard")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
