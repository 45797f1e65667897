// Package config loads and validates service configuration. Every policy
// value the slot generator and the enforcer share (timezone, business hours,
// buffers, capacity) lives here exactly once and is injected at construction
// time.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mannabook/internal/models"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		DebugEndpoints bool     `yaml:"debug_endpoints"`
	} `yaml:"server"`

	Booking struct {
		Timezone           string `yaml:"timezone"`
		BusinessHoursStart int    `yaml:"business_hours_start"`
		BusinessHoursEnd   int    `yaml:"business_hours_end"`
		PrepMinutes        int    `yaml:"prep_minutes"`
		CleanMinutes       int    `yaml:"clean_minutes"`
		MaxConcurrent      int    `yaml:"max_concurrent"`
	} `yaml:"booking"`

	Calendar struct {
		CalendarID         string  `yaml:"calendar_id"`
		CredentialsJSON    string  `yaml:"credentials_json"`
		CredentialsFile    string  `yaml:"credentials_file"`
		RequestTimeoutSecs int     `yaml:"request_timeout_seconds"`
		RequestsPerSecond  float64 `yaml:"requests_per_second"`
		RequestBurst       int     `yaml:"request_burst"`
	} `yaml:"calendar"`

	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		PublicURL     string `yaml:"public_url"`
	} `yaml:"stripe"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Audit struct {
		Enabled             bool   `yaml:"enabled"`
		Path                string `yaml:"path"`
		ExportDir           string `yaml:"export_dir"`
		ExportRetentionDays int    `yaml:"export_retention_days"`
	} `yaml:"audit"`

	Telegram struct {
		BotToken       string `yaml:"bot_token"`
		ManagersChatID int64  `yaml:"managers_chat_id"`
	} `yaml:"telegram"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err = cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "America/Los_Angeles"
	}
	if c.Booking.BusinessHoursStart == 0 && c.Booking.BusinessHoursEnd == 0 {
		c.Booking.BusinessHoursStart = 9
		c.Booking.BusinessHoursEnd = 22
	}
	if c.Booking.PrepMinutes == 0 {
		c.Booking.PrepMinutes = 60
	}
	if c.Booking.CleanMinutes == 0 {
		c.Booking.CleanMinutes = 60
	}
	if c.Booking.MaxConcurrent == 0 {
		c.Booking.MaxConcurrent = 2
	}
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = "primary"
	}
	if c.Calendar.RequestTimeoutSecs == 0 {
		c.Calendar.RequestTimeoutSecs = 10
	}
	if c.Calendar.RequestsPerSecond == 0 {
		c.Calendar.RequestsPerSecond = 5
	}
	if c.Calendar.RequestBurst == 0 {
		c.Calendar.RequestBurst = 10
	}
}

func (c *Config) validate() error {
	if c.Booking.BusinessHoursStart < 0 || c.Booking.BusinessHoursEnd > 23 {
		return fmt.Errorf("business hours out of range: %d..%d", c.Booking.BusinessHoursStart, c.Booking.BusinessHoursEnd)
	}
	if c.Booking.BusinessHoursStart > c.Booking.BusinessHoursEnd {
		return fmt.Errorf("business hours start %d after end %d", c.Booking.BusinessHoursStart, c.Booking.BusinessHoursEnd)
	}
	if c.Booking.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be >= 1, got %d", c.Booking.MaxConcurrent)
	}
	if c.Booking.PrepMinutes < 0 || c.Booking.CleanMinutes < 0 {
		return fmt.Errorf("negative buffer minutes")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Booking.Timezone, err)
	}
	return nil
}

// Location resolves the resource timezone. All civil-to-absolute conversion
// goes through this zone, never the server's local one.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Booking.Timezone)
}

func (c *Config) PrepBuffer() time.Duration {
	return time.Duration(c.Booking.PrepMinutes) * time.Minute
}

func (c *Config) CleanBuffer() time.Duration {
	return time.Duration(c.Booking.CleanMinutes) * time.Minute
}

func (c *Config) CapacityPolicy() models.CapacityPolicy {
	return models.CapacityPolicy{MaxConcurrent: c.Booking.MaxConcurrent}
}

func (c *Config) CalendarTimeout() time.Duration {
	return time.Duration(c.Calendar.RequestTimeoutSecs) * time.Second
}

// CalendarCredentials returns the service-account JSON, from the inline
// value or the referenced file.
func (c *Config) CalendarCredentials() ([]byte, error) {
	if c.Calendar.CredentialsJSON != "" {
		return []byte(c.Calendar.CredentialsJSON), nil
	}
	if c.Calendar.CredentialsFile != "" {
		return os.ReadFile(c.Calendar.CredentialsFile)
	}
	return nil, fmt.Errorf("calendar credentials not configured")
}
