// Package config holds the settings every bot built on core shares. Values
// come from a YAML file and are then overridden from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Update sources.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback = "callback"
	UpdateMessage  = "message"
)

// TelegramConfig identifies the bot and how it receives updates.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds of 0 means the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig is required when RunMode is webhook.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig feeds logger.Init.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile is "debug", "dev" or "prod"; debug and dev default to key=value output.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// MetricsConfig controls the Prometheus scrape endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
	Path   string `yaml:"path" envconfig:"METRICS_PATH"`
}

// RateLimitConfig spaces out updates per user. IntervalMS of 0 disables it.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config is the core section of a bot config.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load decodes and normalizes a core-only config file.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if err := Decode(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals the YAML file at path into out and applies environment
// overrides. out may be any struct that embeds Config.
func Decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := envconfig.Process("", out); err != nil {
		return fmt.Errorf("config: env overrides: %w", err)
	}
	return nil
}

// Normalize validates cfg and fills in defaults in place.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("config: telegram token is required")
	}
	for _, step := range []func() error{cfg.normalizeRunMode, cfg.RateLimit.normalize, cfg.Metrics.normalize} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) normalizeRunMode() error {
	mode := strings.ToLower(strings.TrimSpace(c.Telegram.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if c.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("config: telegram.longpoll_timeout_seconds must be >= 0")
		}
		c.Telegram.RunMode = RunModeLongpoll
	case RunModeWebhook:
		var missing []string
		if strings.TrimSpace(c.Webhook.URL) == "" {
			missing = append(missing, "webhook.url")
		}
		if strings.TrimSpace(c.Webhook.Listen) == "" {
			missing = append(missing, "webhook.listen")
		}
		if c.Webhook.Port <= 0 {
			missing = append(missing, "webhook.port")
		}
		if len(missing) > 0 {
			return fmt.Errorf("config: webhook mode requires %s", strings.Join(missing, ", "))
		}
		c.Telegram.RunMode = RunModeWebhook
	default:
		return fmt.Errorf("config: invalid telegram.run_mode %q; allowed: webhook, longpoll", c.Telegram.RunMode)
	}
	return nil
}

func (r *RateLimitConfig) normalize() error {
	allowed := []string{UpdateCallback, UpdateMessage}
	for i, kind := range r.ExcludeUpdates {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind != "" && !slices.Contains(allowed, kind) {
			return fmt.Errorf("config: invalid rate_limit.exclude_updates value %q; allowed: %s", r.ExcludeUpdates[i], strings.Join(allowed, ", "))
		}
		r.ExcludeUpdates[i] = kind
	}
	return nil
}

func (m *MetricsConfig) normalize() error {
	m.Listen = strings.TrimSpace(m.Listen)
	if m.Listen == "" {
		return nil
	}
	m.Path = strings.TrimSpace(m.Path)
	if m.Path == "" {
		m.Path = "/metrics"
	}
	if !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("config: metrics.path must start with '/', got %q", m.Path)
	}
	return nil
}
