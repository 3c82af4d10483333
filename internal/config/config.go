// Package config is the MyDotaInfo configuration: the shared core settings
// plus the stats provider, Steam, report and startup sections.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	"github.com/m3rciful/mydotainfo/core/telegram/format"
)

const (
	defaultOpenDotaURL = "https://api.opendota.com/api"
	defaultSteamURL    = "https://api.steampowered.com"
	defaultLanguage    = "en_us"
	defaultTimeoutMS   = 10000
	defaultMaxMatches  = 20
	defaultWarmupMS    = 30000
)

// OpenDotaConfig points at the stats provider.
type OpenDotaConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"OPENDOTA_BASE_URL"`
	// APIKey is optional; anonymous access is rate limited harder.
	APIKey    string `yaml:"api_key" envconfig:"OPENDOTA_API_KEY"`
	TimeoutMS int    `yaml:"timeout_ms" envconfig:"OPENDOTA_TIMEOUT_MS"`
}

// SteamConfig points at the Steam Web API.
type SteamConfig struct {
	BaseURL   string `yaml:"base_url" envconfig:"STEAM_BASE_URL"`
	APIKey    string `yaml:"api_key" envconfig:"STEAM_API_KEY"`
	Language  string `yaml:"language" envconfig:"STEAM_LANGUAGE"`
	TimeoutMS int    `yaml:"timeout_ms" envconfig:"STEAM_TIMEOUT_MS"`
}

// ReportsConfig bounds report output.
type ReportsConfig struct {
	MessageLimit int `yaml:"message_limit" envconfig:"REPORTS_MESSAGE_LIMIT"`
	MaxMatches   int `yaml:"max_matches" envconfig:"REPORTS_MAX_MATCHES"`
}

// BootstrapConfig controls the hero table warmup at startup.
type BootstrapConfig struct {
	// WarmupMS is the total time spent retrying the warmup; 0 selects the default.
	WarmupMS int `yaml:"warmup_ms" envconfig:"BOOTSTRAP_WARMUP_MS"`
	// RequireHeroes aborts startup when the hero table cannot be loaded.
	RequireHeroes bool `yaml:"require_heroes" envconfig:"BOOTSTRAP_REQUIRE_HEROES"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	OpenDota  OpenDotaConfig  `yaml:"opendota"`
	Steam     SteamConfig     `yaml:"steam"`
	Reports   ReportsConfig   `yaml:"reports"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// OpenDotaTimeout returns the stats provider request timeout.
func (c *Config) OpenDotaTimeout() time.Duration {
	return time.Duration(c.OpenDota.TimeoutMS) * time.Millisecond
}

// SteamTimeout returns the Steam request timeout.
func (c *Config) SteamTimeout() time.Duration {
	return time.Duration(c.Steam.TimeoutMS) * time.Millisecond
}

// WarmupBudget returns how long the hero table warmup may retry.
func (c *Config) WarmupBudget() time.Duration {
	return time.Duration(c.Bootstrap.WarmupMS) * time.Millisecond
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.OpenDota.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.OpenDota.BaseURL), "/")
	if cfg.OpenDota.BaseURL == "" {
		cfg.OpenDota.BaseURL = defaultOpenDotaURL
	}
	cfg.OpenDota.APIKey = strings.TrimSpace(cfg.OpenDota.APIKey)
	if cfg.OpenDota.TimeoutMS < 0 {
		return fmt.Errorf("opendota.timeout_ms must be >= 0")
	}
	if cfg.OpenDota.TimeoutMS == 0 {
		cfg.OpenDota.TimeoutMS = defaultTimeoutMS
	}

	cfg.Steam.APIKey = strings.TrimSpace(cfg.Steam.APIKey)
	if cfg.Steam.APIKey == "" {
		return fmt.Errorf("steam.api_key is required")
	}
	cfg.Steam.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Steam.BaseURL), "/")
	if cfg.Steam.BaseURL == "" {
		cfg.Steam.BaseURL = defaultSteamURL
	}
	cfg.Steam.Language = strings.TrimSpace(cfg.Steam.Language)
	if cfg.Steam.Language == "" {
		cfg.Steam.Language = defaultLanguage
	}
	if cfg.Steam.TimeoutMS < 0 {
		return fmt.Errorf("steam.timeout_ms must be >= 0")
	}
	if cfg.Steam.TimeoutMS == 0 {
		cfg.Steam.TimeoutMS = defaultTimeoutMS
	}

	switch {
	case cfg.Reports.MessageLimit < 0 || cfg.Reports.MessageLimit > format.MessageLimit:
		return fmt.Errorf("reports.message_limit must be within 1..%d", format.MessageLimit)
	case cfg.Reports.MessageLimit == 0:
		cfg.Reports.MessageLimit = format.MessageLimit
	}
	switch {
	case cfg.Reports.MaxMatches < 0 || cfg.Reports.MaxMatches > defaultMaxMatches:
		return fmt.Errorf("reports.max_matches must be within 1..%d", defaultMaxMatches)
	case cfg.Reports.MaxMatches == 0:
		cfg.Reports.MaxMatches = defaultMaxMatches
	}

	if cfg.Bootstrap.WarmupMS < 0 {
		return fmt.Errorf("bootstrap.warmup_ms must be >= 0")
	}
	if cfg.Bootstrap.WarmupMS == 0 {
		cfg.Bootstrap.WarmupMS = defaultWarmupMS
	}
	return nil
}
