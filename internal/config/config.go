// Package config handles configuration loading for Money-Mitra.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"`
	News      NewsConfig      `mapstructure:"news"      yaml:"news"`
	Watchlist WatchlistConfig `mapstructure:"watchlist" yaml:"watchlist"`
	Report    ReportConfig    `mapstructure:"report"    yaml:"report"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProvidersConfig holds data-provider settings. Order is the provider
// priority: the first provider in the list that can serve a data kind
// is tried first, the rest are fallbacks.
type ProvidersConfig struct {
	Order          []string `mapstructure:"order"            yaml:"order"`
	EODHDToken     string   `mapstructure:"eodhd_token"      yaml:"eodhd_token"`
	RetryBudget    int      `mapstructure:"retry_budget"     yaml:"retry_budget"`
	BackoffInitial int      `mapstructure:"backoff_initial_ms" yaml:"backoff_initial_ms"`
	BackoffMax     int      `mapstructure:"backoff_max_ms"   yaml:"backoff_max_ms"`
	CacheTTL       int      `mapstructure:"cache_ttl"        yaml:"cache_ttl"` // seconds
}

// LLMConfig holds summarizer settings.
type LLMConfig struct {
	OpenAIKey string `mapstructure:"openai_key" yaml:"openai_key"`
	BaseURL   string `mapstructure:"base_url"   yaml:"base_url"`
	Model     string `mapstructure:"model"      yaml:"model"`
}

// NewsConfig holds news aggregation settings.
type NewsConfig struct {
	Limit int `mapstructure:"limit" yaml:"limit"` // max articles per report
}

// WatchlistConfig holds watchlist persistence settings.
type WatchlistConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // sqlite file path
}

// ReportConfig holds report assembly settings.
type ReportConfig struct {
	SectionTimeoutSec int `mapstructure:"section_timeout_sec" yaml:"section_timeout_sec"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// Debug reports whether debug-level logging is enabled.
func (l LoggingConfig) Debug() bool {
	return l.Level == "debug"
}

// Quiet reports whether routine diagnostic logging should be
// suppressed. Errors still surface through command and handler results.
func (l LoggingConfig) Quiet() bool {
	return l.Level == "warn" || l.Level == "error"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.moneymitra/config.yaml (home directory)
//  3. /etc/moneymitra/config.yaml (system)
//
// Environment variables override config file values.
// Format: MONEYMITRA_<SECTION>_<KEY>, e.g. MONEYMITRA_PROVIDERS_EODHD_TOKEN
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile reads the configuration from an explicit file, or from
// the default search paths when path is empty. An explicit file that
// cannot be read is an error; a missing default file is not.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MONEYMITRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(filepath.Join(homeDir(), ".moneymitra"))
		v.AddConfigPath("/etc/moneymitra")

		// Config file not existing is fine; defaults + env vars apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("providers.order", []string{"yfinance", "screener", "eodhd"})
	v.SetDefault("providers.retry_budget", 3)
	v.SetDefault("providers.backoff_initial_ms", 500)
	v.SetDefault("providers.backoff_max_ms", 8000)
	v.SetDefault("providers.cache_ttl", 300)

	v.SetDefault("llm.model", "gpt-4o-mini")

	v.SetDefault("news.limit", 25)

	v.SetDefault("watchlist.path", filepath.Join(homeDir(), ".moneymitra", "watchlist.db"))

	v.SetDefault("report.section_timeout_sec", 45)

	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8742)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
}

// BackoffInitialDuration returns the initial retry backoff.
func (p ProvidersConfig) BackoffInitialDuration() time.Duration {
	return time.Duration(p.BackoffInitial) * time.Millisecond
}

// BackoffMaxDuration returns the backoff cap.
func (p ProvidersConfig) BackoffMaxDuration() time.Duration {
	return time.Duration(p.BackoffMax) * time.Millisecond
}

// CacheTTLDuration returns the provider payload cache TTL, or 0 when
// unset so providers fall back to their own defaults.
func (p ProvidersConfig) CacheTTLDuration() time.Duration {
	if p.CacheTTL <= 0 {
		return 0
	}
	return time.Duration(p.CacheTTL) * time.Second
}

// SectionTimeout returns the per-section fetch timeout.
func (r ReportConfig) SectionTimeout() time.Duration {
	return time.Duration(r.SectionTimeoutSec) * time.Second
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
