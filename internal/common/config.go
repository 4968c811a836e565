// Package common provides shared utilities for stockdash
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Price sources understood by MarketConfig.PriceSource.
const (
	PriceSourceEODHD = "eodhd"
	PriceSourceYahoo = "yahoo"
)

// Config holds all configuration for stockdash
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Clients     ClientsConfig `toml:"clients"`
	Market      MarketConfig  `toml:"market"`
	Engine      EngineConfig  `toml:"engine"`
	Upload      UploadConfig  `toml:"upload"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
	Yahoo YahooConfig `toml:"yahoo"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// MarketConfig selects upstream sources and the annual return window.
type MarketConfig struct {
	PriceSource  string `toml:"price_source"`  // "eodhd" or "yahoo"
	ReturnWindow string `toml:"return_window"` // trailing period for annual returns, e.g. "5y"
}

// EngineConfig controls how the analytics engine schedules its sub-fetches.
type EngineConfig struct {
	Concurrent bool `toml:"concurrent"`
}

// UploadConfig bounds the CSV summary endpoint.
type UploadConfig struct {
	MaxBytes    int64 `toml:"max_bytes"`
	PreviewRows int   `toml:"preview_rows"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 2,
				Timeout:   "30s",
			},
		},
		Market: MarketConfig{
			PriceSource:  PriceSourceEODHD,
			ReturnWindow: "5y",
		},
		Engine: EngineConfig{
			Concurrent: true,
		},
		Upload: UploadConfig{
			MaxBytes:    10 << 20,
			PreviewRows: 20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "./logs/stockdash.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validatePriceSource(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKDASH_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKDASH_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKDASH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKDASH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if src := os.Getenv("STOCKDASH_PRICE_SOURCE"); src != "" {
		config.Market.PriceSource = strings.ToLower(src)
	}

	if v := os.Getenv("STOCKDASH_ENGINE_CONCURRENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Engine.Concurrent = b
		}
	}

	for _, name := range []string{"EODHD_API_KEY", "STOCKDASH_EODHD_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			config.Clients.EODHD.APIKey = key
			break
		}
	}
}

// validatePriceSource ensures PriceSource is "eodhd" or "yahoo", defaulting to "eodhd".
func validatePriceSource(config *Config) {
	src := strings.ToLower(strings.TrimSpace(config.Market.PriceSource))
	if src != PriceSourceEODHD && src != PriceSourceYahoo {
		src = PriceSourceEODHD
	}
	config.Market.PriceSource = src
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateRequired returns the names of required settings that are missing.
// The Yahoo price source needs no key, but fundamentals always come from EODHD.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if strings.TrimSpace(c.Clients.EODHD.APIKey) == "" {
		missing = append(missing, "clients.eodhd.api_key")
	}
	return missing
}
