package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_DefaultMarket(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Market.PriceSource != PriceSourceEODHD {
		t.Errorf("Market.PriceSource = %q, want %q", cfg.Market.PriceSource, PriceSourceEODHD)
	}
	if cfg.Market.ReturnWindow != "5y" {
		t.Errorf("Market.ReturnWindow = %q, want 5y", cfg.Market.ReturnWindow)
	}
	if !cfg.Engine.Concurrent {
		t.Error("Engine.Concurrent should default to true")
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("STOCKDASH_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("STOCKDASH_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestConfig_EODHDKeyEnvOverride(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.EODHD.APIKey != "from-env" {
		t.Errorf("EODHD.APIKey = %q, want %q", cfg.Clients.EODHD.APIKey, "from-env")
	}
}

func TestConfig_EngineConcurrentEnvOverride(t *testing.T) {
	t.Setenv("STOCKDASH_ENGINE_CONCURRENT", "false")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Engine.Concurrent {
		t.Error("Engine.Concurrent should be false after env override")
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockdash.toml")
	content := `
environment = "production"

[server]
port = 7000

[market]
price_source = "yahoo"
return_window = "3y"

[clients.eodhd]
api_key = "file-key"
timeout = "5s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STOCKDASH_PORT", "7100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment from file")
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want env value 7100", cfg.Server.Port)
	}
	if cfg.Market.PriceSource != PriceSourceYahoo {
		t.Errorf("Market.PriceSource = %q, want yahoo", cfg.Market.PriceSource)
	}
	if cfg.Market.ReturnWindow != "3y" {
		t.Errorf("Market.ReturnWindow = %q, want 3y", cfg.Market.ReturnWindow)
	}
	if cfg.Clients.EODHD.APIKey != "file-key" {
		t.Errorf("EODHD.APIKey = %q, want file-key", cfg.Clients.EODHD.APIKey)
	}
	if cfg.Clients.EODHD.GetTimeout() != 5*time.Second {
		t.Errorf("EODHD timeout = %v, want 5s", cfg.Clients.EODHD.GetTimeout())
	}
	// Defaults survive for keys the file does not set
	if cfg.Clients.Yahoo.BaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("Yahoo.BaseURL = %q, want default", cfg.Clients.Yahoo.BaseURL)
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadConfig_UnknownPriceSourceFallsBack(t *testing.T) {
	t.Setenv("STOCKDASH_PRICE_SOURCE", "bloomberg")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Market.PriceSource != PriceSourceEODHD {
		t.Errorf("Market.PriceSource = %q, want eodhd", cfg.Market.PriceSource)
	}
}

func TestConfig_GetTimeoutInvalid(t *testing.T) {
	c := YahooConfig{Timeout: "soon"}
	if c.GetTimeout() != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s fallback", c.GetTimeout())
	}
}

func TestConfig_ValidateRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	if missing := cfg.ValidateRequired(); len(missing) != 1 {
		t.Errorf("expected 1 missing field, got %v", missing)
	}
	cfg.Clients.EODHD.APIKey = "key"
	if missing := cfg.ValidateRequired(); len(missing) != 0 {
		t.Errorf("expected no missing fields, got %v", missing)
	}
}

func TestLoadVersionFile(t *testing.T) {
	origVersion, origBuild := Version, Build
	t.Cleanup(func() { Version, Build = origVersion, origBuild })
	Version, Build = "dev", "unknown"

	path := filepath.Join(t.TempDir(), ".version")
	if err := os.WriteFile(path, []byte("# comment\nversion: 1.2.3\nbuild: 2026-10-01\n"), 0644); err != nil {
		t.Fatalf("write version: %v", err)
	}
	loadVersionFile(path)

	if Version != "1.2.3" || Build != "2026-10-01" {
		t.Errorf("got version=%q build=%q", Version, Build)
	}
}
