package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"yfinance", "screener", "eodhd"}
	if len(cfg.Providers.Order) != len(want) {
		t.Fatalf("provider order: got %v", cfg.Providers.Order)
	}
	for i, w := range want {
		if cfg.Providers.Order[i] != w {
			t.Errorf("order[%d]: got %q want %q", i, cfg.Providers.Order[i], w)
		}
	}
	if cfg.Providers.RetryBudget != 3 {
		t.Errorf("retry budget: got %d", cfg.Providers.RetryBudget)
	}
	if cfg.Providers.BackoffInitialDuration() != 500*time.Millisecond {
		t.Errorf("backoff initial: got %s", cfg.Providers.BackoffInitialDuration())
	}
	if cfg.API.Port != 8742 {
		t.Errorf("api port: got %d", cfg.API.Port)
	}
	if cfg.Report.SectionTimeout() != 45*time.Second {
		t.Errorf("section timeout: got %s", cfg.Report.SectionTimeout())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MONEYMITRA_PROVIDERS_RETRY_BUDGET", "7")
	t.Setenv("MONEYMITRA_API_PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.RetryBudget != 7 {
		t.Errorf("env override retry budget: got %d", cfg.Providers.RetryBudget)
	}
	if cfg.API.Port != 9001 {
		t.Errorf("env override api port: got %d", cfg.API.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "providers:\n  retry_budget: 9\napi:\n  port: 9100\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Providers.RetryBudget != 9 {
		t.Errorf("retry budget from file: got %d want 9", cfg.Providers.RetryBudget)
	}
	if cfg.API.Port != 9100 {
		t.Errorf("api port from file: got %d want 9100", cfg.API.Port)
	}
	// Keys absent from the file keep their defaults.
	if len(cfg.Providers.Order) != 3 {
		t.Errorf("default provider order lost: %v", cfg.Providers.Order)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("an explicitly named config file that does not exist must be an error")
	}
}

func TestLoggingLevel(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		quiet bool
	}{
		{"debug", true, false},
		{"info", false, false},
		{"warn", false, true},
		{"error", false, true},
		{"", false, false},
	}
	for _, tt := range tests {
		lc := LoggingConfig{Level: tt.level}
		if lc.Debug() != tt.debug {
			t.Errorf("Debug(%q) = %v, want %v", tt.level, lc.Debug(), tt.debug)
		}
		if lc.Quiet() != tt.quiet {
			t.Errorf("Quiet(%q) = %v, want %v", tt.level, lc.Quiet(), tt.quiet)
		}
	}
}

func TestCacheTTLDuration(t *testing.T) {
	p := ProvidersConfig{CacheTTL: 120}
	if got := p.CacheTTLDuration(); got != 2*time.Minute {
		t.Errorf("CacheTTLDuration: got %s", got)
	}
	if got := (ProvidersConfig{}).CacheTTLDuration(); got != 0 {
		t.Errorf("unset cache TTL should be 0, got %s", got)
	}
}

func TestCheckAPIKeys(t *testing.T) {
	cfg := &Config{}
	cfg.Providers.EODHDToken = "demo-token-12345"

	statuses := CheckAPIKeys(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 key statuses, got %d", len(statuses))
	}
	eodhd := statuses[0]
	if !eodhd.IsSet || eodhd.Source != KeySourceConfig {
		t.Errorf("eodhd status: %+v", eodhd)
	}
	if eodhd.Masked != "dem...345" {
		t.Errorf("masked: got %q", eodhd.Masked)
	}
	openai := statuses[1]
	if openai.IsSet || openai.Source != KeySourceNone {
		t.Errorf("openai status: %+v", openai)
	}
}

func TestMaskKeyShort(t *testing.T) {
	if got := maskKey("secret"); got != "***" {
		t.Errorf("short keys must be fully masked, got %q", got)
	}
}
