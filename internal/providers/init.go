// Package providers initializes and registers all concrete data
// providers with the provider registry.
package providers

import (
	"os"
	"time"

	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/internal/providers/eodhd"
	"github.com/moneymitra/moneymitra/internal/providers/screener"
	"github.com/moneymitra/moneymitra/internal/providers/yfinance"
)

// RegisterAll creates and registers all available providers with the
// global registry. Providers that require API keys are only registered
// when their credential is available.
func RegisterAll() error {
	return RegisterAllTo(provider.Global(), "", 0)
}

// RegisterAllTo registers all available providers to the given registry.
// eodhdToken enables the EODHD provider; when empty the EODHD_API_TOKEN
// environment variable is consulted instead. cacheTTL sets the payload
// cache TTL for every provider; 0 keeps each provider's own default.
func RegisterAllTo(reg *provider.Registry, eodhdToken string, cacheTTL time.Duration) error {
	// --- YFinance (free, no API key) ---
	yf := yfinance.New(yfinance.WithCacheTTL(cacheTTL))
	if err := yf.Init(nil); err != nil {
		return err
	}
	reg.Register(yf)

	// --- Screener.in (free, scraped, NSE/BSE only) ---
	scr := screener.New(screener.WithCacheTTL(cacheTTL))
	if err := scr.Init(nil); err != nil {
		return err
	}
	reg.Register(scr)

	// --- EODHD (requires API token) ---
	if eodhdToken == "" {
		eodhdToken = os.Getenv("EODHD_API_TOKEN")
	}
	if eodhdToken != "" {
		ep := eodhd.New(eodhd.WithCacheTTL(cacheTTL))
		if err := ep.Init(map[string]string{"api_token": eodhdToken}); err != nil {
			return err
		}
		reg.Register(ep)
	}

	return nil
}
