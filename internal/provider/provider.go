// Package provider implements the data-provider abstraction layer.
// It defines a Provider interface, a Fetcher interface, and a registry
// that routes data requests to providers in a configured priority order,
// with fallback, retry, and backoff.
//
// Fetchers return raw provider payloads; translation into the canonical
// schema is the normalizer's job. The only translation an adapter does
// is ticker format (canonical "NSE:RELIANCE" → provider symbol).
package provider

import (
	"errors"
	"fmt"
	"time"

	"context"

	"github.com/moneymitra/moneymitra/internal/infra"
)

// DataKind identifies what a fetch returns.
type DataKind string

const (
	KindQuote           DataKind = "Quote"
	KindHistorical      DataKind = "Historical"
	KindProfile         DataKind = "Profile"
	KindIncomeStatement DataKind = "IncomeStatement"
	KindBalanceSheet    DataKind = "BalanceSheet"
	KindCashFlow        DataKind = "CashFlow"
	KindNews            DataKind = "News"
)

// AllKinds returns all defined data kinds.
func AllKinds() []DataKind {
	return []DataKind{
		KindQuote, KindHistorical, KindProfile,
		KindIncomeStatement, KindBalanceSheet, KindCashFlow,
		KindNews,
	}
}

// StatementKinds returns the three financial-statement data kinds.
func StatementKinds() []DataKind {
	return []DataKind{KindIncomeStatement, KindBalanceSheet, KindCashFlow}
}

// QueryParams is the generic query parameter map passed to fetchers.
type QueryParams map[string]string

// Query parameter keys.
const (
	ParamTicker    = "ticker" // canonical exchange-qualified form
	ParamPeriod    = "period" // "annual" or "quarterly"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamLimit     = "limit"
	ParamProvider  = "provider" // override provider name
)

// RawPayload is a fetcher result: the provider's response body plus
// metadata, before any normalization.
type RawPayload struct {
	Provider  string    `json:"provider"`
	Kind      DataKind  `json:"kind"`
	Ticker    string    `json:"ticker"` // canonical ticker the payload answers for
	Period    string    `json:"period,omitempty"`
	Body      []byte    `json:"-"` // raw JSON or HTML
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

// ProviderCredential describes a required credential for a provider.
type ProviderCredential struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"`
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	Kinds       []DataKind           `json:"kinds"`
}

// Provider is the interface all data providers implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init initializes the provider with credentials. Returns an error if
	// required credentials are missing.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for the given data kind, or nil.
	Fetcher(kind DataKind) Fetcher

	// SupportedKinds returns all data kinds this provider can fetch.
	SupportedKinds() []DataKind

	// Ping verifies connectivity and credentials.
	Ping(ctx context.Context) error
}

// Fetcher fetches one data kind from one provider.
type Fetcher interface {
	// Kind returns the data kind this fetcher handles.
	Kind() DataKind

	// Description returns a human-readable description.
	Description() string

	// RequiredParams returns the parameter keys this fetcher requires.
	RequiredParams() []string

	// Fetch retrieves the raw payload for the given query parameters.
	Fetch(ctx context.Context, params QueryParams) (*RawPayload, error)
}

// --- Error taxonomy ---

// ErrSymbolNotFound: the ticker cannot be resolved by the provider.
// Not retryable.
var ErrSymbolNotFound = errors.New("symbol not found")

// ErrRateLimited: the provider throttled the request. Retryable with
// backoff.
var ErrRateLimited = errors.New("rate limited by provider")

// ErrProviderUnavailable: network failure or provider-side 5xx.
// Retryable with backoff, then degrade.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrKindNotSupported is returned when a provider has no fetcher for a
// data kind.
type ErrKindNotSupported struct {
	Provider string
	Kind     DataKind
}

func (e *ErrKindNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support %q", e.Provider, e.Kind)
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// Retryable reports whether an error warrants retry with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}

// MapHTTPError translates a transport-level error into the taxonomy.
// 404 → ErrSymbolNotFound, 429 → ErrRateLimited, 5xx and network
// failures → ErrProviderUnavailable.
func MapHTTPError(err error) error {
	if err == nil {
		return nil
	}
	var he *infra.ErrHTTP
	if errors.As(err, &he) {
		switch {
		case he.StatusCode == 404:
			return fmt.Errorf("%w: %v", ErrSymbolNotFound, err)
		case he.StatusCode == 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case he.StatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		default:
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// ValidateParams checks that all required parameters are present.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
