// Package normalize translates raw provider payloads into the canonical
// schema. Each supported provider has its own translation; everything
// downstream of this package sees only canonical models.
//
// Two rules hold throughout: a field the payload does not carry becomes
// unavailable, never zero, and currencies are tagged as reported, never
// converted.
package normalize

import (
	"errors"
	"fmt"

	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/models"
)

// ErrUnknownProvider is returned for payloads from providers this
// package has no translation for.
var ErrUnknownProvider = errors.New("no normalizer for provider")

// ErrMalformedPayload is returned when a payload body cannot be parsed.
var ErrMalformedPayload = errors.New("malformed provider payload")

// Record translates one raw payload into a canonical record.
func Record(payload *provider.RawPayload) (*models.CanonicalRecord, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrMalformedPayload)
	}
	rec := &models.CanonicalRecord{
		Ticker:    payload.Ticker,
		Provider:  payload.Provider,
		FetchedAt: payload.FetchedAt,
	}

	var err error
	switch payload.Provider {
	case "yfinance":
		err = yfNormalize(payload, rec)
	case "eodhd":
		err = eodhdNormalize(payload, rec)
	case "screener":
		err = screenerNormalize(payload, rec)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, payload.Provider)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// amountOf builds an Amount from an optional value and a currency.
// A nil value or an unknown currency yields the unavailable amount:
// a number without a currency is not a usable financial value.
func amountOf(v *float64, currency string) models.Amount {
	if v == nil || currency == "" {
		return models.Unavailable()
	}
	return models.Amt(*v, currency)
}
