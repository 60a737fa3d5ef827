package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// RetryPolicy controls per-request retry behavior. Budget is the total
// number of retries across all providers for one logical request; the
// backoff between attempts doubles from Initial up to Max.
type RetryPolicy struct {
	Budget  int
	Initial time.Duration
	Max     time.Duration
}

// DefaultRetryPolicy is used when the registry is created without an
// explicit policy.
var DefaultRetryPolicy = RetryPolicy{
	Budget:  3,
	Initial: 500 * time.Millisecond,
	Max:     8 * time.Second,
}

// backoff returns the delay before the attempt-th retry (0-based), capped.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.Initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Registry holds all registered providers and routes fetch requests to
// them in a configured priority order, falling back on failure.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	policy    RetryPolicy
}

// NewRegistry creates an empty registry with the default retry policy.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		policy:    DefaultRetryPolicy,
	}
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// SetRetryPolicy replaces the registry's retry policy.
func (r *Registry) SetRetryPolicy(p RetryPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Budget < 0 {
		p.Budget = 0
	}
	if p.Initial <= 0 {
		p.Initial = DefaultRetryPolicy.Initial
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	r.policy = p
}

// Register adds a provider. Later registrations with the same name
// replace earlier ones.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Info().Name
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// SetOrder sets the provider priority order. Unknown names are ignored;
// registered providers missing from the list are appended after it in
// registration order.
func (r *Registry) SetOrder(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(names))
	ordered := make([]string, 0, len(r.providers))
	for _, n := range names {
		if _, ok := r.providers[n]; ok && !seen[n] {
			ordered = append(ordered, n)
			seen[n] = true
		}
	}
	for _, n := range r.order {
		if !seen[n] {
			ordered = append(ordered, n)
			seen[n] = true
		}
	}
	r.order = ordered
}

// Order returns the current priority order.
func (r *Registry) Order() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns the info of all registered providers in priority order.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, name := range r.order {
		infos = append(infos, r.providers[name].Info())
	}
	return infos
}

// ProvidersFor returns the providers supporting a data kind, in
// priority order.
func (r *Registry) ProvidersFor(kind DataKind) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, name := range r.order {
		p := r.providers[name]
		if p.Fetcher(kind) != nil {
			out = append(out, p)
		}
	}
	return out
}

// Kinds returns all data kinds supported by at least one provider.
func (r *Registry) Kinds() []DataKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[DataKind]bool)
	for _, p := range r.providers {
		for _, k := range p.SupportedKinds() {
			set[k] = true
		}
	}
	kinds := make([]DataKind, 0, len(set))
	for k := range set {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Fetch routes a request for one data kind. If params[ParamProvider]
// names a provider, only that provider is tried; otherwise providers are
// tried in priority order with retry and fallback.
//
// Retryable failures (rate limited, provider unavailable) are retried
// with capped exponential backoff until the retry budget is exhausted,
// then the next provider in order is tried. Symbol-not-found is never
// retried against the same provider but does fall through to the next
// one, since symbol coverage differs between providers.
func (r *Registry) Fetch(ctx context.Context, kind DataKind, params QueryParams) (*RawPayload, error) {
	if name := params[ParamProvider]; name != "" {
		p, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		f := p.Fetcher(kind)
		if f == nil {
			return nil, &ErrKindNotSupported{Provider: name, Kind: kind}
		}
		return r.fetchWithRetry(ctx, name, f, params, r.retryBudget())
	}

	candidates := r.ProvidersFor(kind)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no provider supports %q", kind)
	}

	budget := r.retryBudget()
	var lastErr error
	for _, p := range candidates {
		name := p.Info().Name
		payload, err := r.fetchWithRetry(ctx, name, p.Fetcher(kind), params, budget)
		if err == nil {
			return payload, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		log.Printf("provider %s: %s fetch failed: %v", name, kind, err)
		lastErr = err
	}
	return nil, fmt.Errorf("all providers failed for %q: %w", kind, lastErr)
}

func (r *Registry) retryBudget() *int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.policy.Budget
	return &b
}

// fetchWithRetry runs one fetcher, retrying retryable errors while the
// shared budget lasts. The budget pointer is shared across providers so
// one slow request cannot retry without bound.
func (r *Registry) fetchWithRetry(ctx context.Context, name string, f Fetcher, params QueryParams, budget *int) (*RawPayload, error) {
	if err := ValidateParams(params, f.RequiredParams()); err != nil {
		return nil, err
	}

	r.mu.RLock()
	policy := r.policy
	r.mu.RUnlock()

	attempt := 0
	for {
		payload, err := f.Fetch(ctx, params)
		if err == nil {
			if payload.Provider == "" {
				payload.Provider = name
			}
			return payload, nil
		}
		if !Retryable(err) || *budget <= 0 {
			return nil, err
		}

		*budget--
		delay := policy.backoff(attempt)
		attempt++
		log.Printf("provider %s: retrying after %s (%v)", name, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
