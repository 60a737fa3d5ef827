package provider

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/moneymitra/moneymitra/internal/infra"
)

// BaseProvider supplies common Provider plumbing. Concrete providers
// embed it and register their fetchers in Init.
type BaseProvider struct {
	info        ProviderInfo
	fetchers    map[DataKind]Fetcher
	credentials map[string]string
}

// NewBaseProvider creates a BaseProvider with the given metadata.
func NewBaseProvider(name, description, website string, credentials []ProviderCredential) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:        name,
			Description: description,
			Website:     website,
			Credentials: credentials,
		},
		fetchers: make(map[DataKind]Fetcher),
	}
}

// Info returns the provider metadata, with Kinds filled from the
// registered fetchers.
func (b *BaseProvider) Info() ProviderInfo {
	info := b.info
	info.Kinds = b.SupportedKinds()
	return info
}

// Name returns the provider's registered name.
func (b *BaseProvider) Name() string {
	return b.info.Name
}

// SetCredentials stores credentials and verifies required ones are present.
func (b *BaseProvider) SetCredentials(credentials map[string]string) error {
	b.credentials = credentials
	for _, cred := range b.info.Credentials {
		if !cred.Required {
			continue
		}
		if v, ok := credentials[cred.Name]; !ok || v == "" {
			return &ErrInvalidCredentials{
				Provider: b.info.Name,
				Detail:   fmt.Sprintf("missing %s (set %s)", cred.Name, cred.EnvVar),
			}
		}
	}
	return nil
}

// Credential returns a stored credential value, or "".
func (b *BaseProvider) Credential(name string) string {
	return b.credentials[name]
}

// RegisterFetcher registers a fetcher for its data kind.
func (b *BaseProvider) RegisterFetcher(f Fetcher) {
	b.fetchers[f.Kind()] = f
}

// Fetcher returns the fetcher for the given kind, or nil.
func (b *BaseProvider) Fetcher(kind DataKind) Fetcher {
	return b.fetchers[kind]
}

// SupportedKinds returns the kinds with registered fetchers, sorted.
func (b *BaseProvider) SupportedKinds() []DataKind {
	kinds := make([]DataKind, 0, len(b.fetchers))
	for k := range b.fetchers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// BaseFetcher supplies common Fetcher plumbing: a short-TTL payload
// cache and a per-provider rate limiter. Concrete fetchers embed it.
type BaseFetcher struct {
	kind        DataKind
	description string
	required    []string
	cache       *infra.Cache
	limiter     *infra.RateLimiter
}

// NewBaseFetcher creates a BaseFetcher. cache and limiter may be nil,
// in which case caching and rate limiting are skipped.
func NewBaseFetcher(kind DataKind, description string, required []string, cache *infra.Cache, limiter *infra.RateLimiter) BaseFetcher {
	return BaseFetcher{
		kind:        kind,
		description: description,
		required:    required,
		cache:       cache,
		limiter:     limiter,
	}
}

// Kind returns the data kind this fetcher handles.
func (b *BaseFetcher) Kind() DataKind { return b.kind }

// Description returns a human-readable description.
func (b *BaseFetcher) Description() string { return b.description }

// RequiredParams returns the parameter keys this fetcher requires.
func (b *BaseFetcher) RequiredParams() []string { return b.required }

// CacheKey builds a deterministic cache key from the data kind and the
// query parameters, sorted so that map iteration order does not matter.
func (b *BaseFetcher) CacheKey(provider string, params QueryParams) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(provider)
	sb.WriteByte('/')
	sb.WriteString(string(b.kind))
	for _, k := range keys {
		sb.WriteByte('/')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

// Cached returns a cached payload for the key, marked as cached.
func (b *BaseFetcher) Cached(key string) (*RawPayload, bool) {
	if b.cache == nil {
		return nil, false
	}
	v, ok := b.cache.Get(key)
	if !ok {
		return nil, false
	}
	p, ok := v.(*RawPayload)
	if !ok {
		return nil, false
	}
	cp := *p
	cp.Cached = true
	return &cp, true
}

// Store caches a payload under the key with the cache's default TTL.
func (b *BaseFetcher) Store(key string, p *RawPayload) {
	if b.cache == nil {
		return
	}
	b.cache.Set(key, p)
}

// StoreWithTTL caches a payload with an explicit TTL.
func (b *BaseFetcher) StoreWithTTL(key string, p *RawPayload, ttl time.Duration) {
	if b.cache == nil {
		return
	}
	b.cache.SetWithTTL(key, p, ttl)
}

// Limiter returns the fetcher's rate limiter, which may be nil.
func (b *BaseFetcher) Limiter() *infra.RateLimiter { return b.limiter }
