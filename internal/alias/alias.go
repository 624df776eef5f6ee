// Package alias resolves short aliases for canonical URLs through a closed
// set of shortener backends. Backends are selected by string code; adding a
// backend means adding a Backend constant and wiring it into NewRegistry.
package alias

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sundayezeilo/urlstore/internal/errx"
)

// Backend identifies a shortener backend by its wire code.
type Backend string

const (
	BackendClckRu Backend = "clckru"
	BackendOsDb   Backend = "osdb"
	BackendLocal  Backend = "local"
)

// Valid reports whether b is a known backend code.
func (b Backend) Valid() bool {
	switch b {
	case BackendClckRu, BackendOsDb, BackendLocal:
		return true
	default:
		return false
	}
}

// Provider turns a canonical URL into a short alias. Implementations must be
// safe for concurrent use. Failures carry the Provider error kind; no retry
// policy is applied here.
type Provider interface {
	Shorten(ctx context.Context, url string) (string, error)
}

// DefaultHTTPTimeout bounds calls to remote shortener backends when no
// timeout is configured.
const DefaultHTTPTimeout = 10 * time.Second

// Registry holds one provider per backend code.
type Registry struct {
	providers map[Backend]Provider
}

// RegistryConfig holds configuration for the provider registry.
type RegistryConfig struct {
	HTTPClient   *http.Client // client for remote backends; built from HTTPTimeout if nil
	HTTPTimeout  time.Duration
	LocalBaseURL string // base URL the local backend prefixes generated slugs with
	LocalLength  int    // slug length for the local backend
}

// NewRegistry builds a registry with every supported backend wired up.
func NewRegistry(config *RegistryConfig) *Registry {
	if config == nil {
		config = &RegistryConfig{}
	}

	client := config.HTTPClient
	if client == nil {
		timeout := config.HTTPTimeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Registry{
		providers: map[Backend]Provider{
			BackendClckRu: NewClckRu(client, ""),
			BackendOsDb:   NewOsDb(client, ""),
			BackendLocal:  NewLocal(config.LocalBaseURL, config.LocalLength),
		},
	}
}

// Provider returns the provider for the given backend code.
func (r *Registry) Provider(backend Backend) (Provider, error) {
	const op = "alias.Registry.Provider"

	p, ok := r.providers[backend]
	if !ok {
		return nil, errx.E(op, errx.Provider,
			fmt.Errorf("unknown shortener backend: %q", backend))
	}
	return p, nil
}
