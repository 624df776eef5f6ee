package shorturl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sundayezeilo/urlstore/internal/alias"
	"github.com/sundayezeilo/urlstore/internal/errx"
)

// MaxURLLength is the longest canonical URL accepted for shortening.
const MaxURLLength = 2048

// AddURLRequest represents the parameters for shortening one URL.
type AddURLRequest struct {
	URL        string
	Visibility Visibility    // defaults to public
	Backend    alias.Backend // defaults to the configured backend
}

// ServiceStats is process-level liveness data. It involves no store access.
type ServiceStats struct {
	StartedAt   time.Time `json:"started_at"`
	CurrentTime time.Time `json:"current_time"`
}

// Service defines the business operations around URL records. Provider and
// store failures during AddURLs surface uniformly as the Service error kind;
// NotFound, Ambiguous and Invalid pass through verbatim since callers treat
// them as distinct outcomes.
type Service interface {
	AddURLs(ctx context.Context, requests []AddURLRequest) ([]URL, error)
	GetURLs(ctx context.Context, filter Filter) ([]URL, error)
	DeleteURL(ctx context.Context, filter Filter) (URL, error)
	MarkURLGone(ctx context.Context, filter Filter) (URL, error)
	ClickURL(ctx context.Context, filter Filter, clientInfo string) (URL, error)
	Ping(ctx context.Context) error
	Stats() ServiceStats
}

// service implements the Service interface.
type service struct {
	store          Store
	providers      *alias.Registry
	defaultBackend alias.Backend
	now            func() time.Time
	startedAt      time.Time
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	Providers      *alias.Registry
	DefaultBackend alias.Backend    // backend used when a request names none
	Now            func() time.Time // clock override for tests
}

// NewService creates a new service instance.
func NewService(store Store, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	providers := config.Providers
	if providers == nil {
		providers = alias.NewRegistry(nil)
	}

	defaultBackend := config.DefaultBackend
	if defaultBackend == "" {
		defaultBackend = alias.BackendLocal
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		store:          store,
		providers:      providers,
		defaultBackend: defaultBackend,
		now:            now,
		startedAt:      now(),
	}
}

// AddURLs shortens every request through its chosen backend, then inserts the
// whole batch as one all-or-nothing store call.
func (s *service) AddURLs(ctx context.Context, requests []AddURLRequest) ([]URL, error) {
	const op = "shorturl.service.AddURLs"

	if len(requests) == 0 {
		return nil, errx.E(op, errx.Invalid, errors.New("no urls to add"))
	}

	records := make([]NewURL, 0, len(requests))
	for i, req := range requests {
		if err := validateURL(req.URL); err != nil {
			return nil, errx.E(op, errx.Invalid, fmt.Errorf("request %d: %w", i, err))
		}

		visibility := req.Visibility
		if visibility == "" {
			visibility = VisibilityPublic
		}
		if !visibility.Valid() {
			return nil, errx.E(op, errx.Invalid,
				fmt.Errorf("request %d: invalid visibility %q", i, req.Visibility))
		}

		backend := req.Backend
		if backend == "" {
			backend = s.defaultBackend
		}

		provider, err := s.providers.Provider(backend)
		if err != nil {
			return nil, errx.E(op, errx.Service, err)
		}

		short, err := provider.Shorten(ctx, req.URL)
		if err != nil {
			return nil, errx.E(op, errx.Service, err)
		}

		records = append(records, NewURL{
			URL:        req.URL,
			ShortURL:   short,
			Visibility: visibility,
		})
	}

	created, err := s.store.Insert(ctx, records)
	if err != nil {
		return nil, errx.E(op, errx.Service, err)
	}
	return created, nil
}

func (s *service) GetURLs(ctx context.Context, filter Filter) ([]URL, error) {
	const op = "shorturl.service.GetURLs"

	urls, err := s.store.Select(ctx, filter)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return urls, nil
}

func (s *service) DeleteURL(ctx context.Context, filter Filter) (URL, error) {
	const op = "shorturl.service.DeleteURL"

	deleted, err := s.store.DeleteOne(ctx, filter)
	if err != nil {
		return URL{}, errx.E(op, errx.KindOf(err), err)
	}
	return deleted, nil
}

func (s *service) MarkURLGone(ctx context.Context, filter Filter) (URL, error) {
	const op = "shorturl.service.MarkURLGone"

	updated, err := s.store.MarkGone(ctx, filter)
	if err != nil {
		return URL{}, errx.E(op, errx.KindOf(err), err)
	}
	return updated, nil
}

func (s *service) ClickURL(ctx context.Context, filter Filter, clientInfo string) (URL, error) {
	const op = "shorturl.service.ClickURL"

	if clientInfo == "" {
		return URL{}, errx.E(op, errx.Invalid, errors.New("client info is not set"))
	}

	clicked, err := s.store.RecordClick(ctx, filter, clientInfo, s.now())
	if err != nil {
		return URL{}, errx.E(op, errx.KindOf(err), err)
	}
	return clicked, nil
}

// Ping reports store liveness. Failures are reported, never fatal.
func (s *service) Ping(ctx context.Context) error {
	const op = "shorturl.service.Ping"

	if err := s.store.Ping(ctx); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

func (s *service) Stats() ServiceStats {
	return ServiceStats{
		StartedAt:   s.startedAt,
		CurrentTime: s.now(),
	}
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsedURL.Scheme == "" {
		return errors.New("url must include scheme (http or https)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}
