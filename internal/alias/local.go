package alias

import (
	"context"
	"crypto/rand"
	"strings"

	"github.com/sundayezeilo/urlstore/internal/errx"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLocalLength is the slug length the local backend generates
	// when none is configured.
	DefaultLocalLength = 7

	defaultLocalBaseURL = "http://localhost:8080"
)

// Local generates short aliases in-process: a random base62 slug appended to
// a configured base URL. It never calls out over the network, which makes it
// the default backend for development and tests.
type Local struct {
	baseURL string
	length  int
}

// NewLocal creates a local provider. Zero values select the defaults.
func NewLocal(baseURL string, length int) *Local {
	if baseURL == "" {
		baseURL = defaultLocalBaseURL
	}
	if length <= 0 {
		length = DefaultLocalLength
	}
	return &Local{
		baseURL: strings.TrimRight(baseURL, "/"),
		length:  length,
	}
}

func (p *Local) Shorten(ctx context.Context, raw string) (string, error) {
	const op = "alias.Local.Shorten"

	b := make([]byte, p.length)
	if _, err := rand.Read(b); err != nil {
		return "", errx.E(op, errx.Provider, err)
	}

	for i := range b {
		b[i] = base62Chars[int(b[i])%len(base62Chars)]
	}

	return p.baseURL + "/" + string(b), nil
}
