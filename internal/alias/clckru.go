package alias

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sundayezeilo/urlstore/internal/errx"
)

const clckRuEndpoint = "https://clck.ru/--"

// ClckRu shortens URLs through the clck.ru API. The API takes the target in
// the url query parameter and answers with the short URL as plain text.
type ClckRu struct {
	client   *http.Client
	endpoint string
}

// NewClckRu creates a clck.ru provider. An empty endpoint selects the public
// API; tests point it at a local server.
func NewClckRu(client *http.Client, endpoint string) *ClckRu {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if endpoint == "" {
		endpoint = clckRuEndpoint
	}
	return &ClckRu{
		client:   client,
		endpoint: endpoint,
	}
}

func (p *ClckRu) Shorten(ctx context.Context, raw string) (string, error) {
	const op = "alias.ClckRu.Shorten"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.endpoint+"?url="+url.QueryEscape(raw), nil)
	if err != nil {
		return "", errx.E(op, errx.Provider, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errx.E(op, errx.Provider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponse))
	if err != nil {
		return "", errx.E(op, errx.Provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errx.E(op, errx.Provider,
			fmt.Errorf("clck.ru responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	short := strings.TrimSpace(string(body))
	if short == "" {
		return "", errx.E(op, errx.Provider, fmt.Errorf("clck.ru returned an empty alias"))
	}
	return short, nil
}
