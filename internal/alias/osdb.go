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

const osDbEndpoint = "https://osdb.link/"

// maxProviderResponse caps how much of a backend response is read; short
// aliases are tiny and anything larger is a misbehaving backend.
const maxProviderResponse = 4 << 10

// OsDb shortens URLs through the os.db API. The API takes a form-encoded
// url field and answers with the short URL as plain text.
type OsDb struct {
	client   *http.Client
	endpoint string
}

// NewOsDb creates an os.db provider. An empty endpoint selects the public
// API; tests point it at a local server.
func NewOsDb(client *http.Client, endpoint string) *OsDb {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if endpoint == "" {
		endpoint = osDbEndpoint
	}
	return &OsDb{
		client:   client,
		endpoint: endpoint,
	}
}

func (p *OsDb) Shorten(ctx context.Context, raw string) (string, error) {
	const op = "alias.OsDb.Shorten"

	form := url.Values{"url": {raw}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errx.E(op, errx.Provider, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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
			fmt.Errorf("os.db responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	short := strings.TrimSpace(string(body))
	if short == "" {
		return "", errx.E(op, errx.Provider, fmt.Errorf("os.db returned an empty alias"))
	}
	return short, nil
}
