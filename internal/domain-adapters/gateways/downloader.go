package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/ochairo/artifetch/internal/domain/entities"
	"github.com/ochairo/artifetch/internal/domain/interfaces/gateways"
)

// UserAgent is sent with every request
const UserAgent = "artifetch/1.0"

// Downloader hands out HTTP transports for fetching artifacts
type Downloader struct {
	httpClient *http.Client
}

var _ gateways.TransportProvider = (*Downloader)(nil)

// NewDownloader creates a new downloader
func NewDownloader() *Downloader {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = 5 * time.Minute // Long timeout for large downloads

	return &Downloader{httpClient: client}
}

// Plain returns a transport that sends no credentials
func (d *Downloader) Plain() gateways.Transport {
	return &httpTransport{httpClient: d.httpClient}
}

// Authenticated returns a transport that sends the server's credentials to
// the server's own host
func (d *Downloader) Authenticated(server entities.Server) gateways.Transport {
	return &httpTransport{
		httpClient: d.httpClient,
		server:     &server,
	}
}

// httpTransport fetches URLs over HTTP(S)
type httpTransport struct {
	httpClient *http.Client
	server     *entities.Server
}

// Fetch performs a GET and returns the response body on HTTP 200
func (t *httpTransport) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)

	if t.server != nil && t.server.HasCredentials() {
		ok, err := sameHost(t.server.BaseURL, req.URL)
		if err != nil {
			return nil, err
		}
		// Credentials are not passed to other services, even on a
		// different port of the same host.
		if ok {
			req.SetBasicAuth(t.server.Username, t.server.Token)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", entities.ErrArtifactNotFound, rawURL)
		}
		return nil, fmt.Errorf("failed to fetch %s: HTTP %s", rawURL, resp.Status)
	}

	return resp.Body, nil
}

func sameHost(baseURL string, target *url.URL) (bool, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false, fmt.Errorf("unable to parse server URL: %w", err)
	}
	return base.Scheme == target.Scheme && base.Host == target.Host, nil
}
