package client

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/codewing/plugin-updater/pkg/manifest"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultTimeout = 10 * time.Second
	// limit manifest documents to 1MB
	maxManifestSize = 1024 * 1024
)

// ManifestClient fetches a manifest document from a fixed URL.
type ManifestClient struct {
	manifestURL string
	httpClient  *retryablehttp.Client
	timeout     time.Duration
}

type ManifestClientOption func(c *ManifestClient)

func WithTimeout(timeout time.Duration) ManifestClientOption {
	return func(c *ManifestClient) {
		c.timeout = timeout
	}
}

// WithRetries enables retrying failed requests. Manifest requests are not retried by default.
func WithRetries(retryMax int) ManifestClientOption {
	return func(c *ManifestClient) {
		c.httpClient.RetryMax = retryMax
	}
}

// WithHTTPClient uses a copy of httpClient for requests. Its Timeout is replaced
// by the client timeout (DefaultTimeout unless WithTimeout is given).
func WithHTTPClient(httpClient *http.Client) ManifestClientOption {
	return func(c *ManifestClient) {
		hc := *httpClient
		c.httpClient.HTTPClient = &hc
	}
}

func NewManifestClient(manifestURL string, opts ...ManifestClientOption) *ManifestClient {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 0
	// hand non-2xx responses back to the caller instead of a generic "giving up" error
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c := &ManifestClient{
		manifestURL: manifestURL,
		httpClient:  httpClient,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.HTTPClient.Timeout = c.timeout
	return c
}

func (c *ManifestClient) URL() string {
	return c.manifestURL
}

// FetchManifest issues a single GET for the manifest. It returns a *NetworkError,
// *StatusError, ErrEmptyBody or *manifest.ParseError on failure.
func (c *ManifestClient) FetchManifest(ctx context.Context) (*manifest.Manifest, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: c.manifestURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, &NetworkError{URL: c.manifestURL, Err: err}
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	return manifest.Parse(body)
}
