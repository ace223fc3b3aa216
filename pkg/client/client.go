package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codewing/plugin-updater/pkg/manifest"
)

// Client talks to the manifest host API.
type Client struct {
	hostURL    string
	httpClient *http.Client
}

func New(hostURL string) *Client {
	return &Client{
		hostURL: hostURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func setAuth(adminAccessToken string) func(r *http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", adminAccessToken)
	}
}

func getManifestURL(slug string) string {
	return fmt.Sprintf("manifests/%s", slug)
}

func (c *Client) sendRequest(ctx context.Context, method, endpoint string, body io.Reader, modifyRequestFns ...func(r *http.Request)) (*http.Response, error) {
	apiEndpoint, err := url.JoinPath(c.hostURL, endpoint)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, apiEndpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json; charset=utf-8")
	for _, f := range modifyRequestFns {
		f(req)
	}
	return c.httpClient.Do(req)
}

func (c *Client) decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		errResp := ErrorResponse{StatusCode: resp.StatusCode}
		err := json.NewDecoder(resp.Body).Decode(&errResp)
		if err != nil {
			return err
		}
		return &errResp
	}
	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil {
		return err
	}
	return nil
}

func (c *Client) GetManifests(ctx context.Context) ([]string, error) {
	resp, err := c.sendRequest(ctx, http.MethodGet, "manifests", nil)
	if err != nil {
		return nil, err
	}
	var slugs []string
	err = c.decodeResponse(resp, &slugs)
	if err != nil {
		return nil, err
	}
	return slugs, nil
}

func (c *Client) GetManifest(ctx context.Context, slug string) (*manifest.Manifest, error) {
	resp, err := c.sendRequest(ctx, http.MethodGet, getManifestURL(slug), nil)
	if err != nil {
		return nil, err
	}
	var m manifest.Manifest
	err = c.decodeResponse(resp, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) RefreshManifests(ctx context.Context, adminAccessToken string) error {
	return c.RefreshManifest(ctx, adminAccessToken, "")
}

// RefreshManifest asks the host to rebuild the manifest of a plugin from its latest release.
// An empty slug refreshes all hosted plugins.
func (c *Client) RefreshManifest(ctx context.Context, adminAccessToken, slug string) error {
	apiURL := "manifests"
	if slug != "" {
		apiURL = getManifestURL(slug)
	}
	resp, err := c.sendRequest(ctx, http.MethodPut, apiURL, nil, setAuth(adminAccessToken))
	if err != nil {
		return err
	}
	var refreshResponse map[string]bool
	err = c.decodeResponse(resp, &refreshResponse)
	if err != nil {
		return err
	}
	if !refreshResponse["ok"] {
		return fmt.Errorf("refresh manifest %s failed: reason unknown", slug)
	}
	return nil
}
