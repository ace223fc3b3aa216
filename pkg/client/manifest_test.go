package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codewing/plugin-updater/pkg/manifest"
	"github.com/stretchr/testify/require"
)

const testManifest = `{"name":"CodeWing Updater","slug":"codewing-updater","version":"1.2","requires":"5.0","requires_php":"7.4","download_url":"https://example.com/codewing-updater.zip","sections":{"description":"d","installation":"i","changelog":"c"}}`

func getManifestServer(t *testing.T, statusCode int, body string) (*httptest.Server, *int) {
	cnt := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cnt++
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(statusCode)
		_, _ = io.WriteString(w, body)
	}))
	return ts, &cnt
}

func TestFetchManifest(t *testing.T) {
	ts, cnt := getManifestServer(t, http.StatusOK, testManifest)
	defer ts.Close()
	m, err := NewManifestClient(ts.URL).FetchManifest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.2", m.Version)
	require.Equal(t, "https://example.com/codewing-updater.zip", m.DownloadURL)
	require.Equal(t, 1, *cnt)
}

func TestFetchManifestStatusError(t *testing.T) {
	for _, statusCode := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusNoContent} {
		ts, cnt := getManifestServer(t, statusCode, "")
		_, err := NewManifestClient(ts.URL).FetchManifest(context.Background())
		ts.Close()
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, statusCode, statusErr.StatusCode)
		// no retries
		require.Equal(t, 1, *cnt)
	}
}

func TestFetchManifestEmptyBody(t *testing.T) {
	ts, _ := getManifestServer(t, http.StatusOK, "")
	defer ts.Close()
	_, err := NewManifestClient(ts.URL).FetchManifest(context.Background())
	require.ErrorIs(t, err, ErrEmptyBody)
}

func TestFetchManifestParseError(t *testing.T) {
	ts, _ := getManifestServer(t, http.StatusOK, "<html>not json</html>")
	defer ts.Close()
	_, err := NewManifestClient(ts.URL).FetchManifest(context.Background())
	var parseErr *manifest.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestFetchManifestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()
	_, err := NewManifestClient(ts.URL, WithTimeout(50*time.Millisecond)).FetchManifest(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, ts.URL, netErr.URL)

	ts.Close()
	_, err = NewManifestClient(ts.URL).FetchManifest(context.Background())
	require.True(t, errors.As(err, &netErr))
}

func TestFetchManifestRetry(t *testing.T) {
	cnt := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cnt++
		if cnt == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, testManifest)
	}))
	defer ts.Close()
	c := NewManifestClient(ts.URL, WithRetries(1))
	c.httpClient.RetryWaitMin = time.Millisecond
	c.httpClient.RetryWaitMax = time.Millisecond
	m, err := c.FetchManifest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "codewing-updater", m.Slug)
	require.Equal(t, 2, cnt)
}

func TestManifestClientTimeout(t *testing.T) {
	require.Equal(t, DefaultTimeout, NewManifestClient("http://localhost").httpClient.HTTPClient.Timeout)

	custom := &http.Client{}
	c := NewManifestClient("http://localhost", WithHTTPClient(custom))
	require.Equal(t, DefaultTimeout, c.httpClient.HTTPClient.Timeout)
	require.Zero(t, custom.Timeout)

	c = NewManifestClient("http://localhost", WithTimeout(time.Second), WithHTTPClient(custom))
	require.Equal(t, time.Second, c.httpClient.HTTPClient.Timeout)
	c = NewManifestClient("http://localhost", WithHTTPClient(custom), WithTimeout(time.Second))
	require.Equal(t, time.Second, c.httpClient.HTTPClient.Timeout)
}

func TestManifestClientCustomHTTPClientTimesOut(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()
	c := NewManifestClient(ts.URL, WithHTTPClient(&http.Client{}), WithTimeout(50*time.Millisecond))
	_, err := c.FetchManifest(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}
