package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codewing/plugin-updater/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetManifests(t *testing.T) {
	testData := []string{"codewing-updater", "codewing-blocks"}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/manifests", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(testData))
	}))
	defer ts.Close()
	c := New(ts.URL + "/api/v1")
	slugs, err := c.GetManifests(context.Background())
	require.NoError(t, err)
	require.Equal(t, testData, slugs)
}

func TestGetManifest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/manifests/codewing-updater", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(&manifest.Manifest{
			Slug:    "codewing-updater",
			Version: "1.2",
			Banners: &manifest.Banners{Low: "low.jpg"},
		}))
	}))
	defer ts.Close()
	c := New(ts.URL + "/api/v1")
	m, err := c.GetManifest(context.Background(), "codewing-updater")
	require.NoError(t, err)
	require.Equal(t, "1.2", m.Version)
	require.Equal(t, "low.jpg", m.Banners.Low)
}

func TestGetManifestNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"manifest unknown not found"}`))
	}))
	defer ts.Close()
	c := New(ts.URL)
	_, err := c.GetManifest(context.Background(), "unknown")
	var errResp *ErrorResponse
	require.ErrorAs(t, err, &errResp)
	require.Equal(t, http.StatusNotFound, errResp.StatusCode)
	require.Equal(t, "manifest unknown not found", errResp.ErrorMsg)
	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestRefreshManifests(t *testing.T) {
	reqCount := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "admin-token", r.Header.Get("Authorization"))
		switch reqCount {
		case 0:
			assert.Equal(t, "/api/v1/manifests", r.URL.Path)
		case 1:
			assert.Equal(t, "/api/v1/manifests/codewing-updater", r.URL.Path)
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]bool{"ok": true}))
		reqCount++
	}))
	defer ts.Close()
	c := New(ts.URL + "/api/v1")

	err := c.RefreshManifests(context.Background(), "admin-token")
	require.NoError(t, err)

	err = c.RefreshManifest(context.Background(), "admin-token", "codewing-updater")
	require.NoError(t, err)

	require.Equal(t, 2, reqCount)
}
