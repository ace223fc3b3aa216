package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codewing/plugin-updater/internal/config"
	"github.com/codewing/plugin-updater/internal/updater"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, manifestURL string) *app {
	log := logrus.New()
	log.Out = io.Discard
	a := &app{
		log: log,
		cfg: &config.UpdaterConfig{
			Slug:           "codewing-updater",
			PluginFile:     "codewing-updater/codewing-updater.php",
			CurrentVersion: "1.0",
			ManifestURL:    manifestURL,
			CacheKey:       updater.DefaultCacheKey,
			CacheTTL:       updater.DefaultTTL,
			HostVersion:    "6.0",
			RuntimeVersion: "8.0",
			CacheBackend:   config.CacheBackendMemory,
		},
	}
	require.NoError(t, a.setup(context.Background()))
	return a
}

func TestCheckAndInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"CodeWing Updater","slug":"codewing-updater","version":"1.2","requires":"5.0","requires_php":"7.4","download_url":"https://example.com/codewing-updater.zip","sections":{"changelog":"fixes"}}`)
	}))
	defer ts.Close()
	a := newTestApp(t, ts.URL)

	var out bytes.Buffer
	require.NoError(t, a.check(context.Background(), &out))
	var res updater.UpdateTransient
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Equal(t, "1.2", res.Response["codewing-updater/codewing-updater.php"].NewVersion)

	out.Reset()
	require.NoError(t, a.info(context.Background(), &out, "codewing-updater"))
	var details updater.PluginDetails
	require.NoError(t, json.Unmarshal(out.Bytes(), &details))
	require.Equal(t, "fixes", details.Sections["changelog"])

	require.ErrorContains(t, a.info(context.Background(), &out, "other-plugin"), "no plugin information available")
}

func TestUnknownCacheBackend(t *testing.T) {
	a := &app{log: logrus.New(), cfg: &config.UpdaterConfig{CacheBackend: "redis"}}
	require.ErrorContains(t, a.setup(context.Background()), "unknown cache backend")
}

func TestSetupWarnsOnMissingPlatformVersions(t *testing.T) {
	log, logHook := test.NewNullLogger()
	a := &app{log: log, cfg: &config.UpdaterConfig{
		Slug:           "codewing-updater",
		PluginFile:     "codewing-updater/codewing-updater.php",
		CurrentVersion: "1.0",
		ManifestURL:    "http://localhost",
		HostVersion:    "6.0",
		CacheBackend:   config.CacheBackendMemory,
	}}
	require.NoError(t, a.setup(context.Background()))
	defer a.shutdown()
	entry := logHook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.WarnLevel, entry.Level)
	require.Contains(t, entry.Message, "RUNTIME_VERSION")
	require.NotContains(t, entry.Message, "HOST_VERSION")
	// metrics export is opt-in and the memory store needs no cleanup
	require.Empty(t, a.closers)

	logHook.Reset()
	a.cfg.RuntimeVersion = "8.0"
	require.NoError(t, a.setup(context.Background()))
	require.Nil(t, logHook.LastEntry())
}
