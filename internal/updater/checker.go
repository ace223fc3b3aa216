package updater

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codewing/plugin-updater/internal/metrics"
	"github.com/codewing/plugin-updater/internal/transient"
	"github.com/codewing/plugin-updater/pkg/manifest"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

const (
	DefaultCacheKey = "codewing_custom_upd"
	DefaultTTL      = 24 * time.Hour
)

type Fetcher interface {
	FetchManifest(ctx context.Context) (*manifest.Manifest, error)
}

type cachedManifest struct {
	Manifest  *manifest.Manifest `json:"manifest"`
	StoredAt  time.Time          `json:"stored_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

type Checker struct {
	log      *logrus.Logger
	plugin   LocalPlugin
	fetcher  Fetcher
	store    transient.Store
	platform Platform
	cacheKey string
	ttl      time.Duration
	now      func() time.Time
}

type Option func(c *Checker)

func WithCacheKey(key string) Option {
	return func(c *Checker) {
		c.cacheKey = key
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Checker) {
		c.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

func New(log *logrus.Logger, plugin LocalPlugin, fetcher Fetcher, store transient.Store, platform Platform, opts ...Option) *Checker {
	c := &Checker{
		log:      log,
		plugin:   plugin,
		fetcher:  fetcher,
		store:    store,
		platform: platform,
		cacheKey: DefaultCacheKey,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) Plugin() LocalPlugin {
	return c.plugin
}

func (c *Checker) pluginLogger() *logrus.Entry {
	return c.log.WithFields(logrus.Fields{
		"slug":      c.plugin.Slug,
		"cache_key": c.cacheKey,
	})
}

func (c *Checker) metricsContext(ctx context.Context, mutators ...tag.Mutator) context.Context {
	mutators = append(mutators, tag.Upsert(metrics.TagSlug, c.plugin.Slug), tag.Upsert(metrics.TagCacheKey, c.cacheKey))
	tagged, err := tag.New(ctx, mutators...)
	if err != nil {
		return ctx
	}
	return tagged
}

func (c *Checker) getFromCache(ctx context.Context) (*manifest.Manifest, bool) {
	raw, ok, err := c.store.Get(ctx, c.cacheKey)
	if err != nil {
		c.pluginLogger().Warnf("could not read cached manifest: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entry cachedManifest
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Manifest == nil {
		c.pluginLogger().Warn("discarding unreadable cached manifest")
		return nil, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Manifest, true
}

func (c *Checker) setInCache(ctx context.Context, m *manifest.Manifest) {
	now := c.now()
	raw, err := json.Marshal(&cachedManifest{
		Manifest:  m,
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		c.pluginLogger().Errorf("could not encode manifest for caching: %v", err)
		return
	}
	if err := c.store.Set(ctx, c.cacheKey, raw, c.ttl); err != nil {
		c.pluginLogger().Warnf("could not cache manifest: %v", err)
	}
}

// GetRemoteManifest returns the cached manifest while it is fresh and fetches it otherwise.
// Failed fetches are not cached and not retried.
func (c *Checker) GetRemoteManifest(ctx context.Context) (*manifest.Manifest, error) {
	if m, ok := c.getFromCache(ctx); ok {
		stats.Record(c.metricsContext(ctx), metrics.CounterCacheHit.M(1))
		return m, nil
	}
	stats.Record(c.metricsContext(ctx), metrics.CounterCacheMiss.M(1))

	m, err := c.fetcher.FetchManifest(ctx)
	if err != nil {
		stats.Record(c.metricsContext(ctx, tag.Upsert(metrics.TagFetchResult, "error")), metrics.CounterManifestFetches.M(1))
		return nil, err
	}
	stats.Record(c.metricsContext(ctx, tag.Upsert(metrics.TagFetchResult, "ok")), metrics.CounterManifestFetches.M(1))
	c.setInCache(ctx, m)
	return m, nil
}

func (c *Checker) remoteManifestOrNil(ctx context.Context) *manifest.Manifest {
	m, err := c.GetRemoteManifest(ctx)
	if err != nil {
		c.pluginLogger().Warnf("no remote manifest available: %v", err)
		return nil
	}
	return m
}

// CheckForUpdates adds this plugin to the transient's response list when an update is available.
// The transient is returned untouched until the host has populated its checked list.
func (c *Checker) CheckForUpdates(ctx context.Context, t *UpdateTransient) *UpdateTransient {
	if t == nil || len(t.Checked) == 0 {
		return t
	}
	remote := c.remoteManifestOrNil(ctx)
	if remote == nil {
		return t
	}
	candidate, ok := EvaluateUpdate(c.plugin, remote, c.platform)
	if !ok {
		c.pluginLogger().Debugf("no update available (installed=%s, remote=%s)", c.plugin.CurrentVersion, remote.Version)
		return t
	}
	if t.Response == nil {
		t.Response = make(map[string]*UpdateCandidate)
	}
	t.Response[candidate.Plugin] = candidate
	stats.Record(c.metricsContext(ctx), metrics.CounterUpdatesOffered.M(1))
	c.pluginLogger().Infof("update available: %s -> %s", c.plugin.CurrentVersion, candidate.NewVersion)
	return t
}

// DescribePlugin answers a plugin information query for this plugin.
// It returns false when the query is not for this plugin or no manifest is available.
func (c *Checker) DescribePlugin(ctx context.Context, action string, query *PluginQuery) (*PluginDetails, bool) {
	if action != ActionPluginInformation {
		return nil, false
	}
	if query == nil || query.Slug != c.plugin.Slug {
		return nil, false
	}
	remote := c.remoteManifestOrNil(ctx)
	if remote == nil {
		return nil, false
	}
	return newPluginDetails(remote), true
}

// OnUpdateComplete evicts the cached manifest after the host finished updating plugins.
func (c *Checker) OnUpdateComplete(ctx context.Context, event *UpgradeEvent) {
	if event == nil || event.Action != UpgradeActionUpdate || event.Type != UpgradeTypePlugin {
		return
	}
	if err := c.store.Delete(ctx, c.cacheKey); err != nil {
		c.pluginLogger().Errorf("could not purge cached manifest: %v", err)
		return
	}
	c.pluginLogger().Info("purged cached manifest")
}

func newPluginDetails(m *manifest.Manifest) *PluginDetails {
	details := &PluginDetails{
		Name:          m.Name,
		Slug:          m.Slug,
		Version:       m.Version,
		Tested:        m.Tested,
		Requires:      m.Requires,
		Author:        m.Author,
		AuthorProfile: m.AuthorProfile,
		DownloadLink:  m.DownloadURL,
		Trunk:         m.DownloadURL,
		RequiresPHP:   m.RequiresPHP,
		LastUpdated:   m.LastUpdated,
		Sections: map[string]string{
			"description":  m.Sections.Description,
			"installation": m.Sections.Installation,
			"changelog":    m.Sections.Changelog,
		},
	}
	if m.HasBanners() {
		details.Banners = map[string]string{
			"low":  m.Banners.Low,
			"high": m.Banners.High,
		}
	}
	return details
}
