package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	CacheBackendMemory    = "memory"
	CacheBackendFirestore = "firestore"
)

type UpdaterConfig struct {
	Slug           string        `envconfig:"SLUG" default:"codewing-updater"`
	PluginFile     string        `envconfig:"PLUGIN_FILE" default:"codewing-updater/codewing-updater.php"`
	CurrentVersion string        `envconfig:"CURRENT_VERSION" default:"1.0"`
	ManifestURL    string        `envconfig:"MANIFEST_URL" default:"http://sagar-n3jr.wp1.site/wp-content/uploads/2024/10/updater-info.json"`
	CacheKey       string        `envconfig:"CACHE_KEY" default:"codewing_custom_upd"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	HostVersion    string        `envconfig:"HOST_VERSION"`
	RuntimeVersion string        `envconfig:"RUNTIME_VERSION"`
	CacheBackend   string        `envconfig:"CACHE_BACKEND" default:"memory"`
	ProjectID      string        `envconfig:"GOOGLE_CLOUD_PROJECT_ID" default:"codewing-updater"`
	Stage          string        `envconfig:"STAGE" default:"dev"`
	ExportMetrics  bool          `envconfig:"EXPORT_METRICS"`
}

func NewUpdaterConfigFromEnv() (*UpdaterConfig, error) {
	var uCfg UpdaterConfig
	err := envconfig.Process("updater", &uCfg)
	if err != nil {
		return nil, err
	}
	return &uCfg, nil
}

// MissingPlatformVersions lists the platform versions that are not set. Without them
// any manifest declaring requires or requires_php is never offered as an update.
func (c *UpdaterConfig) MissingPlatformVersions() []string {
	var missing []string
	if c.HostVersion == "" {
		missing = append(missing, "HOST_VERSION")
	}
	if c.RuntimeVersion == "" {
		missing = append(missing, "RUNTIME_VERSION")
	}
	return missing
}
