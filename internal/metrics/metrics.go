package metrics

import (
	"fmt"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	CounterManifestFetches = stats.Int64("manifest_fetches", "Number of remote manifest fetches", "1")
	CounterUpdatesOffered  = stats.Int64("updates_offered", "Number of update candidates handed to the host", "1")
	CounterCacheHit        = stats.Int64("cache_hits", "Number of cache hits", "1")
	CounterCacheMiss       = stats.Int64("cache_misses", "Number of cache misses", "1")

	TagFetchResult = tag.MustNewKey("fetch_result")
	TagCacheKey    = tag.MustNewKey("cache_key")
	TagSlug        = tag.MustNewKey("slug")
)

var views = []*view.View{
	{
		Name:        "manifest_fetches",
		Measure:     CounterManifestFetches,
		Description: "Number of remote manifest fetches",
		TagKeys:     []tag.Key{TagFetchResult, TagSlug},
		Aggregation: view.Count(),
	},
	{
		Name:        "updates_offered",
		Measure:     CounterUpdatesOffered,
		Description: "Number of update candidates handed to the host",
		TagKeys:     []tag.Key{TagSlug},
		Aggregation: view.Count(),
	},
	{
		Name:        "cache_hits",
		Measure:     CounterCacheHit,
		Description: "Number of cache hits",
		TagKeys:     []tag.Key{TagCacheKey},
		Aggregation: view.Count(),
	},
	{
		Name:        "cache_misses",
		Measure:     CounterCacheMiss,
		Description: "Number of cache misses",
		TagKeys:     []tag.Key{TagCacheKey},
		Aggregation: view.Count(),
	},
}

// NewExporter registers all views and starts exporting them to Stackdriver.
func NewExporter(projectID, prefix, stage string) (*stackdriver.Exporter, error) {
	err := view.Register(views...)
	if err != nil {
		return nil, err
	}
	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    projectID,
		MetricPrefix: fmt.Sprintf("%s/%s", prefix, stage),
	})
	if err != nil {
		return nil, err
	}
	err = exporter.StartMetricsExporter()
	if err != nil {
		return nil, err
	}
	return exporter, nil
}
