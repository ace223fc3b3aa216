package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

func TestCacheViews(t *testing.T) {
	require.NoError(t, view.Register(views...))
	defer view.Unregister(views...)

	ctx, err := tag.New(context.Background(), tag.Upsert(TagCacheKey, "codewing_custom_upd"))
	require.NoError(t, err)
	stats.Record(ctx, CounterCacheHit.M(1))
	stats.Record(ctx, CounterCacheHit.M(1))
	stats.Record(ctx, CounterCacheMiss.M(1))

	rows, err := view.RetrieveData("cache_hits")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0].Data.(*view.CountData).Value)

	rows, err = view.RetrieveData("cache_misses")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(1), rows[0].Data.(*view.CountData).Value)
}
