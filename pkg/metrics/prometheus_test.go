package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordCacheLookup("series", "hit")
	r.RecordCacheLookup("series", "hit")
	r.RecordCacheLookup("series", "miss")
	r.RecordProviderFetch("yahoo", "error")
	r.RecordError("provider")
	r.RecordLatency("pair_statistics", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("series", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("series", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerCalls.WithLabelValues("yahoo", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("provider")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
