// file: internal/metrics/metrics_test.go
// version: 1.0.0
// guid: 1a7d4b9f-6c2e-4a8b-0e3d-9f5c1b7e4a0d

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	Register()

	IncSearch("storytel", "cache")
	IncSearch("storytel", "cache")
	IncCacheHit("storytel")
	IncCacheMiss("bookbeat")
	IncValidationFailure("storytel")
	ObserveUpstreamDuration("storytel", 150*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(searchesTotal.WithLabelValues("storytel", "cache")))
	assert.Equal(t, float64(1), testutil.ToFloat64(cacheHits.WithLabelValues("storytel")))
	assert.Equal(t, float64(1), testutil.ToFloat64(cacheMisses.WithLabelValues("bookbeat")))
	assert.Equal(t, float64(1), testutil.ToFloat64(validationFailures.WithLabelValues("storytel")))
}

func TestAddEntriesReapedIgnoresNonPositive(t *testing.T) {
	Register()

	before := testutil.ToFloat64(entriesReaped)
	AddEntriesReaped(0)
	AddEntriesReaped(-3)
	assert.Equal(t, before, testutil.ToFloat64(entriesReaped))

	AddEntriesReaped(4)
	assert.Equal(t, before+4, testutil.ToFloat64(entriesReaped))
}
