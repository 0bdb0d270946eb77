// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopByDefault(t *testing.T) {
	_, ok := metrics.(*noopMetrics)
	require.True(t, ok)
	// meters of the noop service never panic
	Counter("noop_counter").Add(1)
	Gauge("noop_gauge").Set(42)
}

func TestPromMeters(t *testing.T) {
	InitializePrometheusMetrics()

	Counter("test_counter").Add(3)
	Counter("test_counter").Add(2)
	Gauge("test_gauge").Set(7)
	CounterVec("test_counter_vec", []string{"kind"}).AddWithLabel(1, map[string]string{"kind": "tick"})
	Histogram("test_histogram", Bucket10s).Observe(1200)

	gathered, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, mf := range gathered {
		found[mf.GetName()] = true
	}
	assert.True(t, found[namespace+"_test_counter"])
	assert.True(t, found[namespace+"_test_gauge"])
	assert.True(t, found[namespace+"_test_counter_vec"])
	assert.True(t, found[namespace+"_test_histogram"])
}
