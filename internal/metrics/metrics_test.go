package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterAndGauge(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("test_total", "test counter")
	c.Inc()
	c.Add(4)
	assert.Equal(t, int64(5), c.Value())
	assert.Same(t, c, r.Counter("test_total", "ignored"))

	g := r.Gauge("test_gauge", "test gauge")
	g.Set(2.5)
	g.Inc()
	g.Dec()
	g.Add(-0.5)
	assert.InDelta(t, 2.0, g.Get(), 1e-9)
}

func TestGaugeConcurrentAdd(t *testing.T) {
	g := NewRegistry().Gauge("concurrent", "")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g.Inc()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5000.0, g.Get())
}

func TestHistogramExport(t *testing.T) {
	h := NewHistogram("latency_seconds", "latency", []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := h.Export()
	assert.Contains(t, out, `latency_seconds_bucket{le="0.1"} 1`)
	assert.Contains(t, out, `latency_seconds_bucket{le="1"} 2`)
	assert.Contains(t, out, `latency_seconds_bucket{le="+Inf"} 3`)
	assert.Contains(t, out, "latency_seconds_count 3")
	assert.Equal(t, int64(3), h.Count())
}

func TestRegistryExportSorted(t *testing.T) {
	r := NewRegistry()
	r.Counter("b_total", "b").Inc()
	r.Counter("a_total", "a").Inc()

	out := r.Export()
	assert.Contains(t, out, "go_goroutines")
	assert.Less(t, strings.Index(out, "a_total 1"), strings.Index(out, "b_total 1"))
}

func TestDefaultMetricsRegistered(t *testing.T) {
	out := Default().Export()
	assert.Contains(t, out, "flightprice_quote_requests_total")
	assert.Contains(t, out, "flightprice_http_latency_seconds_bucket")
}
