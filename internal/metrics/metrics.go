package metrics

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Prometheus-compatible Metrics Registry
// ---------------------------------------------------------------------------

// Registry holds all application metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram

	startTime time.Time
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]*Counter),
		gauges:    make(map[string]*Gauge),
		histos:    make(map[string]*Histogram),
		startTime: time.Now(),
	}
}

// Counter returns or creates a counter metric.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

// Gauge returns or creates a gauge metric.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

// Histogram returns or creates a histogram metric.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.histos[name]; ok {
		return h
	}
	h := NewHistogram(name, help, buckets)
	r.histos[name] = h
	return h
}

// Export returns all metrics in Prometheus text format, sorted by name.
func (r *Registry) Export() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	writeGauge(&b, "go_memstats_alloc_bytes", "Number of bytes allocated and still in use.", float64(memStats.Alloc))
	writeGauge(&b, "go_memstats_heap_inuse_bytes", "Number of heap bytes in use.", float64(memStats.HeapInuse))
	writeGauge(&b, "go_memstats_sys_bytes", "Number of bytes obtained from system.", float64(memStats.Sys))
	writeGauge(&b, "go_goroutines", "Number of goroutines.", float64(runtime.NumGoroutine()))
	writeGauge(&b, "process_uptime_seconds", "Time since process start.", time.Since(r.startTime).Seconds())

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		fmt.Fprintf(&b, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(&b, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(&b, "%s %d\n", c.name, c.value.Load())
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		writeGauge(&b, g.name, g.help, g.Get())
	}

	for _, name := range sortedKeys(r.histos) {
		b.WriteString(r.histos[name].Export())
	}

	return b.String()
}

func writeGauge(b *strings.Builder, name, help string, v float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n", name, v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// Counter
// ---------------------------------------------------------------------------

// Counter is a monotonically increasing metric.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds the given value to the counter.
func (c *Counter) Add(v int64) {
	c.value.Add(v)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// ---------------------------------------------------------------------------
// Gauge
// ---------------------------------------------------------------------------

// Gauge is a metric that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(v float64) {
	g.bits.Store(math.Float64bits(v))
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	g.Add(1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	g.Add(-1)
}

// Add adds the given value to the gauge.
func (g *Gauge) Add(v float64) {
	for {
		old := g.bits.Load()
		next := math.Float64frombits(old) + v
		if g.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

// Get returns the current gauge value.
func (g *Gauge) Get() float64 {
	return math.Float64frombits(g.bits.Load())
}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

// Histogram tracks value distributions with cumulative buckets.
type Histogram struct {
	name    string
	help    string
	buckets []float64
	counts  []atomic.Int64
	sum     atomic.Int64 // micro-units
	count   atomic.Int64
}

// NewHistogram creates a histogram with the given buckets.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	return &Histogram{
		name:    name,
		help:    help,
		buckets: buckets,
		counts:  make([]atomic.Int64, len(buckets)),
	}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i].Add(1)
		}
	}
	h.sum.Add(int64(v * 1e6))
	h.count.Add(1)
}

// ObserveSince records the seconds elapsed since start.
func (h *Histogram) ObserveSince(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() int64 {
	return h.count.Load()
}

// Export returns the histogram in Prometheus format.
func (h *Histogram) Export() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# HELP %s %s\n", h.name, h.help)
	fmt.Fprintf(&b, "# TYPE %s histogram\n", h.name)
	for i, bound := range h.buckets {
		fmt.Fprintf(&b, "%s_bucket{le=\"%g\"} %d\n", h.name, bound, h.counts[i].Load())
	}
	fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.count.Load())
	fmt.Fprintf(&b, "%s_sum %f\n", h.name, float64(h.sum.Load())/1e6)
	fmt.Fprintf(&b, "%s_count %d\n", h.name, h.count.Load())

	return b.String()
}

// ---------------------------------------------------------------------------
// Default Registry
// ---------------------------------------------------------------------------

var defaultRegistry = NewRegistry()

// Default returns the default metrics registry.
func Default() *Registry {
	return defaultRegistry
}

// ---------------------------------------------------------------------------
// Pre-defined Application Metrics
// ---------------------------------------------------------------------------

var (
	// Quote pipeline
	QuoteRequests        = defaultRegistry.Counter("flightprice_quote_requests_total", "Total number of quote requests")
	QuoteInvalidDuration = defaultRegistry.Counter("flightprice_quote_invalid_duration_total", "Quotes rejected for an invalid flight duration")
	QuoteSchemaMismatch  = defaultRegistry.Counter("flightprice_quote_schema_mismatch_total", "Quotes that failed to encode against the model schema")
	QuoteModelErrors     = defaultRegistry.Counter("flightprice_quote_model_errors_total", "Quotes whose model invocation failed")
	QuoteLatency         = defaultRegistry.Histogram("flightprice_quote_latency_seconds", "End-to-end quote latency", []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1})
	ModelLatency         = defaultRegistry.Histogram("flightprice_model_latency_seconds", "Model invocation latency", []float64{0.00001, 0.0001, 0.001, 0.01, 0.1})
	LastPredictedPrice   = defaultRegistry.Gauge("flightprice_last_predicted_price", "Most recent predicted price")

	// History store
	HistoryRecords      = defaultRegistry.Gauge("flightprice_history_records", "Historical flight records loaded")
	DurationSuggestions = defaultRegistry.Counter("flightprice_duration_suggestions_total", "Duration suggestions served")
	DurationFallbacks   = defaultRegistry.Counter("flightprice_duration_fallbacks_total", "Duration suggestions that fell back to the default")

	// HTTP metrics
	HTTPRequests      = defaultRegistry.Counter("flightprice_http_requests_total", "Total HTTP requests")
	HTTPLatency       = defaultRegistry.Histogram("flightprice_http_latency_seconds", "HTTP request latency", []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1})
	ActiveConnections = defaultRegistry.Gauge("flightprice_active_connections", "Number of active connections")
	HTTPShed          = defaultRegistry.Counter("flightprice_http_shed_total", "Requests rejected under memory pressure")

	// Memory monitor
	MemoryHeapMB = defaultRegistry.Gauge("flightprice_memory_heap_mb", "Heap allocation in megabytes at last check")
	MemoryState  = defaultRegistry.Gauge("flightprice_memory_state", "Memory pressure level (0 normal, 3 emergency)")
)
