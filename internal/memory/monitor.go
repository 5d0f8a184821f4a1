// Package memory samples heap usage against the configured limits and
// reports a pressure level the server uses for health reporting and load
// shedding.
package memory

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yash/flightprice/internal/config"
	"github.com/yash/flightprice/internal/metrics"
)

// ---------------------------------------------------------------------------
// Memory State
// ---------------------------------------------------------------------------

// State is the current memory pressure level.
type State uint8

const (
	StateNormal    State = iota // below 80% of the soft limit
	StateWarning                // approaching the soft limit
	StateCritical               // at or above the soft limit
	StateEmergency              // within 5% of the hard limit
)

var stateNames = [...]string{"normal", "warning", "critical", "emergency"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Stats holds the most recent sample.
type Stats struct {
	AllocMB    float64 `json:"alloc_mb"`
	HeapMB     float64 `json:"heap_mb"`
	SysMB      float64 `json:"sys_mb"`
	NumGC      uint32  `json:"num_gc"`
	State      string  `json:"state"`
	UsageRatio float64 `json:"usage_ratio"` // heap / soft limit
}

// ---------------------------------------------------------------------------
// Monitor
// ---------------------------------------------------------------------------

// Monitor periodically samples runtime memory statistics.
type Monitor struct {
	cfg      config.Runtime
	log      *zap.Logger
	interval time.Duration
	read     func(*runtime.MemStats)

	mu    sync.RWMutex
	state State
	stats Stats

	critical atomic.Bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the sampling interval. Non-positive values are
// ignored and the mode's default is kept.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithReader replaces runtime.ReadMemStats.
func WithReader(fn func(*runtime.MemStats)) Option {
	return func(m *Monitor) { m.read = fn }
}

// NewMonitor creates a monitor for the given runtime configuration. The
// sampling interval tightens as the memory mode gets more aggressive.
func NewMonitor(cfg config.Runtime, log *zap.Logger, opts ...Option) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Monitor{
		cfg:  cfg,
		log:  log.Named("memory"),
		read: runtime.ReadMemStats,
	}
	switch cfg.Mode {
	case config.MemoryModeAggressive:
		m.interval = 2 * time.Second
	case config.MemoryModeReduced:
		m.interval = 3 * time.Second
	default:
		m.interval = 5 * time.Second
	}
	for _, opt := range opts {
		opt(m)
	}
	m.stats.State = StateNormal.String()
	return m
}

// Run samples until ctx is cancelled. It always returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	m.Check()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check()
		}
	}
}

// State returns the current pressure level.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Stats returns the most recent sample.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// ShouldShed reports whether new quote requests should be rejected.
func (m *Monitor) ShouldShed() bool {
	return m.cfg.ShedOnPressure && m.critical.Load()
}

// Check takes one sample and returns the resulting state.
func (m *Monitor) Check() State {
	var ms runtime.MemStats
	m.read(&ms)

	const mb = 1024 * 1024
	heap := float64(ms.HeapAlloc)
	soft := float64(m.cfg.SoftLimitMB) * mb
	hard := float64(m.cfg.MemoryLimitMB) * mb

	next := StateNormal
	switch {
	case hard > 0 && heap >= hard*0.95:
		next = StateEmergency
	case soft > 0 && heap >= soft:
		next = StateCritical
	case soft > 0 && heap >= soft*0.8:
		next = StateWarning
	}

	var ratio float64
	if soft > 0 {
		ratio = heap / soft
	}
	stats := Stats{
		AllocMB:    float64(ms.Alloc) / mb,
		HeapMB:     heap / mb,
		SysMB:      float64(ms.Sys) / mb,
		NumGC:      ms.NumGC,
		State:      next.String(),
		UsageRatio: ratio,
	}

	m.mu.Lock()
	prev := m.state
	m.state = next
	m.stats = stats
	m.mu.Unlock()

	m.critical.Store(next >= StateCritical)
	metrics.MemoryHeapMB.Set(stats.HeapMB)
	metrics.MemoryState.Set(float64(next))

	if prev != next {
		m.log.Info("memory state changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", next),
			zap.Float64("heap_mb", stats.HeapMB),
			zap.Float64("usage_ratio", ratio))

		if next == StateEmergency {
			m.log.Warn("emergency memory pressure, forcing GC")
			runtime.GC()
		}
	}
	return next
}
