package config

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// ---------------------------------------------------------------------------
// Memory Mode
// ---------------------------------------------------------------------------

// MemoryMode selects a runtime tuning preset.
type MemoryMode uint8

const (
	// MemoryModeNormal uses Go's defaults. Suitable for 1GB+ RAM.
	MemoryModeNormal MemoryMode = iota

	// MemoryModeReduced trades some latency for a smaller heap. Suitable
	// for 512MB RAM.
	MemoryModeReduced

	// MemoryModeAggressive keeps the heap as small as possible. Suitable
	// for 256MB RAM or less.
	MemoryModeAggressive
)

var memoryModeNames = [...]string{"normal", "reduced", "aggressive"}

func (m MemoryMode) String() string {
	if int(m) < len(memoryModeNames) {
		return memoryModeNames[m]
	}
	return "unknown"
}

// ParseMemoryMode parses a memory mode name. Empty means normal.
func ParseMemoryMode(s string) (MemoryMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MemoryModeNormal, nil
	}
	for i, name := range memoryModeNames {
		if name == s {
			return MemoryMode(i), nil
		}
	}
	return MemoryModeNormal, fmt.Errorf("%s: unknown memory mode %q", KeyMemoryMode, s)
}

// ---------------------------------------------------------------------------
// Runtime
// ---------------------------------------------------------------------------

// Runtime holds Go runtime tuning and the memory pressure thresholds used
// by the server. Zero values mean "use the preset for Mode".
type Runtime struct {
	Mode          MemoryMode
	MaxProcs      int
	GCPercent     int
	MemoryLimitMB int
	SoftLimitMB   int // Memory pressure is reported from here up

	// ShedOnPressure rejects quote requests while memory is critical.
	ShedOnPressure bool
}

// Preset returns the tuning for a memory mode.
func Preset(mode MemoryMode) Runtime {
	switch mode {
	case MemoryModeReduced:
		return Runtime{
			Mode:          MemoryModeReduced,
			MaxProcs:      1,
			GCPercent:     50, // More frequent GC
			MemoryLimitMB: 512,
			SoftLimitMB:   400,
		}
	case MemoryModeAggressive:
		return Runtime{
			Mode:           MemoryModeAggressive,
			MaxProcs:       1,
			GCPercent:      20, // Very frequent GC
			MemoryLimitMB:  256,
			SoftLimitMB:    200,
			ShedOnPressure: true,
		}
	default:
		return Runtime{
			Mode:          MemoryModeNormal,
			GCPercent:     100,
			MemoryLimitMB: 512,
			SoftLimitMB:   450,
		}
	}
}

// Resolve fills zero fields from the preset for r.Mode.
func (r Runtime) Resolve() Runtime {
	p := Preset(r.Mode)
	if r.MaxProcs == 0 {
		r.MaxProcs = p.MaxProcs
	}
	if r.GCPercent == 0 {
		r.GCPercent = p.GCPercent
	}
	if r.MemoryLimitMB == 0 {
		r.MemoryLimitMB = p.MemoryLimitMB
	}
	if r.SoftLimitMB == 0 {
		r.SoftLimitMB = p.SoftLimitMB
	}
	r.ShedOnPressure = r.ShedOnPressure || p.ShedOnPressure
	return r
}

// Apply applies the configuration to the runtime.
func (r Runtime) Apply() {
	if r.MaxProcs > 0 {
		runtime.GOMAXPROCS(r.MaxProcs)
	}
	if r.GCPercent > 0 {
		debug.SetGCPercent(r.GCPercent)
	}
	if r.MemoryLimitMB > 0 {
		debug.SetMemoryLimit(int64(r.MemoryLimitMB) * 1024 * 1024)
	}
}
