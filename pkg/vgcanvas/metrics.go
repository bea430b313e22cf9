package vgcanvas

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics collects player metrics. It uses Go's expvar package for
// exposition, which serves them at /debug/vars when an HTTP server is
// running.
//
// Thread-safe for concurrent use.
//
// Example usage:
//
//	metrics := vgcanvas.NewMetrics()
//	metrics.RegisterExpvar()
//	opts := vgcanvas.DefaultOptions()
//	opts.Metrics = metrics
type Metrics struct {
	// Counters
	loads            atomic.Int64
	closes           atomic.Int64
	scriptReloads    atomic.Int64
	framesRendered   atomic.Int64
	frameErrors      atomic.Int64
	framesSkipped    atomic.Int64
	framesWritten    atomic.Int64
	goldenCompares   atomic.Int64
	goldenMismatches atomic.Int64
	errorsTotal      atomic.Int64
	eventsEmitted    atomic.Int64

	// Latency tracking (stored as nanoseconds)
	frameLatencyNs    atomic.Int64
	frameLatencyCount atomic.Int64
	loadLatencyNs     atomic.Int64
	loadLatencyCount  atomic.Int64

	// Current state gauges
	loaded atomic.Int32

	// Registration tracking to prevent duplicate expvar registration
	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
// Call RegisterExpvar() to expose metrics via the /debug/vars endpoint.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar registers all metrics with Go's expvar package.
// Safe to call multiple times on one instance; expvar names are global, so
// register at most one instance per process.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	counters := map[string]*atomic.Int64{
		"vgcanvas_loads_total":             &m.loads,
		"vgcanvas_closes_total":            &m.closes,
		"vgcanvas_script_reloads_total":    &m.scriptReloads,
		"vgcanvas_frames_rendered_total":   &m.framesRendered,
		"vgcanvas_frame_errors_total":      &m.frameErrors,
		"vgcanvas_frames_skipped_total":    &m.framesSkipped,
		"vgcanvas_frames_written_total":    &m.framesWritten,
		"vgcanvas_golden_compares_total":   &m.goldenCompares,
		"vgcanvas_golden_mismatches_total": &m.goldenMismatches,
		"vgcanvas_errors_total":            &m.errorsTotal,
		"vgcanvas_events_emitted_total":    &m.eventsEmitted,
	}
	for name, counter := range counters {
		expvar.Publish(name, expvar.Func(func() any { return counter.Load() }))
	}

	expvar.Publish("vgcanvas_loaded", expvar.Func(func() any { return m.loaded.Load() }))
	expvar.Publish("vgcanvas_frame_latency_avg_ms", expvar.Func(func() any {
		return avgMillis(m.frameLatencyNs.Load(), m.frameLatencyCount.Load())
	}))
	expvar.Publish("vgcanvas_load_latency_avg_ms", expvar.Func(func() any {
		return avgMillis(m.loadLatencyNs.Load(), m.loadLatencyCount.Load())
	}))
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Loads:            m.loads.Load(),
		Closes:           m.closes.Load(),
		ScriptReloads:    m.scriptReloads.Load(),
		FramesRendered:   m.framesRendered.Load(),
		FrameErrors:      m.frameErrors.Load(),
		FramesSkipped:    m.framesSkipped.Load(),
		FramesWritten:    m.framesWritten.Load(),
		GoldenCompares:   m.goldenCompares.Load(),
		GoldenMismatches: m.goldenMismatches.Load(),
		ErrorsTotal:      m.errorsTotal.Load(),
		EventsEmitted:    m.eventsEmitted.Load(),

		Loaded: m.loaded.Load() > 0,

		FrameLatencyAvg: safeDivide(m.frameLatencyNs.Load(), m.frameLatencyCount.Load()),
		LoadLatencyAvg:  safeDivide(m.loadLatencyNs.Load(), m.loadLatencyCount.Load()),
	}
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	// Counters
	Loads            int64
	Closes           int64
	ScriptReloads    int64
	FramesRendered   int64
	FrameErrors      int64
	FramesSkipped    int64
	FramesWritten    int64
	GoldenCompares   int64
	GoldenMismatches int64
	ErrorsTotal      int64
	EventsEmitted    int64

	// Gauges
	Loaded bool

	// Latency averages
	FrameLatencyAvg time.Duration
	LoadLatencyAvg  time.Duration
}

// IncrementLoads records a successful Load.
func (m *Metrics) IncrementLoads() {
	m.loads.Add(1)
}

// IncrementCloses records a Close.
func (m *Metrics) IncrementCloses() {
	m.closes.Add(1)
}

// IncrementScriptReloads records a script reload.
func (m *Metrics) IncrementScriptReloads() {
	m.scriptReloads.Add(1)
}

// IncrementFramesSkipped records a frame skipped while the circuit breaker is open.
func (m *Metrics) IncrementFramesSkipped() {
	m.framesSkipped.Add(1)
}

// IncrementFramesWritten records a frame written to disk.
func (m *Metrics) IncrementFramesWritten() {
	m.framesWritten.Add(1)
}

// RecordGoldenCompare records a golden comparison and whether it matched.
func (m *Metrics) RecordGoldenCompare(matched bool) {
	m.goldenCompares.Add(1)
	if !matched {
		m.goldenMismatches.Add(1)
	}
}

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() {
	m.errorsTotal.Add(1)
}

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() {
	m.eventsEmitted.Add(1)
}

// SetLoaded updates the loaded gauge.
func (m *Metrics) SetLoaded(loaded bool) {
	if loaded {
		m.loaded.Store(1)
	} else {
		m.loaded.Store(0)
	}
}

// RecordFrame records a rendered frame, its duration and whether it failed.
func (m *Metrics) RecordFrame(d time.Duration, err error) {
	m.framesRendered.Add(1)
	if err != nil {
		m.frameErrors.Add(1)
	}
	m.frameLatencyNs.Add(d.Nanoseconds())
	m.frameLatencyCount.Add(1)
}

// RecordLoadLatency records how long loading a script took.
func (m *Metrics) RecordLoadLatency(d time.Duration) {
	m.loadLatencyNs.Add(d.Nanoseconds())
	m.loadLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.loads, &m.closes, &m.scriptReloads, &m.framesRendered, &m.frameErrors,
		&m.framesSkipped, &m.framesWritten, &m.goldenCompares, &m.goldenMismatches,
		&m.errorsTotal, &m.eventsEmitted,
		&m.frameLatencyNs, &m.frameLatencyCount, &m.loadLatencyNs, &m.loadLatencyCount,
	} {
		c.Store(0)
	}
	m.loaded.Store(0)
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

func avgMillis(totalNs, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNs) / float64(count) / 1e6
}

// defaultMetrics is a global metrics instance for convenience.
var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
