// Package profiling records CPU, heap and execution-trace profiles of a
// player run with runtime/pprof and runtime/trace.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
)

// ErrRunning is returned by Start when a session is already active.
var ErrRunning = errors.New("profiling: session already running")

// ErrNotRunning is returned by Stop without a matching Start.
var ErrNotRunning = errors.New("profiling: session not running")

// Config selects the profiles to record. Empty paths disable a profile.
type Config struct {
	// CPUProfile receives a pprof CPU profile covering the session.
	CPUProfile string
	// MemProfile receives a heap profile written when the session stops.
	MemProfile string
	// Trace receives a runtime execution trace; frames show up as regions.
	Trace string
}

// Enabled reports whether any profile is configured.
func (c Config) Enabled() bool {
	return c.CPUProfile != "" || c.MemProfile != "" || c.Trace != ""
}

// Profiler runs one profiling session at a time.
type Profiler struct {
	config  Config
	log     *slog.Logger
	cpuFile *os.File
	trcFile *os.File
	running bool
	mu      sync.Mutex
}

// New creates a Profiler. A nil logger discards diagnostics.
func New(config Config, log *slog.Logger) *Profiler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Profiler{config: config, log: log}
}

// Start begins the CPU profile and the execution trace.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrRunning
	}

	if path := p.config.CPUProfile; path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("profiling: create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("profiling: start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if path := p.config.Trace; path != "" {
		f, err := os.Create(path)
		if err == nil {
			err = trace.Start(f)
			if err != nil {
				f.Close()
			}
		}
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("profiling: start trace: %w", err)
		}
		p.trcFile = f
	}

	p.running = true
	p.log.Debug("profiling started",
		"cpu", p.config.CPUProfile, "mem", p.config.MemProfile, "trace", p.config.Trace)
	return nil
}

// Stop ends the session and writes the heap profile.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ErrNotRunning
	}
	p.running = false

	var errs []error
	if p.trcFile != nil {
		trace.Stop()
		if err := p.trcFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("profiling: close trace: %w", err))
		}
		p.trcFile = nil
	}
	if err := p.stopCPU(); err != nil {
		errs = append(errs, err)
	}
	if path := p.config.MemProfile; path != "" {
		if err := WriteHeapProfile(path); err != nil {
			errs = append(errs, err)
		}
	}

	p.log.Debug("profiling stopped")
	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	if err != nil {
		return fmt.Errorf("profiling: close CPU profile: %w", err)
	}
	return nil
}

// Running reports whether a session is active.
func (p *Profiler) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile collects garbage and writes a heap profile to path.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("profiling: create heap profile: %w", err)
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("profiling: write heap profile: %w", err)
	}
	return nil
}
