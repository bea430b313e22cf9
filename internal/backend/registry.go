// Package backend keeps the registry of render backends. Backend packages
// register a factory from init, so a binary selects the backends it links
// with blank imports:
//
//	import _ "github.com/opd-ai/go-vgcanvas/internal/backend/ggraster"
//
//	b, err := backend.New("gg", backend.Options{AntiAlias: true})
package backend

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// Options are passed to every factory.
type Options struct {
	// AntiAlias enables anti-aliased rasterization where the backend supports it.
	AntiAlias bool
	// Logger receives backend diagnostics. Nil means the backend stays silent.
	Logger *slog.Logger
}

// Factory creates a backend.
type Factory func(opts Options) (canvas.RenderBackend, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a backend available under name. It panics if factory is
// nil or name is already taken, so clashes surface at program start.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("backend: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("backend: Register called twice for " + name)
	}
	factories[name] = factory
}

// Unregister removes a backend. It is meant for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// New creates the backend registered as name.
func New(name string, opts Options) (canvas.RenderBackend, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("backend: unknown backend %q (forgotten import?)", name)
	}
	b, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return b, nil
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name has a factory.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}
