package lua

import (
	"fmt"
	"sync"

	rt "github.com/arnodel/golua/runtime"
)

// HookType identifies a script lifecycle callback.
type HookType int

const (
	// HookInvalid is returned by ParseHookType when parsing fails.
	HookInvalid HookType = iota

	// HookSetup runs once after the script is loaded, outside any frame.
	// Scripts typically call vg_set_size here.
	HookSetup

	// HookDraw runs once per frame, between BeginFrame and EndFrame, with
	// the frame index as its argument.
	HookDraw

	// HookTeardown runs once before the script is reloaded or the player
	// shuts down.
	HookTeardown
)

// String returns the hook name.
func (h HookType) String() string {
	switch h {
	case HookSetup:
		return "setup"
	case HookDraw:
		return "draw"
	case HookTeardown:
		return "teardown"
	case HookInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ParseHookType parses "setup", "draw" or "teardown".
func ParseHookType(s string) (HookType, error) {
	switch s {
	case "setup":
		return HookSetup, nil
	case "draw":
		return HookDraw, nil
	case "teardown":
		return HookTeardown, nil
	default:
		return HookInvalid, fmt.Errorf("unknown hook type: %s", s)
	}
}

// HookManager maps lifecycle hooks to global Lua functions. By default a
// hook calls the global of the same name; Bind overrides that.
type HookManager struct {
	runtime *Runtime
	names   map[HookType]string
	mu      sync.RWMutex
}

// NewHookManager creates a HookManager for runtime with the default names.
func NewHookManager(runtime *Runtime) (*HookManager, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	return &HookManager{
		runtime: runtime,
		names: map[HookType]string{
			HookSetup:    HookSetup.String(),
			HookDraw:     HookDraw.String(),
			HookTeardown: HookTeardown.String(),
		},
	}, nil
}

// Bind makes hook call the global function name. The function does not
// have to exist yet.
func (hm *HookManager) Bind(hook HookType, name string) error {
	if hook == HookInvalid || name == "" {
		return fmt.Errorf("bind %s to %q: invalid hook binding", hook, name)
	}
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.names[hook] = name
	return nil
}

// FunctionName returns the global bound to hook.
func (hm *HookManager) FunctionName(hook HookType) string {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.names[hook]
}

// Defined reports whether the script defines the function bound to hook.
func (hm *HookManager) Defined(hook HookType) bool {
	name := hm.FunctionName(hook)
	return name != "" && hm.runtime.HasFunction(name)
}

// Call invokes the function bound to hook. It fails with
// ErrFunctionNotFound if the script does not define it.
func (hm *HookManager) Call(hook HookType, args ...rt.Value) (rt.Value, error) {
	name := hm.FunctionName(hook)
	result, err := hm.runtime.CallFunction(name, args...)
	if err != nil {
		return rt.NilValue, fmt.Errorf("hook %s: %w", hook, err)
	}
	return result, nil
}

// CallIfDefined invokes the function bound to hook if the script defines
// it and is a no-op otherwise.
func (hm *HookManager) CallIfDefined(hook HookType, args ...rt.Value) (rt.Value, error) {
	if !hm.Defined(hook) {
		return rt.NilValue, nil
	}
	return hm.Call(hook, args...)
}
